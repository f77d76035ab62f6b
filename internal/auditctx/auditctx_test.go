package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActorRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{
		UserID:    "user-1",
		IPAddress: "203.0.113.9",
		UserAgent: "civigo-app/1.4",
	})

	actor, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "user-1", actor.UserID)
	require.Equal(t, "203.0.113.9", actor.IPAddress)
}

func TestFromContextWithoutActor(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	_, ok = FromContext(nil)
	require.False(t, ok)
}
