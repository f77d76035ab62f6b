package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestApplicationStatusTransitions(t *testing.T) {
	cases := []struct {
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{ApplicationPending, ApplicationUnderReview, true},
		{ApplicationPending, ApplicationApproved, true},
		{ApplicationPending, ApplicationRejected, true},
		{ApplicationUnderReview, ApplicationApproved, true},
		{ApplicationUnderReview, ApplicationRejected, true},
		{ApplicationUnderReview, ApplicationPending, false},
		{ApplicationApproved, ApplicationRejected, false},
		{ApplicationApproved, ApplicationPending, false},
		{ApplicationRejected, ApplicationApproved, false},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestApplicationStatusTerminal(t *testing.T) {
	require.True(t, ApplicationApproved.Terminal())
	require.True(t, ApplicationRejected.Terminal())
	require.False(t, ApplicationPending.Terminal())
	require.False(t, ApplicationUnderReview.Terminal())
}

func TestHolderValidAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	holder := &Holder{Status: HolderActive, ExpiryDate: now.Add(24 * time.Hour)}
	require.True(t, holder.ValidAt(now))

	// An active record past its expiry date must not verify.
	holder.ExpiryDate = now.Add(-time.Minute)
	require.False(t, holder.ValidAt(now))

	holder.ExpiryDate = now.Add(24 * time.Hour)
	holder.Status = HolderSuspended
	require.False(t, holder.ValidAt(now))

	holder.Status = HolderExpired
	require.False(t, holder.ValidAt(now))
}
