package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civigo/civigo/internal/vision/visiontest"
	apperrors "github.com/civigo/civigo/pkg/errors"
)

func TestExtractLines(t *testing.T) {
	svc, err := NewExtractionService(&visiontest.FakeExtractor{
		Lines: []string{"REPUBLIC OF EXAMPLE", "DIALLO", "AMINA", "P1234567"},
	})
	require.NoError(t, err)

	lines, err := svc.ExtractLines(context.Background(), []byte("document"))
	require.NoError(t, err)
	require.Len(t, lines, 4)
}

// A failed extraction surfaces as an error; the service never invents field
// values.
func TestExtractLinesNeverSynthesizes(t *testing.T) {
	svc, err := NewExtractionService(&visiontest.FakeExtractor{Err: visiontest.ErrProviderDown})
	require.NoError(t, err)

	_, err = svc.ExtractLines(context.Background(), []byte("document"))
	require.Error(t, err)
	require.Equal(t, apperrors.ErrServiceUnavailable.Code, apperrors.FromError(err).Code)

	empty, err := NewExtractionService(&visiontest.FakeExtractor{})
	require.NoError(t, err)
	_, err = empty.ExtractLines(context.Background(), []byte("document"))
	require.Error(t, err)
}
