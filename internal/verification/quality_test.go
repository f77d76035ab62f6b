package verification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civigo/civigo/internal/vision"
	"github.com/civigo/civigo/internal/vision/visiontest"
)

func TestQualityGatePasses(t *testing.T) {
	fake := visiontest.NewFake()
	gate := NewQualityGate(fake, DefaultQualityBounds())

	result, err := gate.Check(context.Background(), []byte("selfie"))
	require.NoError(t, err)
	require.True(t, result.OK)
	require.Empty(t, result.Reason)
}

func TestQualityGateReasons(t *testing.T) {
	cases := []struct {
		name   string
		detail vision.FaceDetail
		reason string
	}{
		{"no face", vision.FaceDetail{FaceCount: 0}, ReasonNoFace},
		{"two faces", vision.FaceDetail{FaceCount: 2, Brightness: 50, Sharpness: 50, Confidence: 99}, ReasonMultipleFaces},
		{"too dark", vision.FaceDetail{FaceCount: 1, Brightness: 10, Sharpness: 50, Confidence: 99}, ReasonPoorQuality},
		{"too bright", vision.FaceDetail{FaceCount: 1, Brightness: 95, Sharpness: 50, Confidence: 99}, ReasonPoorQuality},
		{"blurry", vision.FaceDetail{FaceCount: 1, Brightness: 50, Sharpness: 5, Confidence: 99}, ReasonPoorQuality},
		{"weak detection", vision.FaceDetail{FaceCount: 1, Brightness: 50, Sharpness: 50, Confidence: 80}, ReasonPoorQuality},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := visiontest.NewFake()
			fake.Detail = tc.detail
			gate := NewQualityGate(fake, DefaultQualityBounds())

			result, err := gate.Check(context.Background(), []byte("img"))
			require.NoError(t, err)
			require.False(t, result.OK)
			require.Equal(t, tc.reason, result.Reason)
		})
	}
}

func TestQualityGateBoundaryValues(t *testing.T) {
	fake := visiontest.NewFake()
	fake.Detail = vision.FaceDetail{FaceCount: 1, Brightness: 20, Sharpness: 20, Confidence: 90}
	gate := NewQualityGate(fake, DefaultQualityBounds())

	result, err := gate.Check(context.Background(), []byte("img"))
	require.NoError(t, err)
	require.True(t, result.OK, "inclusive bounds must pass")
}

func TestQualityGatePropagatesDetectorFailure(t *testing.T) {
	fake := visiontest.NewFake()
	fake.DetectErr = visiontest.ErrProviderDown
	gate := NewQualityGate(fake, DefaultQualityBounds())

	_, err := gate.Check(context.Background(), []byte("img"))
	require.ErrorIs(t, err, visiontest.ErrProviderDown)
}
