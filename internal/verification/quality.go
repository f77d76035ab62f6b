package verification

import (
	"context"
	"fmt"

	"github.com/civigo/civigo/internal/vision"
)

// Reason strings shown to citizens when a capture is unusable. The quality
// sub-checks share one generic reason: which bar failed is not reported.
const (
	ReasonNoFace        = "no face detected"
	ReasonMultipleFaces = "multiple faces detected, ensure only one person"
	ReasonPoorQuality   = "image quality is too poor"
)

// QualityBounds are the minimum bars an image must clear before any
// comparison is attempted.
type QualityBounds struct {
	MinBrightness float64
	MaxBrightness float64
	MinSharpness  float64
	MinConfidence float64
}

// DefaultQualityBounds returns the production bars.
func DefaultQualityBounds() QualityBounds {
	return QualityBounds{
		MinBrightness: 20,
		MaxBrightness: 80,
		MinSharpness:  20,
		MinConfidence: 90,
	}
}

// QualityResult is the gate verdict for one image.
type QualityResult struct {
	OK     bool
	Reason string
	Detail vision.FaceDetail
}

// QualityGate validates that an image contains exactly one usable face. It
// runs before every compare or search so unusable captures never consume a
// comparison call.
type QualityGate struct {
	provider vision.Provider
	bounds   QualityBounds
}

// NewQualityGate builds a gate over the given provider and bars.
func NewQualityGate(provider vision.Provider, bounds QualityBounds) *QualityGate {
	return &QualityGate{provider: provider, bounds: bounds}
}

// Check detects faces in the image and applies the bars in order. A returned
// error means the detector itself failed; it is never folded into a quality
// verdict.
func (g *QualityGate) Check(ctx context.Context, image []byte) (QualityResult, error) {
	detail, err := g.provider.Detect(ctx, image)
	if err != nil {
		return QualityResult{}, fmt.Errorf("quality gate: %w", err)
	}

	result := QualityResult{Detail: detail}

	switch {
	case detail.FaceCount == 0:
		result.Reason = ReasonNoFace
	case detail.FaceCount > 1:
		result.Reason = ReasonMultipleFaces
	case detail.Brightness < g.bounds.MinBrightness,
		detail.Brightness > g.bounds.MaxBrightness,
		detail.Sharpness < g.bounds.MinSharpness,
		detail.Confidence < g.bounds.MinConfidence:
		result.Reason = ReasonPoorQuality
	default:
		result.OK = true
	}

	return result, nil
}
