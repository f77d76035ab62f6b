package vision

import (
	"context"
	"errors"
)

// FaceDetail summarises the detector's view of a single image.
type FaceDetail struct {
	FaceCount  int
	Brightness float64
	Sharpness  float64
	Confidence float64
}

// CompareResult is the normalised output of a face comparison.
type CompareResult struct {
	Similarity float64
	Matched    bool
	Confidence float64
}

// SearchMatch is one ranked entry from a collection search.
type SearchMatch struct {
	ExternalID string
	Similarity float64
}

// Sentinel errors distinguishing expected detector outcomes from transport
// failures. Anything else returned by a Provider is treated as a transient
// service failure by callers.
var (
	// ErrNoMatch is returned by Compare when the external service finds no
	// face match between the two images.
	ErrNoMatch = errors.New("vision: no face match")

	// ErrNoIndexableFace is returned by Index when the detector cannot
	// extract an indexable face, which can happen even after a quality gate
	// pass.
	ErrNoIndexableFace = errors.New("vision: no indexable face")
)

// Provider is the managed face-recognition capability. Implementations make a
// single round trip per call; retry policy belongs to callers.
type Provider interface {
	// Detect returns face count and quality attributes for an image.
	Detect(ctx context.Context, image []byte) (FaceDetail, error)

	// Compare scores a probe image against a single reference image.
	// minThreshold is the comparison-time floor below which the service
	// reports no match.
	Compare(ctx context.Context, source, target []byte, minThreshold float64) (CompareResult, error)

	// Search ranks enrolled faces against the probe image. An empty result
	// is a valid response, not an error.
	Search(ctx context.Context, probe []byte, threshold float64, maxResults int) ([]SearchMatch, error)

	// Index enrolls a face under externalID and returns the provider's face
	// reference.
	Index(ctx context.Context, image []byte, externalID string) (string, error)
}

// TextExtractor pulls printed text lines out of a document image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) ([]string, error)
}
