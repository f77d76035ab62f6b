package visiontest

import (
	"context"
	"errors"

	"github.com/civigo/civigo/internal/vision"
)

// Fake is a configurable in-memory vision.Provider for tests. Zero value
// detects one good-quality face and matches nothing.
type Fake struct {
	Detail    vision.FaceDetail
	DetectErr error

	CompareResult vision.CompareResult
	CompareErr    error

	SearchMatches []vision.SearchMatch
	SearchErr     error

	IndexRef string
	IndexErr error

	// Call counters so tests can assert enrollment side effects.
	DetectCalls  int
	CompareCalls int
	SearchCalls  int
	IndexCalls   int

	// LastIndexedID records the externalID passed to Index.
	LastIndexedID string
}

// NewFake returns a Fake that passes the quality gate by default.
func NewFake() *Fake {
	return &Fake{
		Detail: vision.FaceDetail{
			FaceCount:  1,
			Brightness: 55,
			Sharpness:  60,
			Confidence: 99,
		},
		IndexRef: "face-ref-1",
	}
}

func (f *Fake) Detect(ctx context.Context, image []byte) (vision.FaceDetail, error) {
	f.DetectCalls++
	if f.DetectErr != nil {
		return vision.FaceDetail{}, f.DetectErr
	}
	return f.Detail, nil
}

func (f *Fake) Compare(ctx context.Context, source, target []byte, minThreshold float64) (vision.CompareResult, error) {
	f.CompareCalls++
	if f.CompareErr != nil {
		return vision.CompareResult{}, f.CompareErr
	}
	if !f.CompareResult.Matched {
		return vision.CompareResult{}, vision.ErrNoMatch
	}
	return f.CompareResult, nil
}

func (f *Fake) Search(ctx context.Context, probe []byte, threshold float64, maxResults int) ([]vision.SearchMatch, error) {
	f.SearchCalls++
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	return f.SearchMatches, nil
}

func (f *Fake) Index(ctx context.Context, image []byte, externalID string) (string, error) {
	f.IndexCalls++
	f.LastIndexedID = externalID
	if f.IndexErr != nil {
		return "", f.IndexErr
	}
	return f.IndexRef, nil
}

// FakeExtractor is a canned vision.TextExtractor.
type FakeExtractor struct {
	Lines []string
	Err   error
}

func (f *FakeExtractor) ExtractText(ctx context.Context, image []byte) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Lines, nil
}

// ErrProviderDown simulates a transient external-service failure.
var ErrProviderDown = errors.New("provider down")
