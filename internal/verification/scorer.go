package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/civigo/civigo/internal/vision"
)

// Expected scorer outcomes. These are business results, distinct from the
// transient provider failures which propagate as wrapped errors.
var (
	ErrNoFaceMatch   = errors.New("no face match found")
	ErrNoSearchMatch = errors.New("no matching face found")
	ErrNotEnrollable = errors.New("no suitable face found for indexing")
)

// Scorer normalises the provider's compare, search, and enroll operations.
// It performs a single round trip per call; retries are caller policy.
type Scorer struct {
	provider vision.Provider
	policy   Policy
}

// NewScorer builds a scorer over the given provider and policy table.
func NewScorer(provider vision.Provider, policy Policy) *Scorer {
	return &Scorer{provider: provider, policy: policy}
}

// Compare scores a selfie against a document photo using the policy's
// comparison floor.
func (s *Scorer) Compare(ctx context.Context, source, target []byte) (vision.CompareResult, error) {
	result, err := s.provider.Compare(ctx, source, target, s.policy.CompareFloor)
	if err != nil {
		if errors.Is(err, vision.ErrNoMatch) {
			return vision.CompareResult{}, ErrNoFaceMatch
		}
		return vision.CompareResult{}, fmt.Errorf("scorer: compare: %w", err)
	}
	return result, nil
}

// Search returns the best-ranked enrolled face for the probe image at the
// login threshold.
func (s *Scorer) Search(ctx context.Context, probe []byte) (vision.SearchMatch, error) {
	matches, err := s.provider.Search(ctx, probe, s.policy.Login, 5)
	if err != nil {
		return vision.SearchMatch{}, fmt.Errorf("scorer: search: %w", err)
	}
	if len(matches) == 0 {
		return vision.SearchMatch{}, ErrNoSearchMatch
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if m.Similarity > best.Similarity {
			best = m
		}
	}
	return best, nil
}

// Enroll indexes an approved face under the issued identifier.
func (s *Scorer) Enroll(ctx context.Context, image []byte, externalID string) (string, error) {
	ref, err := s.provider.Index(ctx, image, externalID)
	if err != nil {
		if errors.Is(err, vision.ErrNoIndexableFace) {
			return "", ErrNotEnrollable
		}
		return "", fmt.Errorf("scorer: enroll: %w", err)
	}
	return ref, nil
}
