package services

import (
	"context"
	"errors"

	"github.com/civigo/civigo/internal/vision"
	apperrors "github.com/civigo/civigo/pkg/errors"
)

// ExtractionService reads printed text lines off a document image so the
// portal can prefill the claimed-identity form. A failed extraction is
// surfaced as-is: the service never synthesizes field values.
type ExtractionService struct {
	extractor vision.TextExtractor
}

// NewExtractionService builds the service over a text extractor.
func NewExtractionService(extractor vision.TextExtractor) (*ExtractionService, error) {
	if extractor == nil {
		return nil, errors.New("extraction service: extractor is required")
	}
	return &ExtractionService{extractor: extractor}, nil
}

// ExtractLines returns the raw text lines found on the document.
func (s *ExtractionService) ExtractLines(ctx context.Context, image []byte) ([]string, error) {
	if len(image) == 0 {
		return nil, apperrors.NewBadRequest("document image is required")
	}

	lines, err := s.extractor.ExtractText(ctx, image)
	if err != nil {
		return nil, apperrors.ErrServiceUnavailable.WithInternal(err)
	}
	if len(lines) == 0 {
		return nil, apperrors.NewBadRequest("no readable text found on document")
	}
	return lines, nil
}
