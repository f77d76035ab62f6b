package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	texttypes "github.com/aws/aws-sdk-go-v2/service/textract/types"
)

// TextractExtractor implements TextExtractor against AWS Textract.
type TextractExtractor struct {
	client  *textract.Client
	timeout time.Duration
}

// NewTextractExtractor wraps an existing Textract client.
func NewTextractExtractor(client *textract.Client, timeout time.Duration) (*TextractExtractor, error) {
	if client == nil {
		return nil, errors.New("textract: client is required")
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &TextractExtractor{client: client, timeout: timeout}, nil
}

// ExtractText returns the document's printed text as ordered lines. A failure
// here propagates to the caller: intake never substitutes synthetic values
// for fields it could not read.
func (e *TextractExtractor) ExtractText(ctx context.Context, image []byte) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &texttypes.Document{Bytes: image},
	})
	observe("extract_text", start, err)
	if err != nil {
		return nil, fmt.Errorf("textract: detect document text: %w", err)
	}

	lines := make([]string, 0, len(out.Blocks))
	for _, block := range out.Blocks {
		if block.BlockType == texttypes.BlockTypeLine {
			lines = append(lines, aws.ToString(block.Text))
		}
	}

	return lines, nil
}
