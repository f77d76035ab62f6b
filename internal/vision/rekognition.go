package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rekotypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/civigo/civigo/pkg/metrics"
)

const defaultRequestTimeout = 10 * time.Second

// RekognitionConfig carries the collection and timeout settings for the
// managed face-recognition provider.
type RekognitionConfig struct {
	CollectionID   string
	RequestTimeout time.Duration
}

// RekognitionProvider implements Provider against AWS Rekognition.
type RekognitionProvider struct {
	client       *rekognition.Client
	collectionID string
	timeout      time.Duration
}

// NewRekognitionProvider wraps an existing Rekognition client.
func NewRekognitionProvider(client *rekognition.Client, cfg RekognitionConfig) (*RekognitionProvider, error) {
	if client == nil {
		return nil, errors.New("rekognition: client is required")
	}
	if cfg.CollectionID == "" {
		return nil, errors.New("rekognition: collection id is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &RekognitionProvider{
		client:       client,
		collectionID: cfg.CollectionID,
		timeout:      timeout,
	}, nil
}

// Detect returns the face count and quality attributes of the largest faces
// in the image. Quality fields come from the first detected face.
func (p *RekognitionProvider) Detect(ctx context.Context, image []byte) (FaceDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &rekotypes.Image{Bytes: image},
		Attributes: []rekotypes.Attribute{rekotypes.AttributeAll},
	})
	observe("detect", start, err)
	if err != nil {
		return FaceDetail{}, fmt.Errorf("rekognition: detect faces: %w", err)
	}

	detail := FaceDetail{FaceCount: len(out.FaceDetails)}
	if len(out.FaceDetails) > 0 {
		face := out.FaceDetails[0]
		detail.Confidence = float64(aws.ToFloat32(face.Confidence))
		if face.Quality != nil {
			detail.Brightness = float64(aws.ToFloat32(face.Quality.Brightness))
			detail.Sharpness = float64(aws.ToFloat32(face.Quality.Sharpness))
		}
	}

	return detail, nil
}

// Compare scores source against target with the given similarity floor.
func (p *RekognitionProvider) Compare(ctx context.Context, source, target []byte, minThreshold float64) (CompareResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.client.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         &rekotypes.Image{Bytes: source},
		TargetImage:         &rekotypes.Image{Bytes: target},
		SimilarityThreshold: aws.Float32(float32(minThreshold)),
	})
	observe("compare", start, err)
	if err != nil {
		return CompareResult{}, fmt.Errorf("rekognition: compare faces: %w", err)
	}

	if len(out.FaceMatches) == 0 {
		return CompareResult{}, ErrNoMatch
	}

	best := out.FaceMatches[0]
	result := CompareResult{
		Similarity: float64(aws.ToFloat32(best.Similarity)),
		Matched:    true,
	}
	if best.Face != nil {
		result.Confidence = float64(aws.ToFloat32(best.Face.Confidence))
	}

	return result, nil
}

// Search ranks enrolled faces in the collection against the probe image.
func (p *RekognitionProvider) Search(ctx context.Context, probe []byte, threshold float64, maxResults int) ([]SearchMatch, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if maxResults <= 0 {
		maxResults = 5
	}

	start := time.Now()
	out, err := p.client.SearchFacesByImage(ctx, &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(p.collectionID),
		Image:              &rekotypes.Image{Bytes: probe},
		FaceMatchThreshold: aws.Float32(float32(threshold)),
		MaxFaces:           aws.Int32(int32(maxResults)),
	})
	observe("search", start, err)
	if err != nil {
		return nil, fmt.Errorf("rekognition: search faces: %w", err)
	}

	matches := make([]SearchMatch, 0, len(out.FaceMatches))
	for _, m := range out.FaceMatches {
		match := SearchMatch{Similarity: float64(aws.ToFloat32(m.Similarity))}
		if m.Face != nil {
			match.ExternalID = aws.ToString(m.Face.ExternalImageId)
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// Index enrolls the single best face in the image under externalID.
func (p *RekognitionProvider) Index(ctx context.Context, image []byte, externalID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := p.client.IndexFaces(ctx, &rekognition.IndexFacesInput{
		CollectionId:    aws.String(p.collectionID),
		Image:           &rekotypes.Image{Bytes: image},
		ExternalImageId: aws.String(externalID),
		MaxFaces:        aws.Int32(1),
		QualityFilter:   rekotypes.QualityFilterAuto,
	})
	observe("index", start, err)
	if err != nil {
		return "", fmt.Errorf("rekognition: index faces: %w", err)
	}

	if len(out.FaceRecords) == 0 || out.FaceRecords[0].Face == nil {
		return "", ErrNoIndexableFace
	}

	return aws.ToString(out.FaceRecords[0].Face.FaceId), nil
}

func observe(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.ProviderLatency.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}
