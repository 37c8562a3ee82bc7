package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	s3Config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"classservice/internal/config"
	"classservice/internal/errdefs"
)

// Storage uploads a file under a category folder and returns its public URL.
type Storage interface {
	Upload(ctx context.Context, data []byte, filename, category string) (string, error)
}

type S3Storage struct {
	client  *s3.Client
	bucket  *string
	baseURL string
}

func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	s3Cfg, err := s3Config.LoadDefaultConfig(ctx,
		s3Config.WithRegion(cfg.S3Region),
		s3Config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.S3AccessKeyID,
				cfg.S3SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(s3Cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	baseURL := cfg.FilePublicBaseURL
	if baseURL == "" {
		baseURL = strings.TrimSuffix(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	}

	s := &S3Storage{
		client:  client,
		bucket:  aws.String(cfg.S3Bucket),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
	if err := s.createBucket(ctx, cfg.S3Bucket); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *S3Storage) createBucket(ctx context.Context, name string) error {
	_, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusConflict {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", name, err)
	}
	return nil
}

func (s *S3Storage) Upload(ctx context.Context, data []byte, filename, category string) (string, error) {
	extension := strings.ToLower(path.Ext(filename))
	if extension == "" {
		return "", fmt.Errorf("missing file extension: %w", errdefs.ErrValidation)
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	key := category + "/" + id.String() + extension

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      s.bucket,
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(extension)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, errdefs.ErrUpstream)
	}

	return s.baseURL + "/" + key, nil
}

func contentTypeFor(extension string) string {
	if extension == ".pdf" {
		return "application/pdf"
	}
	return "application/octet-stream"
}

// IsPDF validates both the declared filename and the leading bytes.
func IsPDF(filename string, data []byte) bool {
	if strings.ToLower(path.Ext(filename)) != ".pdf" {
		return false
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}
