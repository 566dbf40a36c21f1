// Package s3 stores submitted review files in an S3-compatible bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"housingreview/internal/config"
	"housingreview/internal/port"
)

// Store is the S3-backed port.ObjectStorage.
type Store struct {
	client    *s3.Client
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewStore connects to S3 or, when an endpoint is configured, to an
// S3-compatible server such as MinIO using path-style addressing.
func NewStore(ctx context.Context, cfg *config.S3Config) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "s3: load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Store{
		client:    client,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
	}, nil
}

var _ port.ObjectStorage = (*Store)(nil)

// ReviewFileKey builds the object key of the index-th file of a review. The
// original name is kept as the last segment with path separators removed.
func ReviewFileKey(reviewID uuid.UUID, index int, name string) string {
	base := strings.NewReplacer("/", "_", "\\", "_").Replace(path.Base(strings.TrimSpace(name)))
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("reviews/%s/%02d-%s", reviewID, index+1, base)
}

func (s *Store) Upload(ctx context.Context, in port.UploadInput) (*port.UploadOutput, error) {
	res, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(in.Bucket),
		Key:         aws.String(in.Key),
		Body:        in.Body,
		ContentType: aws.String(in.ContentType),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "s3: upload %s", in.Key)
	}
	zap.L().Debug("s3: uploaded", zap.String("key", in.Key), zap.Int64("size", in.Size))
	return &port.UploadOutput{Location: res.Location, ETag: aws.ToString(res.ETag)}, nil
}

func (s *Store) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	res, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "s3: get %s", key)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "s3: read %s", key)
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, bucket, key string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return eris.Wrapf(err, "s3: delete %s", key)
	}
	return nil
}

func (s *Store) GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error) {
	res, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(time.Duration(expirySeconds)*time.Second))
	if err != nil {
		return "", eris.Wrapf(err, "s3: presign %s", key)
	}
	return res.URL, nil
}
