// Package s3store stages datasets in an S3 compatible bucket for services
// that read remote URIs.
package s3store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/eval-hub/eval-cloud/internal/abstractions"
	"github.com/eval-hub/eval-cloud/internal/config"
	"github.com/eval-hub/eval-cloud/pkg/api"
)

const contentType = "application/x-ndjson"

// PutObjectAPI is the subset of the S3 client the store uses
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Store struct {
	client PutObjectAPI
	bucket string
	prefix string
	logger *slog.Logger
}

var _ abstractions.DatasetUploader = (*Store)(nil)

// NewStore builds an S3 client from the dataset configuration. Static
// credentials are used when set, the default AWS chain otherwise.
func NewStore(ctx context.Context, cfg *config.S3DatasetConfig, logger *slog.Logger) (*Store, error) {
	if cfg == nil || cfg.Bucket == "" {
		return nil, fmt.Errorf("an S3 bucket is required for the s3 dataset store")
	}
	loadOptions := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		loadOptions = append(loadOptions, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewStoreWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func NewStoreWithClient(client PutObjectAPI, bucket string, prefix string, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

// UploadFile puts the file under a unique key and returns its s3:// URI as the dataset id.
func (s *Store) UploadFile(ctx context.Context, filePath string) (*api.UploadedDataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	base := filepath.Base(filePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	key := path.Join(s.prefix, name+"-"+uuid.NewString()+filepath.Ext(base))

	s.logger.Info("Staging dataset", "bucket", s.bucket, "key", key)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}

	uri := "s3://" + s.bucket + "/" + key
	return &api.UploadedDataset{
		ID:   uri,
		Name: name,
		URI:  uri,
	}, nil
}
