package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/models"
)

// Archiver exports published articles as JSON documents to an
// S3-compatible bucket (Cloudflare R2 in the default deployment). Exports
// are best-effort: a failed upload is logged by the caller and never
// blocks the publish itself.
type Archiver struct {
	client *s3.Client
	bucket string
}

// New builds an Archiver from the R2 settings. Returns nil when no
// endpoint is configured, in which case archiving is disabled.
func New(ctx context.Context, cfg *config.Config) (*Archiver, error) {
	if cfg.R2Endpoint == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.R2Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.R2AccessKey, cfg.R2SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2Endpoint)
		o.UsePathStyle = true
	})

	return &Archiver{client: client, bucket: cfg.R2Bucket}, nil
}

// Put uploads the article document under articles/<slug>.json.
func (a *Archiver) Put(ctx context.Context, article *models.Article) error {
	data, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal article %d: %w", article.ID, err)
	}

	key := fmt.Sprintf("articles/%s.json", article.Slug)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload article %d: %w", article.ID, err)
	}

	return nil
}

// Delete removes an archived article document, if present.
func (a *Archiver) Delete(ctx context.Context, slug string) error {
	key := fmt.Sprintf("articles/%s.json", slug)
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete archived article %s: %w", slug, err)
	}
	return nil
}
