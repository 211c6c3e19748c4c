package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/zainiii163/tearence-backend-sub004/internal/config"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
)

const reportURLExpiry = 15 * time.Minute

// IReportStore archives batch-run reports.
type IReportStore interface {
	// UploadReport stores report as JSON and returns its object key.
	UploadReport(ctx context.Context, kind, runID string, report any) (string, error)
	// PresignReportURL returns a short-lived download link for key.
	PresignReportURL(ctx context.Context, key string) (string, error)
}

// s3ReportStore implements IReportStore.
type s3ReportStore struct {
	bucket        string
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	now           func() time.Time
}

// NewReportStore creates an S3-backed report store. It returns nil when no
// report bucket is configured.
func NewReportStore(ctx context.Context, cfg *config.Config) (IReportStore, error) {
	if cfg.ReportS3Bucket == "" {
		return nil, nil
	}

	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.AwsRegion)}
	if cfg.AwsAccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return &s3ReportStore{
		bucket:        cfg.ReportS3Bucket,
		s3Client:      s3Client,
		presignClient: s3.NewPresignClient(s3Client),
		now:           time.Now,
	}, nil
}

// ReportKey lays reports out by kind and day: reports/<kind>/2024/03/22/<runID>.json
func ReportKey(kind, runID string, at time.Time) string {
	return fmt.Sprintf("reports/%s/%s/%s.json", kind, at.UTC().Format("2006/01/02"), runID)
}

func (s *s3ReportStore) UploadReport(ctx context.Context, kind, runID string, report any) (string, error) {
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s report: %w", kind, err)
	}

	key := ReportKey(kind, runID, s.now())
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	logger.FromContext(ctx).Info("report archived", "bucket", s.bucket, "key", key)
	return key, nil
}

func (s *s3ReportStore) PresignReportURL(ctx context.Context, key string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(reportURLExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign report URL for key %s: %w", key, err)
	}
	return req.URL, nil
}
