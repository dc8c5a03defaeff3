package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-api-ledger/internal/config"
	"github.com/go-api-ledger/internal/domain"
	"github.com/go-api-ledger/internal/infrastructure/awsconf"
)

const reconciliationPrefix = "reconciliation"

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReconciliationStore writes one JSON report per incomplete transfer under
// reconciliation/<yyyy-mm-dd>/<transferId>.json.
type ReconciliationStore struct {
	client objectPutter
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
			o.UsePathStyle = true
		}
	}), nil
}

func NewReconciliationStore(client objectPutter, bucket string) *ReconciliationStore {
	return &ReconciliationStore{client: client, bucket: bucket}
}

// Record stores the report and returns its s3:// location.
func (s *ReconciliationStore) Record(ctx context.Context, rec *domain.Reconciliation) (string, error) {
	body, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal reconciliation: %w", err)
	}
	key := reconciliationKey(rec)
	if err := s.put(ctx, key, bytes.NewReader(body)); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *ReconciliationStore) put(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func reconciliationKey(rec *domain.Reconciliation) string {
	return path.Join(reconciliationPrefix, rec.RecordedAt.UTC().Format("2006-01-02"), rec.TransferID+".json")
}
