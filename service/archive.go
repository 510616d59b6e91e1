package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/al0dan/absher/config"
)

// ArchiveService keeps immutable copies of generated artifacts (contract
// text snapshots and ZATCA invoice XML) in object storage. Optional: when no
// endpoint is configured the handlers simply skip archiving.
type ArchiveService struct {
	client *minio.Client
	bucket string
}

func NewArchiveService(cfg *config.ArchiveConfig) (*ArchiveService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create archive client: %w", err)
	}

	return &ArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func contractTextObject(contractID string) string {
	return fmt.Sprintf("contracts/%s/contract.txt", contractID)
}

func invoiceObject(contractID string) string {
	return fmt.Sprintf("contracts/%s/invoice.xml", contractID)
}

// EnsureBucket creates the archive bucket if it doesn't exist
func (s *ArchiveService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// SaveContractText archives the generated contract text for a contract.
func (s *ArchiveService) SaveContractText(ctx context.Context, contractID, text string) error {
	return s.put(ctx, contractTextObject(contractID), []byte(text), "text/plain; charset=utf-8")
}

// SaveInvoiceXML archives a generated ZATCA invoice document.
func (s *ArchiveService) SaveInvoiceXML(ctx context.Context, contractID string, data []byte) error {
	return s.put(ctx, invoiceObject(contractID), data, "application/xml")
}

func (s *ArchiveService) put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", objectName, err)
	}
	return nil
}

// ContractTextURL returns a time-limited download link for the archived
// contract text.
func (s *ArchiveService) ContractTextURL(ctx context.Context, contractID string, expiry time.Duration) (string, error) {
	return s.presignedURL(ctx, contractTextObject(contractID), expiry)
}

// InvoiceURL returns a time-limited download link for the archived invoice.
func (s *ArchiveService) InvoiceURL(ctx context.Context, contractID string, expiry time.Duration) (string, error) {
	return s.presignedURL(ctx, invoiceObject(contractID), expiry)
}

func (s *ArchiveService) presignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}
