package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ReceiptStorage is the receipt-attachment collaborator. The only
// implementation is Google Cloud Storage; handlers depend on the interface so
// tests can fake the boundary.
type ReceiptStorage interface {
	Upload(ctx context.Context, objectKey string, contentType string, content io.Reader) (string, error)
	Delete(ctx context.Context, objectKey string) error
}

type GCSStorage struct {
	bucket string
}

// NewGCSStorageFromEnv reads GCS_BUCKET. Returns an error when unset so the
// entry point can decide whether uploads are enabled for this deployment.
func NewGCSStorageFromEnv() (*GCSStorage, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	return &GCSStorage{bucket: bucket}, nil
}

// getGoogleClient initializes a Google Cloud Storage client.
// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func (s *GCSStorage) Upload(ctx context.Context, objectKey string, contentType string, content io.Reader) (string, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return "", &ExternalServiceError{Service: "gcs", Err: err}
	}
	defer client.Close()

	wc := client.Bucket(s.bucket).Object(objectKey).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := io.Copy(wc, content); err != nil {
		return "", &ExternalServiceError{Service: "gcs", Err: err}
	}
	if err := wc.Close(); err != nil {
		return "", &ExternalServiceError{Service: "gcs", Err: err}
	}

	return s.ObjectURL(objectKey), nil
}

func (s *GCSStorage) Delete(ctx context.Context, objectKey string) error {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return &ExternalServiceError{Service: "gcs", Err: err}
	}
	defer client.Close()

	if err := client.Bucket(s.bucket).Object(objectKey).Delete(ctx); err != nil {
		return &ExternalServiceError{Service: "gcs", Err: err}
	}
	return nil
}

func (s *GCSStorage) ObjectURL(objectKey string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectKey)
}
