// Package upload pushes chat and product images to a Google Cloud Storage
// bucket and hands back the public URL the messaging endpoints expect.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Uploader writes files into a fixed bucket. Object names are unique per
// upload so existing images are never overwritten.
type Uploader struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewUploader connects to GCS. credentialsPath may be empty, in which case
// application default credentials are used.
func NewUploader(ctx context.Context, bucket, credentialsPath string, logger *zap.Logger) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Uploader{client: client, bucket: bucket, logger: logger}, nil
}

// Upload writes the reader's content under the given folder and returns the
// object's public URL.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, contentType, folder string) (string, error) {
	name := fmt.Sprintf("%s/%s-%s%s",
		folder, uuid.New().String(), time.Now().Format("20060102150405"), extensionFor(contentType))

	obj := u.client.Bucket(u.bucket).Object(name)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close object writer: %w", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("set public ACL: %w", err)
	}

	u.logger.Info("uploaded object",
		zap.String("bucket", u.bucket),
		zap.String("object", name),
		zap.String("content_type", contentType))

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, name), nil
}

// UploadFile uploads a local file, inferring the content type from its
// extension.
func (u *Uploader) UploadFile(ctx context.Context, path, folder string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return u.Upload(ctx, f, contentTypeFor(path), folder)
}

// Delete removes a previously uploaded object by its public URL.
func (u *Uploader) Delete(ctx context.Context, fileURL string) error {
	prefix := fmt.Sprintf("https://storage.googleapis.com/%s/", u.bucket)
	if !strings.HasPrefix(fileURL, prefix) {
		return fmt.Errorf("url %q is not in bucket %s", fileURL, u.bucket)
	}
	name := fileURL[len(prefix):]
	if err := u.client.Bucket(u.bucket).Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying client.
func (u *Uploader) Close() error {
	return u.client.Close()
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
