package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// inlineImage pairs an object in the asset bucket with the Content-ID the
// templates reference it by.
type inlineImage struct {
	Key  string
	File string
	CID  string
}

var inlineImages = []inlineImage{
	{Key: "logo", File: "email-logo.png", CID: "email-logo"},
	{Key: "downtimeBody", File: "downtime-body.png", CID: "downtime-body"},
	{Key: "uptimeBody", File: "uptime-body.png", CID: "uptime-body"},
	{Key: "creditsBody", File: "1Kcredits.png", CID: "credits-body"},
}

// AssetStore fetches raw template image bytes by object name.
type AssetStore interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioAssetStore reads template images from an S3-compatible bucket.
type MinioAssetStore struct {
	client *minio.Client
	bucket string
}

func NewMinioAssetStore(cfg MinioConfig) (*MinioAssetStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("asset bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioAssetStore{client: mc, bucket: cfg.Bucket}, nil
}

func (s *MinioAssetStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get asset %s: %w", name, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}

// LocalAssetStore serves template images from a directory on disk, which
// is how development environments run without an object store.
type LocalAssetStore struct {
	Dir string
}

func (s LocalAssetStore) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	return data, nil
}

// Attachment is an inline image ready to embed in an outgoing message.
type Attachment struct {
	Filename    string
	CID         string
	ContentType string
	Data        []byte
}

// AttachmentsFor fetches the inline images a rendered document actually
// references. Detection is textual: an image is referenced when its cid:
// token appears in the HTML.
func AttachmentsFor(ctx context.Context, store AssetStore, html string) ([]Attachment, error) {
	var out []Attachment
	for _, img := range inlineImages {
		if !strings.Contains(html, "cid:"+img.CID) {
			continue
		}
		data, err := store.Fetch(ctx, img.File)
		if err != nil {
			return nil, fmt.Errorf("fetch inline image %s: %w", img.File, err)
		}
		out = append(out, Attachment{Filename: img.File, CID: img.CID, ContentType: "image/png", Data: data})
	}
	return out, nil
}

// DataURIs returns every template image as a data: URI keyed the way the
// dashboard preview expects. Images the store cannot produce are skipped
// rather than failing the whole preview.
func DataURIs(ctx context.Context, store AssetStore) map[string]string {
	out := make(map[string]string, len(inlineImages))
	for _, img := range inlineImages {
		data, err := store.Fetch(ctx, img.File)
		if err != nil {
			continue
		}
		out[img.Key] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
	}
	return out
}
