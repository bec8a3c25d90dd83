package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore implements Store as raw resources on a Cloudinary
// cloud, addressed by public ID == object-store key.
type CloudinaryStore struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	client    *http.Client
}

// Config holds the credentials needed to reach a Cloudinary cloud.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// NewCloudinaryStore creates a CloudinaryStore. Returns
// (nil, nil) when cfg is incomplete, signaling the caller should
// fall back to a LocalStore.
func NewCloudinaryStore(cfg Config) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("objectstore: cloudinary client: %w", err)
	}
	return &CloudinaryStore{cld: cld, cloudName: cfg.CloudName, client: http.DefaultClient}, nil
}

func (s *CloudinaryStore) Put(ctx context.Context, key string, data []byte) error {
	overwrite := true
	_, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     key,
		ResourceType: "raw",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return fmt.Errorf("objectstore: cloudinary upload %s: %w", key, err)
	}
	return nil
}

func (s *CloudinaryStore) rawURL(key string) string {
	return fmt.Sprintf("https://res.cloudinary.com/%s/raw/upload/%s", s.cloudName, key)
}

func (s *CloudinaryStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.rawURL(key), nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, 0, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("objectstore: cloudinary get %s: status %d", key, resp.StatusCode)
	}
	return resp.Body, resp.ContentLength, nil
}

func (s *CloudinaryStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	nextCursor := ""
	for {
		params := admin.AssetsParams{
			ResourceType: "raw",
			Prefix:       prefix,
			MaxResults:   500,
		}
		if nextCursor != "" {
			params.NextCursor = nextCursor
		}
		result, err := s.cld.Admin.Assets(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("objectstore: cloudinary list %s: %w", prefix, err)
		}
		for _, asset := range result.Assets {
			keys = append(keys, asset.PublicID)
		}
		if result.NextCursor == "" {
			break
		}
		nextCursor = result.NextCursor
	}
	return keys, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("objectstore: cloudinary delete %s: %w", key, err)
	}
	return nil
}

func (s *CloudinaryStore) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := s.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		Prefix:       []string{prefix},
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("objectstore: cloudinary delete prefix %s: %w", prefix, err)
	}
	return nil
}
