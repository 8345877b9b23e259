package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/travigo/cta-train-analytics/pkg/config"
)

// MinioStore reads and writes objects in S3 compatible storage
type MinioStore struct {
	client *minio.Client
}

// NewMinioStore accepts either a bare host:port endpoint or a URL, an https
// scheme turns TLS on
func NewMinioStore(cfg config.MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, &Error{Code: CodeEndpointUnreachable, Err: errors.New("endpoint is required")}
	}

	endpoint := cfg.Endpoint
	secure := false

	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, &Error{Code: CodeEndpointUnreachable, Err: err}
	}

	return &MinioStore{client: client}, nil
}

func (s *MinioStore) ListPrefix(ctx context.Context, bucket string, prefix string) ([]string, error) {
	var keys []string

	objects := s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objects {
		if object.Err != nil {
			return nil, classifyError(object.Err)
		}
		keys = append(keys, object.Key)
	}

	return keys, nil
}

func (s *MinioStore) GetObject(ctx context.Context, bucket string, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyError(err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, classifyError(err)
	}

	return data, nil
}

func (s *MinioStore) PutObject(ctx context.Context, bucket string, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(key),
	})

	return classifyError(err)
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".parquet":
		return "application/vnd.apache.parquet"
	case ".json":
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}
