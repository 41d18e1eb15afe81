package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"frpengine/internal/frp"
	"frpengine/internal/types"
)

// Exporter publishes a stored record somewhere outside the store.
type Exporter interface {
	Export(ctx context.Context, rec Record) error
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3Exporter writes <prefix><id>.json and <prefix><id>.md to an S3 bucket.
type S3Exporter struct {
	client     *minio.Client
	bucketName string
	region     string
	prefix     string
	initOnce   sync.Once
	initErr    error
}

func NewS3Exporter(cfg S3Config) (*S3Exporter, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Exporter{
		client:     client,
		bucketName: bucket,
		region:     region,
		prefix:     strings.TrimLeft(cfg.Prefix, "/"),
	}, nil
}

func (e *S3Exporter) ensureBucket(ctx context.Context) error {
	e.initOnce.Do(func() {
		exists, err := e.client.BucketExists(ctx, e.bucketName)
		if err != nil {
			e.initErr = err
			return
		}
		if exists {
			return
		}
		e.initErr = e.client.MakeBucket(ctx, e.bucketName, minio.MakeBucketOptions{Region: e.region})
	})
	return e.initErr
}

func (e *S3Exporter) Export(ctx context.Context, rec Record) error {
	if e == nil || e.client == nil {
		return fmt.Errorf("exporter is nil")
	}
	objects, err := exportObjects(rec)
	if err != nil {
		return err
	}
	if err := e.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	for _, obj := range objects {
		key := e.prefix + obj.name
		_, err := e.client.PutObject(ctx, e.bucketName, key, bytes.NewReader(obj.body), int64(len(obj.body)), minio.PutObjectOptions{
			ContentType: obj.contentType,
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	return nil
}

type exportObject struct {
	name        string
	contentType string
	body        []byte
}

func exportObjects(rec Record) ([]exportObject, error) {
	id, err := normalizeID(rec.ID)
	if err != nil {
		return nil, err
	}
	structured, err := frp.Render(rec.Analysis, types.FormatStructured)
	if err != nil {
		return nil, err
	}
	narrative, err := frp.Render(rec.Analysis, types.FormatNarrative)
	if err != nil {
		return nil, err
	}
	return []exportObject{
		{name: id + ".json", contentType: "application/json", body: []byte(structured)},
		{name: id + ".md", contentType: "text/markdown; charset=utf-8", body: []byte(narrative)},
	}, nil
}

// ExportingStore exports every record after it is stored.
type ExportingStore struct {
	Store
	exporter Exporter
}

func NewExportingStore(inner Store, exp Exporter) *ExportingStore {
	return &ExportingStore{Store: inner, exporter: exp}
}

// Put stores rec, then exports it. An export failure is returned but the
// record stays stored.
func (s *ExportingStore) Put(ctx context.Context, rec Record) error {
	if err := s.Store.Put(ctx, rec); err != nil {
		return err
	}
	if s.exporter == nil {
		return nil
	}
	if err := s.exporter.Export(ctx, rec); err != nil {
		return fmt.Errorf("export %s: %w", rec.ID, err)
	}
	return nil
}
