// Package archive keeps copies of table exports and database snapshots in
// S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is the subset of *s3.Client the archiver needs.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, input *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Object is one archived file.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Name is the file name part of the key without the unique id.
func (o Object) Name() string {
	base := path.Base(o.Key)
	if len(base) > 37 && base[36] == '-' {
		if _, err := uuid.Parse(base[:36]); err == nil {
			return base[37:]
		}
	}
	return base
}

type Archiver struct {
	cfg    Config
	client s3Client
	now    func() time.Time
	logger *slog.Logger
}

// New returns an archiver. Without a bucket and credentials it is returned
// unconfigured and every operation fails.
func New(cfg Config, logger *slog.Logger) *Archiver {
	a := &Archiver{cfg: cfg, now: time.Now, logger: logger}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		a.client = newS3Client(cfg)
	}
	return a
}

func newS3Client(cfg Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (a *Archiver) Configured() bool {
	return a.client != nil
}

// key builds "<prefix>/<kind>/YYYY/MM/DD/<uuid>-<name>".
func (a *Archiver) key(kind, name string) string {
	day := a.now().UTC().Format("2006/01/02")
	return path.Join(a.cfg.Prefix, kind, day, uuid.NewString()+"-"+name)
}

// Upload stores body under a new export key and returns the object.
func (a *Archiver) Upload(ctx context.Context, name, contentType string, body []byte) (Object, error) {
	if !a.Configured() {
		return Object{}, fmt.Errorf("archive not configured: bucket or credentials missing")
	}
	key := a.key("exports", name)
	if err := a.put(ctx, key, contentType, bytes.NewReader(body), int64(len(body))); err != nil {
		return Object{}, err
	}
	a.logger.Info("export archived", "key", key, "bytes", len(body))
	return Object{Key: key, Size: int64(len(body)), LastModified: a.now().UTC()}, nil
}

// Snapshot writes a consistent copy of db with VACUUM INTO and uploads it.
func (a *Archiver) Snapshot(ctx context.Context, db *sql.DB) (Object, error) {
	if !a.Configured() {
		return Object{}, fmt.Errorf("archive not configured: bucket or credentials missing")
	}

	dir, err := os.MkdirTemp("", "nacp-snapshot-")
	if err != nil {
		return Object{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	name := "nacp-" + a.now().UTC().Format("2006-01-02T150405Z") + ".db"
	file := filepath.Join(dir, name)
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, file); err != nil {
		return Object{}, fmt.Errorf("vacuum into: %w", err)
	}

	f, err := os.Open(file)
	if err != nil {
		return Object{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return Object{}, fmt.Errorf("stat snapshot: %w", err)
	}

	key := a.key("snapshots", name)
	if err := a.put(ctx, key, "application/vnd.sqlite3", f, stat.Size()); err != nil {
		return Object{}, err
	}
	a.logger.Info("database snapshot archived", "key", key, "bytes", stat.Size())
	return Object{Key: key, Size: stat.Size(), LastModified: a.now().UTC()}, nil
}

func (a *Archiver) put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// List returns archived objects newest first.
func (a *Archiver) List(ctx context.Context) ([]Object, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("archive not configured: bucket or credentials missing")
	}

	var objects []Object
	input := &s3.ListObjectsV2Input{Bucket: aws.String(a.cfg.Bucket)}
	if a.cfg.Prefix != "" {
		input.Prefix = aws.String(strings.TrimSuffix(a.cfg.Prefix, "/") + "/")
	}
	for {
		out, err := a.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, o := range out.Contents {
			obj := Object{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
			if o.LastModified != nil {
				obj.LastModified = *o.LastModified
			}
			objects = append(objects, obj)
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	slices.SortFunc(objects, func(x, y Object) int {
		return y.LastModified.Compare(x.LastModified)
	})
	return objects, nil
}

// Download opens an archived object. The caller closes the reader.
func (a *Archiver) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("archive not configured: bucket or credentials missing")
	}
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return out.Body, nil
}

func (a *Archiver) Delete(ctx context.Context, key string) error {
	if !a.Configured() {
		return fmt.Errorf("archive not configured: bucket or credentials missing")
	}
	if _, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
