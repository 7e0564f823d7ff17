// Package store moves pipeline inputs and outputs between the local
// workspace and S3.
package store

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/MeKo-Tech/votershield/internal/pipeline"
)

// Location is a parsed s3://bucket/key URI.
type Location struct {
	Bucket string
	Key    string
}

// ParseURI parses an s3://bucket/key URI. The key part may be empty or a
// prefix.
func ParseURI(uri string) (Location, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return Location{}, fmt.Errorf("not an s3 URI: %q", uri)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("missing bucket in s3 URI: %q", uri)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// Client wraps the S3 API used by the pipeline.
type Client struct {
	api *s3.Client
}

// NewClient builds a client from the ambient AWS configuration (environment,
// shared config, instance role). A configuration failure is reported as a
// precondition failure so the run exits with the dedicated status code.
func NewClient(ctx context.Context) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &pipeline.PreconditionError{Reason: "load AWS configuration", Err: err}
	}
	return &Client{api: s3.NewFromConfig(cfg)}, nil
}

// DownloadPDFs fetches every .pdf object under each URI's prefix (or the
// single object a URI names) into destDir. destDir is reset first so the
// run operates on exactly the requested inputs. Returns the local paths.
func (c *Client) DownloadPDFs(ctx context.Context, uris []string, destDir string) ([]string, error) {
	if err := os.RemoveAll(destDir); err != nil {
		return nil, fmt.Errorf("reset input dir: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}

	var local []string
	for _, uri := range uris {
		loc, err := ParseURI(uri)
		if err != nil {
			return nil, err
		}
		keys, err := c.listPDFKeys(ctx, loc)
		if err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, pipeline.Preconditionf("no PDF objects under %s", uri)
		}
		for _, key := range keys {
			dest := filepath.Join(destDir, path.Base(key))
			if err := c.downloadObject(ctx, loc.Bucket, key, dest); err != nil {
				return nil, err
			}
			slog.Info("downloaded input", "bucket", loc.Bucket, "key", key, "path", dest)
			local = append(local, dest)
		}
	}
	return local, nil
}

func (c *Client) listPDFKeys(ctx context.Context, loc Location) ([]string, error) {
	if strings.HasSuffix(strings.ToLower(loc.Key), ".pdf") {
		return []string{loc.Key}, nil
	}

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: &loc.Bucket,
		Prefix: &loc.Key,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &pipeline.PreconditionError{
				Reason: fmt.Sprintf("list s3://%s/%s", loc.Bucket, loc.Key),
				Err:    err,
			}
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if strings.HasSuffix(strings.ToLower(*obj.Key), ".pdf") {
				keys = append(keys, *obj.Key)
			}
		}
	}
	return keys, nil
}

func (c *Client) downloadObject(ctx context.Context, bucket, key, dest string) error {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return &pipeline.PreconditionError{
			Reason: fmt.Sprintf("get s3://%s/%s", bucket, key),
			Err:    err,
		}
	}
	defer func() { _ = out.Body.Close() }()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}

// UploadDirectory uploads every regular file under localDir to the URI,
// preserving relative paths below the URI's key prefix.
func (c *Client) UploadDirectory(ctx context.Context, localDir, uri string) error {
	loc, err := ParseURI(uri)
	if err != nil {
		return err
	}

	return filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		key := path.Join(loc.Key, filepath.ToSlash(rel))

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		defer func() { _ = f.Close() }()

		if _, err := c.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &loc.Bucket,
			Key:    &key,
			Body:   f,
		}); err != nil {
			return fmt.Errorf("put s3://%s/%s: %w", loc.Bucket, key, err)
		}
		slog.Info("uploaded output", "bucket", loc.Bucket, "key", key)
		return nil
	})
}
