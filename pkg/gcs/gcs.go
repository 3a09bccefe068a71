// Package gcs uploads local file trees to a Google Cloud Storage bucket
// and reports the public URL of each object.
package gcs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

// Uploader pushes files into one bucket.
type Uploader struct {
	client *storage.Client
	bucket string
}

// NewUploader creates an Uploader. credentialsFile may be empty, in which
// case application default credentials apply.
func NewUploader(ctx context.Context, bucket, credentialsFile string) (*Uploader, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "gcs: create client")
	}
	return &Uploader{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (u *Uploader) Close() error {
	return u.client.Close()
}

// Upload walks localDir and uploads every regular file under it to
// {prefix}/{relative path}. It returns relative path -> public URL.
func (u *Uploader) Upload(ctx context.Context, localDir, prefix string) (map[string]string, error) {
	urls := make(map[string]string)
	err := filepath.WalkDir(localDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(localDir, path)
		if err != nil {
			return eris.Wrapf(err, "gcs: relativize %s", path)
		}
		object := strings.TrimSuffix(prefix, "/") + "/" + filepath.ToSlash(rel)
		if err := u.uploadFile(ctx, path, object); err != nil {
			return err
		}
		urls[filepath.ToSlash(rel)] = u.PublicURL(object)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return urls, nil
}

func (u *Uploader) uploadFile(ctx context.Context, localPath, object string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return eris.Wrapf(err, "gcs: open %s", localPath)
	}
	defer func() { _ = f.Close() }()

	w := u.client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return eris.Wrapf(err, "gcs: write %s", object)
	}
	if err := w.Close(); err != nil {
		return eris.Wrapf(err, "gcs: finalize %s", object)
	}
	return nil
}

// PublicURL is the canonical public address of an object in the bucket.
func (u *Uploader) PublicURL(object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.bucket, object)
}
