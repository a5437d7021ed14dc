package keys

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"keymaster/core/fetch"
	"keymaster/core/remote"
	"keymaster/core/storage"

	"github.com/minio/minio-go/v7"
)

// KeySource downloads key files for staging.
type KeySource interface {
	Fetch(ctx context.Context, req Requirement, w io.Writer) (int64, error)
}

// HTTPKeystore downloads keys from <BaseURL>/<escaped name>.
type HTTPKeystore struct {
	Fetcher *fetch.Fetcher
	BaseURL string
}

// URL returns the download URL of a key.
func (k *HTTPKeystore) URL(name string) string {
	return strings.TrimSuffix(k.BaseURL, "/") + "/" + url.PathEscape(name)
}

func (k *HTTPKeystore) Fetch(ctx context.Context, req Requirement, w io.Writer) (int64, error) {
	return k.Fetcher.Download(ctx, fetch.KindKeyFile, k.URL(req.Name), w)
}

// S3Keystore downloads keys from an S3-compatible bucket.
type S3Keystore struct {
	Client   storage.Client
	Location storage.Location
}

// NewS3Keystore builds a keystore for an s3://bucket/prefix URL.
func NewS3Keystore(client storage.Client, rawURL string) (*S3Keystore, error) {
	loc, err := storage.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	return &S3Keystore{Client: client, Location: loc}, nil
}

// Check verifies that the keystore bucket exists.
func (k *S3Keystore) Check(ctx context.Context) error {
	ok, err := k.Client.BucketExists(ctx, k.Location.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check keystore bucket %s: %w", k.Location.Bucket, err)
	}
	if !ok {
		return fmt.Errorf("keystore bucket %s does not exist", k.Location.Bucket)
	}
	return nil
}

func (k *S3Keystore) Fetch(ctx context.Context, req Requirement, w io.Writer) (int64, error) {
	objectName := k.Location.ObjectName(req.Name)
	obj, err := k.Client.GetObject(ctx, k.Location.Bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to get key %s from bucket %s: %w", objectName, k.Location.Bucket, err)
	}
	defer obj.Close()

	n, err := io.Copy(w, obj)
	if err != nil {
		return n, fmt.Errorf("failed to download key %s from bucket %s: %w", objectName, k.Location.Bucket, err)
	}
	return n, nil
}

// RemoteSource copies keys from their Source path on the remote store.
// Keys without a Source, such as manual keys, are fetched from Fallback.
type RemoteSource struct {
	Client   remote.Client
	Fallback KeySource
}

func (s *RemoteSource) Fetch(ctx context.Context, req Requirement, w io.Writer) (int64, error) {
	if req.Source == "" {
		if s.Fallback == nil {
			return 0, errors.New("key " + req.Name + " has no remote source and no keystore is configured")
		}
		return s.Fallback.Fetch(ctx, req, w)
	}
	rc, err := s.Client.Retrieve(ctx, req.Source)
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve key %s: %w", req.Source, err)
	}
	defer rc.Close()

	n, err := io.Copy(w, rc)
	if err != nil {
		return n, fmt.Errorf("failed to copy key %s: %w", req.Source, err)
	}
	return n, nil
}

// Download stages every key in sorted order through create and returns the
// bytes written. Each key is logged with its provenance before download.
func Download(ctx context.Context, src KeySource, reqs *Requirements, create func(name string) (io.WriteCloser, error), log Logger) (int64, error) {
	if log == nil {
		log = nopLogger{}
	}
	var total int64
	for _, req := range reqs.Sorted() {
		log.Messagef("\t%s", req)
		w, err := create(req.Name)
		if err != nil {
			return total, err
		}
		n, err := src.Fetch(ctx, req, w)
		total += n
		if cerr := w.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			return total, fmt.Errorf("failed to download key %s: %w", req.Name, err)
		}
	}
	return total, nil
}
