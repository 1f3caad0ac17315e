// Package source opens measurement files from local paths, HTTP URLs and S3.
package source

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"go-measure-pipeline/internal/errors"
)

// Source is an opened input. Name is the logical file name records are tagged with.
type Source struct {
	Name string
	io.ReadCloser
}

// S3Getter is the part of *s3.Client used for s3:// sources
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Opener resolves source URIs
type Opener struct {
	HTTP *http.Client
	S3   S3Getter // nil disables s3:// sources
}

// NewOpener creates an opener with a bounded HTTP client
func NewOpener(s3Client S3Getter) *Opener {
	return &Opener{
		HTTP: &http.Client{Timeout: 60 * time.Second},
		S3:   s3Client,
	}
}

// Open returns a reader for uri: a local path, file://, http(s):// or s3://bucket/key.
// Inputs whose name ends in .gz are decompressed.
func (o *Opener) Open(ctx context.Context, uri string) (*Source, error) {
	name := FileName(uri)
	if name == "" {
		return nil, errors.InvalidRequestf("cannot derive a file name from %q", uri)
	}

	var (
		body io.ReadCloser
		err  error
	)
	switch scheme(uri) {
	case "http", "https":
		body, err = o.openHTTP(ctx, uri)
	case "s3":
		body, err = o.openS3(ctx, uri)
	case "file":
		body, err = openFile(strings.TrimPrefix(uri, "file://"))
	case "":
		body, err = openFile(uri)
	default:
		return nil, errors.InvalidRequestf("unsupported source scheme in %q", uri)
	}
	if err != nil {
		return nil, err
	}

	rc, err := decompress(body, uri)
	if err != nil {
		body.Close()
		return nil, err
	}
	return &Source{Name: name, ReadCloser: rc}, nil
}

// FileName is the base name of uri with any query and trailing .gz removed
func FileName(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		p = u.Path
		if u.Scheme == "s3" && p == "" {
			return ""
		}
	} else {
		p = filepath.ToSlash(uri)
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	if strings.HasSuffix(strings.ToLower(base), ".gz") {
		base = base[:len(base)-3]
	}
	return base
}

// scheme returns the lowercased URI scheme; single letters are Windows drives
func scheme(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) < 2 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

func openFile(p string) (io.ReadCloser, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", p)
	}
	return f, nil
}

func (o *Opener) openHTTP(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", uri)
	}
	client := o.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", uri)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, errors.Newf("fetch %s: unexpected status %s", uri, resp.Status)
	}
	return resp.Body, nil
}

func (o *Opener) openS3(ctx context.Context, uri string) (io.ReadCloser, error) {
	if o.S3 == nil {
		return nil, errors.WithHint(errors.Newf("s3 source %s: no S3 client configured", uri),
			"set s3.region or AWS_REGION to enable s3:// sources")
	}
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	resp, err := o.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get object s3://%s/%s", bucket, key)
	}
	return resp.Body, nil
}

// ParseS3URI splits s3://bucket/key
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" {
		return "", "", errors.InvalidRequestf("invalid S3 URI %q", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", errors.InvalidRequestf("S3 URI %q needs a bucket and a key", uri)
	}
	return u.Host, key, nil
}

// gzipReadCloser closes both the gzip stream and the underlying body
type gzipReadCloser struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return gzErr
}

// decompress wraps body with gzip decompression if the name ends in .gz
func decompress(body io.ReadCloser, uri string) (io.ReadCloser, error) {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	if !strings.HasSuffix(strings.ToLower(p), ".gz") {
		return body, nil
	}
	gzr, err := gzip.NewReader(body)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "create gzip reader"), errors.ErrParse)
	}
	return &gzipReadCloser{Reader: gzr, body: body}, nil
}
