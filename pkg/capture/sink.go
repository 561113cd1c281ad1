package capture

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrInvalidTarget is returned by ParseS3URL and OpenSink.
var ErrInvalidTarget = errors.New("capture: invalid capture target")

// FileSink writes a capture to a local file through a buffer.
type FileSink struct {
	f *os.File
	w *bufio.Writer
}

// NewFileSink creates (or truncates) the file at path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Close flushes buffered records and closes the file.
func (s *FileSink) Close() error {
	ferr := s.w.Flush()
	serr := s.f.Sync()
	cerr := s.f.Close()
	return errors.Join(ferr, serr, cerr)
}

// PutObjectAPI is the part of the S3 client S3Sink uses. *s3.Client
// implements it.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink buffers a capture in memory and uploads it as one object on Close.
type S3Sink struct {
	client  PutObjectAPI
	bucket  string
	key     string
	timeout time.Duration

	mu     sync.Mutex
	buf    bytes.Buffer
	closed bool
}

// NewS3Sink returns a sink uploading to bucket/key.
func NewS3Sink(client PutObjectAPI, bucket, key string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, key: key, timeout: 30 * time.Second}
}

// WithUploadTimeout sets how long Close waits for the upload.
func (s *S3Sink) WithUploadTimeout(d time.Duration) *S3Sink {
	s.timeout = d
	return s
}

func (s *S3Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, os.ErrClosed
	}
	return s.buf.Write(p)
}

// Close uploads the buffered capture.
func (s *S3Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	body := bytes.NewReader(s.buf.Bytes())
	size := int64(s.buf.Len())
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"capture-format": "cwcap-1",
			"upload-time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("capture: s3 upload failed: %w", err)
	}
	return nil
}

// ParseS3URL splits "s3://bucket/key" into bucket and key.
func ParseS3URL(target string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(target, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3:// URL", ErrInvalidTarget, target)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidTarget, target)
	}
	return bucket, key, nil
}

// OpenSink opens target: an s3://bucket/key URL uploads through client,
// anything else is a local path.
func OpenSink(target string, client PutObjectAPI) (io.WriteCloser, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidTarget)
	}
	if !strings.HasPrefix(target, "s3://") {
		sink, err := NewFileSink(target)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
	bucket, key, err := ParseS3URL(target)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("%w: no S3 client for %q", ErrInvalidTarget, target)
	}
	return NewS3Sink(client, bucket, key), nil
}
