package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API the stager uses.
type S3Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	CopyObject(ctx context.Context, params *s3aws.CopyObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.CopyObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3aws.DeleteObjectsInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3aws.ListObjectsV2Input, optFns ...func(*s3aws.Options)) (*s3aws.ListObjectsV2Output, error)
}

type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string // MinIO and other S3-compatible services
	AccessKeyID    string
	SecretKey      string
	ForcePathStyle bool
	// BaseURL is the public origin for committed objects. Derived from the
	// bucket and endpoint when empty.
	BaseURL string
}

const (
	s3StagingPrefix = "staging/"
	s3MediaPrefix   = "media/"
)

// S3 stages uploads under staging/ and commits them with a server-side copy
// to media/.
type S3 struct {
	client  S3Client
	bucket  string
	baseURL string
}

var _ Stager = (*S3)(nil)

type S3Option func(*s3Options)

type s3Options struct {
	client S3Client
}

// WithS3Client replaces the AWS client, mainly for tests.
func WithS3Client(c S3Client) S3Option {
	return func(o *s3Options) { o.client = c }
}

func NewS3(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, errors.New("media: s3 bucket and region are required")
	}

	var o s3Options
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("media: load aws config: %w", err)
		}
		client = s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3{client: client, bucket: cfg.Bucket, baseURL: s3BaseURL(cfg)}, nil
}

func s3BaseURL(cfg S3Config) string {
	switch {
	case cfg.BaseURL != "":
		return strings.TrimSuffix(cfg.BaseURL, "/")
	case cfg.Endpoint != "" && cfg.ForcePathStyle:
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		return strings.TrimSuffix(cfg.Endpoint, "/")
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

func (s *S3) Stage(ctx context.Context, u Upload) (Staged, error) {
	if u.Size == 0 {
		return Staged{}, ErrEmpty
	}
	key := newKey(u.Filename)
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	in := &s3aws.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s3StagingPrefix + key),
		Body:        u.Body,
		ContentType: aws.String(ct),
	}
	if u.Size > 0 {
		in.ContentLength = aws.Int64(u.Size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return Staged{}, classifyS3Error(err, "stage")
	}
	return Staged{Key: key, Filename: u.Filename, ContentType: ct, Size: u.Size}, nil
}

func (s *S3) Commit(ctx context.Context, st Staged) (string, error) {
	if !ValidKey(st.Key) {
		return "", ErrInvalidKey
	}
	_, err := s.client.CopyObject(ctx, &s3aws.CopyObjectInput{
		Bucket:     aws.String(s.bucket),
		CopySource: aws.String(s.bucket + "/" + s3StagingPrefix + st.Key),
		Key:        aws.String(s3MediaPrefix + st.Key),
	})
	if err != nil {
		return "", classifyS3Error(err, "commit")
	}
	// The copy is authoritative; a leftover staged object is swept later.
	_ = s.deleteObject(ctx, s3StagingPrefix+st.Key)
	return st.Key, nil
}

func (s *S3) Discard(ctx context.Context, st Staged) error {
	if !ValidKey(st.Key) {
		return ErrInvalidKey
	}
	return s.deleteObject(ctx, s3StagingPrefix+st.Key)
}

func (s *S3) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrInvalidKey
	}
	return s.deleteObject(ctx, s3MediaPrefix+key)
}

func (s *S3) deleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err = classifyS3Error(err, "delete"); errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *S3) Sweep(ctx context.Context, before time.Time) (int, error) {
	var stale []types.ObjectIdentifier
	in := &s3aws.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s3StagingPrefix),
	}
	for {
		page, err := s.client.ListObjectsV2(ctx, in)
		if err != nil {
			return 0, classifyS3Error(err, "list staging")
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(before) {
				stale = append(stale, types.ObjectIdentifier{Key: obj.Key})
			}
		}
		if !aws.ToBool(page.IsTruncated) || page.NextContinuationToken == nil {
			break
		}
		in.ContinuationToken = page.NextContinuationToken
	}

	// DeleteObjects accepts at most 1000 keys.
	const batch = 1000
	var removed int
	for start := 0; start < len(stale); start += batch {
		end := min(start+batch, len(stale))
		_, err := s.client.DeleteObjects(ctx, &s3aws.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: stale[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return removed, classifyS3Error(err, "sweep")
		}
		removed += end - start
	}
	return removed, nil
}

func (s *S3) URL(key string) string {
	return s.baseURL + "/" + s3MediaPrefix + key
}

func classifyS3Error(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("media: s3 %s: %w", op, err)
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("media: s3 %s: %w", op, ErrNotFound)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("media: s3 %s: %w", op, ErrNotFound)
		default:
			return fmt.Errorf("media: s3 %s failed (code: %s): %w", op, apiErr.ErrorCode(), err)
		}
	}
	return fmt.Errorf("media: s3 %s: %w", op, err)
}
