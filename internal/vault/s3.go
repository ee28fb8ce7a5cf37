package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"wombatdb/internal/config"
	"wombatdb/internal/wombat"
)

const defaultS3Timeout = 5 * time.Minute

// s3API is the part of the S3 client the vault uses.
type s3API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Vault stores archives in an S3 bucket:
//
//	<prefix>/<storeID>.db       (encrypted store archive)
//	<prefix>/<storeID>.version  (highest revision id in the archive)
type S3Vault struct {
	client  s3API
	bucket  string
	prefix  string
	timeout time.Duration
}

// NewS3Vault creates an S3 vault from cfg. Credentials come from the default
// AWS chain unless cfg carries a static key pair. A custom endpoint switches
// to path-style addressing for S3-compatible stores.
func NewS3Vault(cfg config.VaultConfig) (*S3Vault, error) {
	if strings.TrimSpace(cfg.S3Bucket) == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	timeout := defaultS3Timeout
	if cfg.S3Timeout != "" {
		d, err := time.ParseDuration(cfg.S3Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid s3_timeout value: %w", err)
		}
		timeout = d
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, "")),
		))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Vault(client, cfg.S3Bucket, cfg.S3Prefix, timeout), nil
}

func newS3Vault(client s3API, bucket, prefix string, timeout time.Duration) *S3Vault {
	return &S3Vault{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		timeout: timeout,
	}
}

// PutArchive uploads the archive for storeID, then its version marker.
func (v *S3Vault) PutArchive(storeID string, r io.Reader, size int64, version int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	counter := &countingReader{r: r}
	if err := v.upload(ctx, v.archiveKey(storeID), counter); err != nil {
		return err
	}
	if counter.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}

	return v.upload(ctx, v.versionKey(storeID), strings.NewReader(strconv.FormatInt(version, 10)))
}

// GetArchiveVersion returns the archive version for storeID.
// Returns 0 if no version object exists.
func (v *S3Vault) GetArchiveVersion(storeID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	var sb strings.Builder
	if err := v.download(ctx, v.versionKey(storeID), &sb); err != nil {
		if errors.Is(err, ErrArchiveNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version object: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(sb.String()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetArchive writes the archive for storeID to w.
func (v *S3Vault) GetArchive(storeID string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := v.download(ctx, v.archiveKey(storeID), w); err != nil {
		if errors.Is(err, ErrArchiveNotFound) {
			return fmt.Errorf("%w for store: %s", ErrArchiveNotFound, storeID)
		}
		return err
	}
	return nil
}

// ValidateSetup checks that the bucket exists and is reachable.
func (v *S3Vault) ValidateSetup() error {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if _, err := v.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(v.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

func (v *S3Vault) upload(ctx context.Context, key string, r io.Reader) error {
	uploader := manager.NewUploader(v.client)

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			return fmt.Errorf("multi-upload failure (upload_id: %s): %w", mu.UploadID(), mu)
		}
		return fmt.Errorf("upload failure for %s: %w", key, err)
	}
	return nil
}

func (v *S3Vault) download(ctx context.Context, key string, w io.Writer) error {
	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return ErrArchiveNotFound
		}
		return fmt.Errorf("failed to get %s from s3: %w", key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	return nil
}

func (v *S3Vault) archiveKey(storeID string) string {
	return path.Join(v.prefix, storeID+".db")
}

func (v *S3Vault) versionKey(storeID string) string {
	return path.Join(v.prefix, storeID+".version")
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that S3Vault implements wombat.Vault interface
var _ wombat.Vault = (*S3Vault)(nil)
