package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"

	"careerpath-backend/internal/shared/storage/object"
	"careerpath-backend/internal/shared/telemetry"
	"careerpath-backend/internal/shared/util"
)

const (
	backendName       = "s3"
	defaultRegion     = "us-east-1"
	defaultPresignTTL = 15 * time.Minute
)

// Config describes the cloud account the store talks to.
type Config struct {
	// Account names the storage account; buckets are "<account>-<category>".
	Account string
	Region  string
	// Endpoint targets an S3-compatible service and switches to path-style URLs.
	Endpoint string
	// UseManagedIdentity restricts authentication to the ambient credential chain.
	UseManagedIdentity bool
	AccessKeyID        string
	SecretAccessKey    string
	PresignTTL         time.Duration
}

// Store implements object.Store on top of S3 buckets, one bucket per category.
type Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	account    string
	region     string
	endpoint   string
	presignTTL time.Duration

	mu      sync.Mutex
	ensured map[object.Category]bool
}

// New loads AWS configuration and creates the store. Buckets are created lazily.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Account) == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	switch {
	case cfg.UseManagedIdentity:
		telemetry.Info("storage.auth", map[string]any{"backend": backendName, "mode": "managed_identity"})
	case cfg.AccessKeyID != "" && cfg.SecretAccessKey != "":
		telemetry.Info("storage.auth", map[string]any{"backend": backendName, "mode": "static_keys"})
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	default:
		telemetry.Info("storage.auth", map[string]any{"backend": backendName, "mode": "default_chain"})
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	cfg.Region = region
	return NewFromAWSConfig(awsCfg, cfg)
}

// NewFromAWSConfig builds the store from an already loaded aws.Config.
func NewFromAWSConfig(awsCfg aws.Config, cfg Config) (*Store, error) {
	account := strings.ToLower(strings.TrimSpace(cfg.Account))
	if account == "" {
		return nil, fmt.Errorf("storage account name is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = awsCfg.Region
	}
	if region == "" {
		region = defaultRegion
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.Region = region
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = defaultPresignTTL
	}

	return &Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		account:    account,
		region:     region,
		endpoint:   endpoint,
		presignTTL: ttl,
		ensured:    make(map[object.Category]bool),
	}, nil
}

// Backend reports the backend name.
func (s *Store) Backend() string { return backendName }

// Save uploads data into the category bucket and returns the object URL.
func (s *Store) Save(ctx context.Context, category object.Category, fileName string, data []byte) (object.Locator, error) {
	if err := object.CheckCategory(category); err != nil {
		return "", err
	}
	key, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", object.Wrap("save", category, fmt.Errorf("sanitize file name: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return "", object.Wrap("save", category, err)
	}
	if err := s.ensureBucket(ctx, category); err != nil {
		return "", object.Wrap("save", category, err)
	}

	bucket := s.bucketName(category)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(mimetype.Detect(data).String()),
	}
	if s.endpoint == "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", object.Wrap("save", category, fmt.Errorf("s3 put object bucket=%s key=%s: %w", bucket, key, err))
	}

	loc := object.Locator(s.objectURL(bucket, key))
	telemetry.Info("storage.saved", map[string]any{
		"backend":    backendName,
		"category":   string(category),
		"bucket":     bucket,
		"key":        key,
		"size_bytes": len(data),
	})
	return loc, nil
}

// Read downloads the object behind loc.
func (s *Store) Read(ctx context.Context, loc object.Locator) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, object.Wrap("read", "", err)
	}
	category, key, err := s.parse(loc)
	if err != nil {
		return nil, object.Wrap("read", "", err)
	}
	bucket := s.bucketName(category)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, object.Wrap("read", category, fmt.Errorf("%w: %s", object.ErrNotFound, loc))
		}
		return nil, object.Wrap("read", category, fmt.Errorf("s3 get object bucket=%s key=%s: %w", bucket, key, err))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, object.Wrap("read", category, fmt.Errorf("s3 read body bucket=%s key=%s: %w", bucket, key, err))
	}
	return data, nil
}

// Delete removes the object behind loc. S3 deletes are idempotent, so the
// object is probed first to report ErrNotFound.
func (s *Store) Delete(ctx context.Context, loc object.Locator) error {
	if err := ctx.Err(); err != nil {
		return object.Wrap("delete", "", err)
	}
	category, key, err := s.parse(loc)
	if err != nil {
		return object.Wrap("delete", "", err)
	}
	bucket := s.bucketName(category)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isNotFound(err) {
			return object.Wrap("delete", category, fmt.Errorf("%w: %s", object.ErrNotFound, loc))
		}
		return object.Wrap("delete", category, fmt.Errorf("s3 head object bucket=%s key=%s: %w", bucket, key, err))
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return object.Wrap("delete", category, fmt.Errorf("s3 delete object bucket=%s key=%s: %w", bucket, key, err))
	}
	telemetry.Info("storage.deleted", map[string]any{
		"backend":  backendName,
		"category": string(category),
		"bucket":   bucket,
		"key":      key,
	})
	return nil
}

// PresignGet returns a time-limited download URL for loc.
func (s *Store) PresignGet(ctx context.Context, loc object.Locator, downloadName string) (string, error) {
	category, key, err := s.parse(loc)
	if err != nil {
		return "", object.Wrap("presign", "", err)
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName(category)),
		Key:    aws.String(key),
	}
	if name := strings.TrimSpace(downloadName); name != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", name))
	}
	out, err := s.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", object.Wrap("presign", category, err)
	}
	return out.URL, nil
}

// ensureBucket creates the category bucket on first use.
func (s *Store) ensureBucket(ctx context.Context, category object.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured[category] {
		return nil
	}

	bucket := s.bucketName(category)
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		s.ensured[category] = true
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("s3 head bucket bucket=%s: %w", bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	if s.endpoint == "" && s.region != defaultRegion {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		var owned *s3types.BucketAlreadyOwnedByYou
		if !errors.As(err, &owned) {
			return fmt.Errorf("s3 create bucket bucket=%s: %w", bucket, err)
		}
	} else {
		telemetry.Info("storage.bucket.created", map[string]any{"backend": backendName, "bucket": bucket})
	}
	s.ensured[category] = true
	return nil
}

func (s *Store) bucketName(category object.Category) string {
	return s.account + "-" + string(category)
}

func (s *Store) objectURL(bucket, key string) string {
	escaped := url.PathEscape(key)
	if s.endpoint != "" {
		return s.endpoint + "/" + bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, escaped)
}

// parse maps an object URL back onto (category, key).
func (s *Store) parse(loc object.Locator) (object.Category, string, error) {
	raw := strings.TrimSpace(loc.String())
	for _, category := range object.Categories {
		prefix := s.objectURL(s.bucketName(category), "")
		if !strings.HasPrefix(raw, prefix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimPrefix(raw, prefix))
		if err != nil || key == "" || strings.Contains(key, "/") {
			return "", "", fmt.Errorf("%w: %s", object.ErrInvalidLocator, raw)
		}
		return category, key, nil
	}
	return "", "", fmt.Errorf("%w: %s", object.ErrInvalidLocator, raw)
}

func isNotFound(err error) bool {
	var (
		notFound     *s3types.NotFound
		noSuchKey    *s3types.NoSuchKey
		noSuchBucket *s3types.NoSuchBucket
	)
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchBucket":
			return true
		}
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return false
}

var _ object.Store = (*Store)(nil)
