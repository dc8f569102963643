package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config locates topic objects in a bucket.
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Source reads topics stored as "<prefix>/<topic>.md" objects.
type S3Source struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Source builds an S3 client from the default AWS credential chain, with
// optional static credentials and a custom endpoint for S3-compatible stores.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, &TransportError{Source: "s3", Cause: errors.New("bucket is required")}
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &TransportError{Source: "s3", Cause: fmt.Errorf("loading aws config: %w", err)}
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return newS3Source(s3.NewFromConfig(awsCfg, s3Opts...), cfg), nil
}

func newS3Source(client s3API, cfg S3Config) *S3Source {
	return &S3Source{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

// Name identifies the source in logs.
func (s *S3Source) Name() string {
	return "s3://" + s.bucket
}

func (s *S3Source) key(topic Topic) string {
	if s.prefix == "" {
		return topic.Filename()
	}
	return path.Join(s.prefix, topic.Filename())
}

// Read downloads the topic object.
func (s *S3Source) Read(ctx context.Context, topic Topic) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(topic)),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			err = ErrNotFound
		}
		return "", &TransportError{Source: s.Name(), Topic: topic, Cause: err}
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", &TransportError{Source: s.Name(), Topic: topic, Cause: fmt.Errorf("reading object body: %w", err)}
	}
	return string(data), nil
}

// Write uploads topic content, replacing any existing object.
func (s *S3Source) Write(ctx context.Context, topic Topic, content string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(topic)),
		Body:        strings.NewReader(content),
		ContentType: aws.String("text/markdown; charset=utf-8"),
	})
	if err != nil {
		return &TransportError{Source: s.Name(), Topic: topic, Cause: fmt.Errorf("s3 upload: %w", err)}
	}
	return nil
}
