// Package s3 provides a hosting connector that publishes to an
// S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/user"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sitekit/sitekit/internal/connector"
	"github.com/sitekit/sitekit/internal/jobs"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/website"
)

const cloudIcon = "/assets/cloud.png"

// Config holds S3 connection settings.
type Config struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Region    string `json:"region"`
	// PublicURL is where the bucket content is served from (website
	// endpoint or CDN). Used by URL.
	PublicURL string `json:"public_url"`
}

// Hosting implements connector.HostingConnector against an S3-compatible
// bucket. Every site publishes under its own {websiteId}/ key prefix.
type Hosting struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewHosting creates an S3 hosting connector and verifies the bucket.
func NewHosting(ctx context.Context, cfg Config) (*Hosting, error) {
	if cfg.Bucket == "" {
		return nil, connector.NewInvalidInput("s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	h := &Hosting{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}

	if err := h.ensureBucket(ctx); err != nil {
		logging.Error("bucket check failed", logging.Err(err))
	}

	return h, nil
}

// NewHostingFromJSON creates a Hosting from raw JSON config.
func NewHostingFromJSON(ctx context.Context, raw json.RawMessage) (*Hosting, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse s3 config: %w", err)
	}
	return NewHosting(ctx, cfg)
}

func (h *Hosting) ensureBucket(ctx context.Context) error {
	start := time.Now()
	_, err := h.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(h.bucket),
	})
	if err != nil {
		_, createErr := h.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(h.bucket),
		})
		if createErr != nil {
			metrics.RecordS3Operation("create_bucket", time.Since(start), false)
			return fmt.Errorf("bucket %s does not exist and cannot create: %w", h.bucket, createErr)
		}
		metrics.RecordS3Operation("create_bucket", time.Since(start), true)
		logging.Info("created S3 bucket", logging.String("bucket", h.bucket))
	}
	return nil
}

// Connector identity.

func (h *Hosting) ID() string           { return "s3-hosting" }
func (h *Hosting) Type() connector.Type { return connector.TypeHosting }
func (h *Hosting) DisplayName() string  { return "S3 hosting" }
func (h *Hosting) Icon() string         { return cloudIcon }
func (h *Hosting) Color() string        { return "#ffffff" }
func (h *Hosting) Background() string   { return "#232f3e" }
func (h *Hosting) DisableLogout() bool  { return true }

// Authentication. Credentials come from server configuration, not from the
// session, so the connector reports logged-in whenever it was constructed.

func (h *Hosting) IsLoggedIn(ctx context.Context, sess *connector.Session) (bool, error) {
	return true, nil
}

func (h *Hosting) OAuthURL(ctx context.Context, sess *connector.Session) (string, error) {
	return "", nil
}

func (h *Hosting) SetToken(ctx context.Context, sess *connector.Session, token json.RawMessage) error {
	return nil
}

func (h *Hosting) Logout(ctx context.Context, sess *connector.Session) error {
	return nil
}

func (h *Hosting) User(ctx context.Context, sess *connector.Session) (*connector.User, error) {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	data, err := connector.ToData(ctx, sess, h)
	if err != nil {
		return nil, err
	}
	return &connector.User{
		Name:    name,
		Storage: data,
	}, nil
}

func (h *Hosting) Options(form json.RawMessage) connector.Options {
	return connector.Options{}
}

// Publication.

// Publish uploads the file set under the website's key prefix, one object
// per file, with the same job semantics as the filesystem connector: the
// first failed upload stops the loop and fails the job.
func (h *Hosting) Publish(ctx context.Context, sess *connector.Session, websiteID string, files []website.File, jm *jobs.Manager) (*jobs.Job, error) {
	prefix := websiteID + "/"
	start := time.Now()

	job := jm.Start(fmt.Sprintf("Publishing to %s", h.DisplayName()))
	job.Log(fmt.Sprintf("Publishing %d files to s3://%s/%s", len(files), h.bucket, prefix))

	if err := h.putFiles(ctx, prefix, files, job); err != nil {
		job.Fail(fmt.Sprintf("Publication failed: %s", err))
		jm.Fail(job.JobID, err.Error())
		metrics.RecordPublish(h.ID(), time.Since(start), false)
		return job, nil
	}

	job.Succeed(fmt.Sprintf("Published %d files to s3://%s/%s", len(files), h.bucket, prefix))
	jm.Complete(job.JobID)
	metrics.RecordPublish(h.ID(), time.Since(start), true)
	return job, nil
}

func (h *Hosting) putFiles(ctx context.Context, prefix string, files []website.File, job *jobs.Job) error {
	for _, f := range files {
		rel := strings.TrimLeft(f.Path, "/")
		key := prefix + rel

		job.Message = fmt.Sprintf("Writing %s", rel)
		job.Log(fmt.Sprintf("Writing: %s", rel))

		start := time.Now()
		_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(h.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(f.Content),
			ContentLength: aws.Int64(int64(len(f.Content))),
		})
		if err != nil {
			metrics.RecordS3Operation("put_object", time.Since(start), false)
			job.AddError(fmt.Sprintf("Error writing %s: %s", rel, err))
			logging.Error("publish upload failed",
				logging.String("key", key),
				logging.Err(err))
			return fmt.Errorf("put object %s: %w", key, err)
		}
		metrics.RecordS3Operation("put_object", time.Since(start), true)

		job.Log(fmt.Sprintf("Success: %s", rel))
		metrics.RecordPublishFile()
	}
	return nil
}

// URL returns the entry document location under the configured public URL,
// or a path-style bucket URL when none is configured.
func (h *Hosting) URL(ctx context.Context, sess *connector.Session, websiteID string) (string, error) {
	if h.publicURL != "" {
		return h.publicURL + "/" + websiteID + "/index.html", nil
	}
	return fmt.Sprintf("https://%s/%s/index.html", h.bucket, websiteID), nil
}
