package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/sitekit/sitekit/internal/connector"
	"github.com/sitekit/sitekit/internal/jobs"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/website"
)

// Hosting implements connector.HostingConnector on the local filesystem.
// Each site publishes to {dataPath}/{websiteId}/public by default; when a
// shared hosting path is configured, every site publishes there instead.
type Hosting struct {
	dataPath    string
	hostingPath string
}

// NewHosting creates a filesystem hosting connector. hostingPath may be
// empty, in which case each website gets its own publish directory under
// the data root.
func NewHosting(dataPath, hostingPath string) *Hosting {
	return &Hosting{
		dataPath:    dataPath,
		hostingPath: hostingPath,
	}
}

func (h *Hosting) publishDir(websiteID string) string {
	if h.hostingPath != "" {
		return h.hostingPath
	}
	return filepath.Join(h.dataPath, websiteID, "public")
}

// Init creates the shared hosting directory with its standard
// subdirectories. Per-site directories are created on publish instead.
func (h *Hosting) Init(ctx context.Context) error {
	if h.hostingPath == "" {
		return nil
	}
	if _, err := os.Stat(h.hostingPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(h.hostingPath, "assets"), 0755); err != nil {
		return fmt.Errorf("create hosting dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(h.hostingPath, "css"), 0755); err != nil {
		return fmt.Errorf("create hosting dir: %w", err)
	}

	logging.Info("created hosting directory", logging.String("path", h.hostingPath))
	return nil
}

// Connector identity.

func (h *Hosting) ID() string           { return "fs-hosting" }
func (h *Hosting) Type() connector.Type { return connector.TypeHosting }
func (h *Hosting) DisplayName() string  { return "File system hosting" }
func (h *Hosting) Icon() string         { return fileIcon }
func (h *Hosting) Color() string        { return "#ffffff" }
func (h *Hosting) Background() string   { return "#006400" }
func (h *Hosting) DisableLogout() bool  { return true }

// Authentication no-ops, same as the storage connector.

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
		Picture: userIcon,
		Storage: data,
	}, nil
}

func (h *Hosting) Options(form json.RawMessage) connector.Options {
	return connector.Options{}
}

// Publication.

// Publish writes the file set to the publish directory, tracking progress
// in a new job. Per-file progress lands in the returned job copy; the
// registry only sees the initial message until the terminal update.
func (h *Hosting) Publish(ctx context.Context, sess *connector.Session, websiteID string, files []website.File, jm *jobs.Manager) (*jobs.Job, error) {
	targetDir := h.publishDir(websiteID)
	start := time.Now()

	job := jm.Start(fmt.Sprintf("Publishing to %s", h.DisplayName()))
	job.Log(fmt.Sprintf("Publishing %d files to %s", len(files), targetDir))

	if err := writeFiles(targetDir, files, job); err != nil {
		job.Fail(fmt.Sprintf("Publication failed: %s", err))
		jm.Fail(job.JobID, err.Error())
		metrics.RecordPublish(h.ID(), time.Since(start), false)
		return job, nil
	}

	job.Succeed(fmt.Sprintf("Published %d files to %s", len(files), targetDir))
	jm.Complete(job.JobID)
	metrics.RecordPublish(h.ID(), time.Since(start), true)
	return job, nil
}

// writeFiles writes each file under targetDir in order. The first failure
// stops the loop; files already written stay on disk.
func writeFiles(targetDir string, files []website.File, job *jobs.Job) error {
	for _, f := range files {
		rel := strings.TrimLeft(f.Path, "/")
		target := filepath.Join(targetDir, filepath.FromSlash(rel))

		job.Message = fmt.Sprintf("Writing %s", rel)
		job.Log(fmt.Sprintf("Writing: %s", rel))

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create dirs for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, f.Content, 0644); err != nil {
			job.AddError(fmt.Sprintf("Error writing %s: %s", rel, err))
			logging.Error("publish write failed",
				logging.String("file", rel),
				logging.Err(err))
			return fmt.Errorf("write %s: %w", rel, err)
		}

		job.Log(fmt.Sprintf("Success: %s", rel))
		metrics.RecordPublishFile()
	}
	return nil
}

// URL returns the conventional entry document location for the publish
// directory. It does not check that the site has been published.
func (h *Hosting) URL(ctx context.Context, sess *connector.Session, websiteID string) (string, error) {
	return "file://" + filepath.ToSlash(filepath.Join(h.publishDir(websiteID), "index.html")), nil
}
