// Package connector defines the capability contracts every storage and
// hosting backend must satisfy, plus the registry callers use to resolve
// one. Callers depend only on these interfaces, so new backends (object
// storage, git-backed repositories, FTP) slot in without touching calling
// code.
package connector

import (
	"context"
	"encoding/json"

	"github.com/sitekit/sitekit/internal/jobs"
	"github.com/sitekit/sitekit/internal/website"
)

// Type distinguishes the two connector contracts.
type Type string

const (
	TypeStorage Type = "STORAGE"
	TypeHosting Type = "HOSTING"
)

// Info is the descriptive surface every connector provides for UI display.
type Info interface {
	// ID uniquely identifies the connector, e.g. "fs-storage".
	ID() string

	// Type reports whether this is a storage or hosting connector.
	Type() Type

	// DisplayName is the human-readable name shown in the editor.
	DisplayName() string

	// Icon is a URL or data URI for the connector icon.
	Icon() string

	// Color and Background style the connector in the editor UI.
	Color() string
	Background() string

	// DisableLogout hides the logout button for connectors without
	// real authentication.
	DisableLogout() bool
}

// Connector is the surface common to storage and hosting connectors:
// identity plus the authentication shape. Backends without authentication
// (like the filesystem connectors) implement the auth methods as no-ops.
type Connector interface {
	Info

	// IsLoggedIn reports whether the session is authenticated against
	// this connector. Always true for connectors without auth.
	IsLoggedIn(ctx context.Context, sess *Session) (bool, error)

	// OAuthURL returns the URL that starts the OAuth flow, or "" when the
	// connector uses basic auth or no auth at all.
	OAuthURL(ctx context.Context, sess *Session) (string, error)

	// SetToken stores authentication material in the session, typically
	// after an OAuth callback or form submission.
	SetToken(ctx context.Context, sess *Session, token json.RawMessage) error

	// Logout clears this connector's auth state from the session.
	Logout(ctx context.Context, sess *Session) error

	// User describes the authenticated user.
	User(ctx context.Context, sess *Session) (*User, error)

	// Options extracts connector-specific settings from submitted form data.
	Options(form json.RawMessage) Options
}

// StorageConnector persists website documents, metadata and assets.
type StorageConnector interface {
	Connector

	// ListWebsites returns metadata for every website the session can see.
	ListWebsites(ctx context.Context, sess *Session) ([]*website.Meta, error)

	// ReadWebsite loads a website's full document.
	ReadWebsite(ctx context.Context, sess *Session, websiteID string) (*website.Data, error)

	// CreateWebsite allocates a new website with default content and
	// returns its generated id.
	CreateWebsite(ctx context.Context, sess *Session, meta *website.MetaFileContent) (string, error)

	// UpdateWebsite replaces a website's document.
	UpdateWebsite(ctx context.Context, sess *Session, websiteID string, data *website.Data) error

	// DeleteWebsite removes a website and everything stored under it.
	DeleteWebsite(ctx context.Context, sess *Session, websiteID string) error

	// DuplicateWebsite copies a website under a new generated id and
	// returns that id.
	DuplicateWebsite(ctx context.Context, sess *Session, websiteID string) (string, error)

	// WriteAssets stores uploaded files and returns their stored paths.
	WriteAssets(ctx context.Context, sess *Session, websiteID string, files []website.File) ([]string, error)

	// ReadAsset returns a stored asset's bytes, or a NotFoundError.
	ReadAsset(ctx context.Context, sess *Session, websiteID, fileName string) ([]byte, error)

	// WebsiteMeta returns a website's metadata.
	WebsiteMeta(ctx context.Context, sess *Session, websiteID string) (*website.Meta, error)

	// SetWebsiteMeta replaces a website's metadata.
	SetWebsiteMeta(ctx context.Context, sess *Session, websiteID string, meta *website.MetaFileContent) error
}

// HostingConnector publishes a built file set so the website becomes
// reachable.
type HostingConnector interface {
	Connector

	// Publish writes the file set to the hosting target, tracking progress
	// in a job opened on the given manager. The returned job carries the
	// full per-file log; the registry copy only reflects terminal state.
	Publish(ctx context.Context, sess *Session, websiteID string, files []website.File, jm *jobs.Manager) (*jobs.Job, error)

	// URL returns where the published website is expected to be reachable.
	// It does not check that anything has been published yet.
	URL(ctx context.Context, sess *Session, websiteID string) (string, error)
}

// Data describes a connector to the frontend.
type Data struct {
	ConnectorID   string `json:"connectorId"`
	Type          Type   `json:"type"`
	DisplayName   string `json:"displayName"`
	Icon          string `json:"icon"`
	DisableLogout bool   `json:"disableLogout"`
	IsLoggedIn    bool   `json:"isLoggedIn"`
	OAuthURL      string `json:"oauthUrl,omitempty"`
	Color         string `json:"color"`
	Background    string `json:"background"`
}

// User describes the authenticated user behind a connector session.
type User struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	Storage *Data  `json:"storage"`
}

// Options are connector-specific settings submitted with a website, stored
// in its metadata.
type Options struct {
	WebsiteURL string                     `json:"websiteUrl,omitempty"`
	Extra      map[string]json.RawMessage `json:"-"`
}

// ToData builds the frontend descriptor for a connector and session.
func ToData(ctx context.Context, sess *Session, c Connector) (*Data, error) {
	loggedIn, err := c.IsLoggedIn(ctx, sess)
	if err != nil {
		return nil, err
	}
	oauthURL, err := c.OAuthURL(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &Data{
		ConnectorID:   c.ID(),
		Type:          c.Type(),
		DisplayName:   c.DisplayName(),
		Icon:          c.Icon(),
		DisableLogout: c.DisableLogout(),
		IsLoggedIn:    loggedIn,
		OAuthURL:      oauthURL,
		Color:         c.Color(),
		Background:    c.Background(),
	}, nil
}
