package connector

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sitekit/sitekit/internal/jobs"
	"github.com/sitekit/sitekit/internal/website"
)

// fakeConnector implements the shared Connector surface for registry tests.
type fakeConnector struct {
	id  string
	typ Type
}

func (f *fakeConnector) ID() string          { return f.id }
func (f *fakeConnector) Type() Type          { return f.typ }
func (f *fakeConnector) DisplayName() string { return f.id }
func (f *fakeConnector) Icon() string        { return "" }
func (f *fakeConnector) Color() string       { return "" }
func (f *fakeConnector) Background() string  { return "" }
func (f *fakeConnector) DisableLogout() bool { return true }

func (f *fakeConnector) IsLoggedIn(ctx context.Context, sess *Session) (bool, error) {
	return true, nil
}

func (f *fakeConnector) OAuthURL(ctx context.Context, sess *Session) (string, error) {
	return "", nil
}

func (f *fakeConnector) SetToken(ctx context.Context, sess *Session, token json.RawMessage) error {
	return nil
}

func (f *fakeConnector) Logout(ctx context.Context, sess *Session) error { return nil }

func (f *fakeConnector) User(ctx context.Context, sess *Session) (*User, error) {
	return &User{Name: f.id}, nil
}

func (f *fakeConnector) Options(form json.RawMessage) Options { return Options{} }

type fakeStorage struct{ fakeConnector }

func newFakeStorage(id string) *fakeStorage {
	return &fakeStorage{fakeConnector{id: id, typ: TypeStorage}}
}

func (f *fakeStorage) ListWebsites(ctx context.Context, sess *Session) ([]*website.Meta, error) {
	return nil, nil
}

func (f *fakeStorage) ReadWebsite(ctx context.Context, sess *Session, websiteID string) (*website.Data, error) {
	return nil, nil
}

func (f *fakeStorage) CreateWebsite(ctx context.Context, sess *Session, meta *website.MetaFileContent) (string, error) {
	return "", nil
}

func (f *fakeStorage) UpdateWebsite(ctx context.Context, sess *Session, websiteID string, data *website.Data) error {
	return nil
}

func (f *fakeStorage) DeleteWebsite(ctx context.Context, sess *Session, websiteID string) error {
	return nil
}

func (f *fakeStorage) DuplicateWebsite(ctx context.Context, sess *Session, websiteID string) (string, error) {
	return "", nil
}

func (f *fakeStorage) WriteAssets(ctx context.Context, sess *Session, websiteID string, files []website.File) ([]string, error) {
	return nil, nil
}

func (f *fakeStorage) ReadAsset(ctx context.Context, sess *Session, websiteID, fileName string) ([]byte, error) {
	return nil, nil
}

func (f *fakeStorage) WebsiteMeta(ctx context.Context, sess *Session, websiteID string) (*website.Meta, error) {
	return nil, nil
}

func (f *fakeStorage) SetWebsiteMeta(ctx context.Context, sess *Session, websiteID string, meta *website.MetaFileContent) error {
	return nil
}

type fakeHosting struct{ fakeConnector }

func newFakeHosting(id string) *fakeHosting {
	return &fakeHosting{fakeConnector{id: id, typ: TypeHosting}}
}

func (f *fakeHosting) Publish(ctx context.Context, sess *Session, websiteID string, files []website.File, jm *jobs.Manager) (*jobs.Job, error) {
	return nil, nil
}

func (f *fakeHosting) URL(ctx context.Context, sess *Session, websiteID string) (string, error) {
	return "", nil
}

func TestRegistryLookupByID(t *testing.T) {
	r := NewRegistry()
	r.RegisterStorage(newFakeStorage("fs-storage"))
	r.RegisterStorage(newFakeStorage("s3-storage"))
	r.RegisterHosting(newFakeHosting("fs-hosting"))

	c, ok := r.Storage("s3-storage")
	if !ok {
		t.Fatal("expected to find s3-storage")
	}
	if c.ID() != "s3-storage" {
		t.Errorf("expected s3-storage, got %s", c.ID())
	}

	h, ok := r.Hosting("fs-hosting")
	if !ok || h.ID() != "fs-hosting" {
		t.Errorf("expected fs-hosting, got %v %v", h, ok)
	}

	if _, ok := r.Storage("unknown"); ok {
		t.Error("expected lookup miss for unknown id")
	}
	if _, ok := r.Hosting("fs-storage"); ok {
		t.Error("storage ids must not resolve as hosting connectors")
	}
}

func TestRegistryDefaultIsFirstRegistered(t *testing.T) {
	r := NewRegistry()
	r.RegisterStorage(newFakeStorage("first"))
	r.RegisterStorage(newFakeStorage("second"))

	c, ok := r.StorageOrDefault("")
	if !ok || c.ID() != "first" {
		t.Errorf("expected first registered connector as default, got %v %v", c, ok)
	}

	c, ok = r.StorageOrDefault("second")
	if !ok || c.ID() != "second" {
		t.Errorf("expected explicit id to win, got %v %v", c, ok)
	}
}

func TestRegistryEmptyDefault(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.StorageOrDefault(""); ok {
		t.Error("empty registry must not resolve a default storage connector")
	}
	if _, ok := r.HostingOrDefault(""); ok {
		t.Error("empty registry must not resolve a default hosting connector")
	}
}

func TestRegistryDuplicateIDFirstMatchWins(t *testing.T) {
	r := NewRegistry()
	first := newFakeStorage("dup")
	second := newFakeStorage("dup")
	r.RegisterStorage(first)
	r.RegisterStorage(second)

	c, ok := r.Storage("dup")
	if !ok {
		t.Fatal("expected to find dup")
	}
	if c.(*fakeStorage) != first {
		t.Error("expected the earlier registration to win id lookup")
	}

	if got := len(r.StorageConnectors()); got != 2 {
		t.Errorf("both registrations stay listed, got %d", got)
	}
}

func TestRegistryListingsAreCopies(t *testing.T) {
	r := NewRegistry()
	r.RegisterStorage(newFakeStorage("a"))

	list := r.StorageConnectors()
	list[0] = newFakeStorage("tampered")

	c, ok := r.Storage("a")
	if !ok || c.ID() != "a" {
		t.Error("mutating a returned listing must not affect the registry")
	}
}
