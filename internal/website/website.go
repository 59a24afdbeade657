// Package website defines the data model for editable websites: the main
// document, its metadata, and the file unit used for asset and publish I/O.
package website

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	// DataFile is the main document file inside a website directory.
	DataFile = "website.json"

	// MetaFile is the metadata file inside a website directory.
	MetaFile = "meta.json"

	// DefaultPagesFolder is where page files are stored for new sites.
	DefaultPagesFolder = "pages"

	// LegacyPagesFolder is used when the document carries no pagesFolder,
	// for sites created before the folder became configurable.
	LegacyPagesFolder = "src"
)

// Data is the full editable document stored in website.json. Pages, assets,
// styles, fonts and symbols are opaque editor documents; the server never
// interprets them beyond the page id/name needed for file naming.
type Data struct {
	Pages       []json.RawMessage `json:"pages"`
	PagesFolder string            `json:"pagesFolder,omitempty"`
	Assets      []json.RawMessage `json:"assets"`
	Styles      []json.RawMessage `json:"styles"`
	Settings    json.RawMessage   `json:"settings,omitempty"`
	Fonts       []json.RawMessage `json:"fonts"`
	Symbols     []json.RawMessage `json:"symbols"`
	Publication json.RawMessage   `json:"publication,omitempty"`
}

// DefaultData returns the document for a newly created website: a single
// empty page (the editor expects one to exist) and the default pages folder.
func DefaultData() *Data {
	return &Data{
		Pages:       []json.RawMessage{json.RawMessage(`{}`)},
		PagesFolder: DefaultPagesFolder,
		Assets:      []json.RawMessage{},
		Styles:      []json.RawMessage{},
		Settings:    json.RawMessage(`{}`),
		Fonts:       []json.RawMessage{},
		Symbols:     []json.RawMessage{},
		Publication: json.RawMessage(`{}`),
	}
}

// MetaFileContent is what gets persisted in meta.json.
type MetaFileContent struct {
	Name                  string                     `json:"name"`
	ImageURL              string                     `json:"imageUrl,omitempty"`
	ConnectorUserSettings map[string]json.RawMessage `json:"connectorUserSettings"`
}

// Meta is website metadata as returned to callers. Timestamps come from the
// website directory itself, not from the file content.
type Meta struct {
	WebsiteID             string                     `json:"websiteId"`
	Name                  string                     `json:"name"`
	ImageURL              string                     `json:"imageUrl,omitempty"`
	ConnectorUserSettings map[string]json.RawMessage `json:"connectorUserSettings"`
	CreatedAt             *time.Time                 `json:"createdAt,omitempty"`
	UpdatedAt             *time.Time                 `json:"updatedAt,omitempty"`
}

// MetaFromFileContent combines persisted metadata with the id and directory
// timestamps.
func MetaFromFileContent(websiteID string, content *MetaFileContent, createdAt, updatedAt *time.Time) *Meta {
	return &Meta{
		WebsiteID:             websiteID,
		Name:                  content.Name,
		ImageURL:              content.ImageURL,
		ConnectorUserSettings: content.ConnectorUserSettings,
		CreatedAt:             createdAt,
		UpdatedAt:             updatedAt,
	}
}

// File is the unit of I/O for asset uploads and publication: a path relative
// to the website or publish root, plus raw content.
type File struct {
	Path    string
	Content []byte
}

// CanonicalJSON serializes v as pretty-printed JSON with object keys sorted
// at every nesting level, so repeated writes of the same data are
// byte-identical and diff-friendly. The round trip through an untyped value
// relies on encoding/json emitting map keys in sorted order; numbers are
// decoded as json.Number so 64-bit integers survive the round trip intact.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var untyped any
	if err := dec.Decode(&untyped); err != nil {
		return nil, err
	}
	return json.MarshalIndent(untyped, "", "  ")
}
