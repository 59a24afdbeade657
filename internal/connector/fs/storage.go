// Package fs provides the reference filesystem connectors.
//
// Each website is a directory under the data root:
//
//	{dataRoot}/{websiteId}/website.json
//	{dataRoot}/{websiteId}/meta.json
//	{dataRoot}/{websiteId}/{assetsFolder}/...
//	{dataRoot}/{websiteId}/{pagesFolder}/{slug}-{id}.json
//
// The main document stores pages as references to per-page files; read and
// write go through the split/merge scheme below so a large site never sits
// in one giant file.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sitekit/sitekit/internal/connector"
	"github.com/sitekit/sitekit/internal/logging"
	"github.com/sitekit/sitekit/internal/metrics"
	"github.com/sitekit/sitekit/internal/website"
)

// Icon for the filesystem connectors (laptop icon served by the frontend).
const fileIcon = "/assets/laptop.png"

// User silhouette SVG as a data URI, shown for the local "user".
const userIcon = "data:image/svg+xml,%3Csvg xmlns='http://www.w3.org/2000/svg' height='1em' viewBox='0 0 448 512'%3E%3Cpath d='M304 128a80 80 0 1 0 -160 0 80 80 0 1 0 160 0zM96 128a128 128 0 1 1 256 0A128 128 0 1 1 96 128zM49.3 464H398.7c-8.9-63.3-63.3-112-129-112H178.3c-65.7 0-120.1 48.7-129 112zM0 482.3C0 383.8 79.8 304 178.3 304h91.4C368.2 304 448 383.8 448 482.3c0 16.4-13.3 29.7-29.7 29.7H29.7C13.3 512 0 498.7 0 482.3z'/%3E%3C/svg%3E"

// Websites whose directory tree is deeper than this are refused by
// duplication rather than walked forever.
const maxCopyDepth = 32

// Storage implements connector.StorageConnector on the local filesystem.
type Storage struct {
	dataPath     string
	assetsFolder string
}

// NewStorage creates a filesystem storage connector rooted at dataPath.
// The root is created if missing.
func NewStorage(dataPath, assetsFolder string) (*Storage, error) {
	if dataPath == "" {
		return nil, connector.NewInvalidInput("data path is required")
	}
	if assetsFolder == "" {
		return nil, connector.NewInvalidInput("assets folder is required")
	}
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("create data path %s: %w", dataPath, err)
	}
	return &Storage{
		dataPath:     dataPath,
		assetsFolder: assetsFolder,
	}, nil
}

func (s *Storage) websitePath(websiteID string) string {
	return filepath.Join(s.dataPath, websiteID)
}

func (s *Storage) dataFilePath(websiteID string) string {
	return filepath.Join(s.websitePath(websiteID), website.DataFile)
}

func (s *Storage) metaFilePath(websiteID string) string {
	return filepath.Join(s.websitePath(websiteID), website.MetaFile)
}

func (s *Storage) assetsPath(websiteID string) string {
	return filepath.Join(s.websitePath(websiteID), s.assetsFolder)
}

// Init creates a default website with the given id if it does not exist yet.
func (s *Storage) Init(ctx context.Context, defaultWebsiteID string) error {
	sess := &connector.Session{}

	if _, err := os.Stat(s.websitePath(defaultWebsiteID)); err == nil {
		return nil
	}

	if err := os.MkdirAll(s.assetsPath(defaultWebsiteID), 0755); err != nil {
		return fmt.Errorf("create website dir: %w", err)
	}

	meta := &website.MetaFileContent{
		Name:                  "Default website",
		ConnectorUserSettings: map[string]json.RawMessage{},
	}
	if err := s.SetWebsiteMeta(ctx, sess, defaultWebsiteID, meta); err != nil {
		return err
	}
	if err := s.UpdateWebsite(ctx, sess, defaultWebsiteID, website.DefaultData()); err != nil {
		return err
	}

	logging.Info("created default website",
		logging.String("website_id", defaultWebsiteID),
		logging.String("path", s.dataPath))

	return nil
}

// Connector identity.

func (s *Storage) ID() string           { return "fs-storage" }
func (s *Storage) Type() connector.Type { return connector.TypeStorage }
func (s *Storage) DisplayName() string  { return "File system storage" }
func (s *Storage) Icon() string         { return fileIcon }
func (s *Storage) Color() string        { return "#ffffff" }
func (s *Storage) Background() string   { return "#006400" }
func (s *Storage) DisableLogout() bool  { return true }

// Authentication. The filesystem connector has no auth: always logged in,
// tokens and logout are no-ops.

func (s *Storage) IsLoggedIn(ctx context.Context, sess *connector.Session) (bool, error) {
	return true, nil
}

func (s *Storage) OAuthURL(ctx context.Context, sess *connector.Session) (string, error) {
	return "", nil
}

func (s *Storage) SetToken(ctx context.Context, sess *connector.Session, token json.RawMessage) error {
	return nil
}

func (s *Storage) Logout(ctx context.Context, sess *connector.Session) error {
	return nil
}

func (s *Storage) User(ctx context.Context, sess *connector.Session) (*connector.User, error) {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	data, err := connector.ToData(ctx, sess, s)
	if err != nil {
		return nil, err
	}
	return &connector.User{
		Name:    name,
		Picture: userIcon,
		Storage: data,
	}, nil
}

func (s *Storage) Options(form json.RawMessage) connector.Options {
	return connector.Options{}
}

// Website CRUD.

// ListWebsites returns metadata for every website directory under the data
// root. Directories whose metadata cannot be read are skipped with a
// warning rather than failing the whole listing.
func (s *Storage) ListWebsites(ctx context.Context, sess *connector.Session) ([]*website.Meta, error) {
	entries, err := os.ReadDir(s.dataPath)
	if err != nil {
		return nil, fmt.Errorf("read data path %s: %w", s.dataPath, err)
	}

	websites := make([]*website.Meta, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.WebsiteMeta(ctx, sess, entry.Name())
		if err != nil {
			logging.Warn("skipping website with unreadable metadata",
				logging.String("website_id", entry.Name()),
				logging.Err(err))
			continue
		}
		websites = append(websites, meta)
	}

	metrics.RecordWebsiteOp("list", true)
	return websites, nil
}

// ReadWebsite loads the main document and merges in the per-page files.
func (s *Storage) ReadWebsite(ctx context.Context, sess *connector.Session, websiteID string) (*website.Data, error) {
	content, err := os.ReadFile(s.dataFilePath(websiteID))
	if err != nil {
		metrics.RecordWebsiteOp("read", false)
		if os.IsNotExist(err) {
			return nil, connector.NewNotFound("website '%s'", websiteID)
		}
		return nil, fmt.Errorf("read website %s: %w", websiteID, err)
	}

	data, err := s.mergeWebsiteData(websiteID, content)
	metrics.RecordWebsiteOp("read", err == nil)
	return data, err
}

// CreateWebsite allocates a fresh id, creates the directory layout, and
// writes default metadata and an empty default document through the same
// path updates take.
func (s *Storage) CreateWebsite(ctx context.Context, sess *connector.Session, meta *website.MetaFileContent) (string, error) {
	websiteID := uuid.NewString()

	if err := os.MkdirAll(s.assetsPath(websiteID), 0755); err != nil {
		metrics.RecordWebsiteOp("create", false)
		return "", fmt.Errorf("create website dir: %w", err)
	}
	if err := s.SetWebsiteMeta(ctx, sess, websiteID, meta); err != nil {
		metrics.RecordWebsiteOp("create", false)
		return "", err
	}
	if err := s.UpdateWebsite(ctx, sess, websiteID, website.DefaultData()); err != nil {
		metrics.RecordWebsiteOp("create", false)
		return "", err
	}

	metrics.RecordWebsiteOp("create", true)
	return websiteID, nil
}

// UpdateWebsite splits the document into the main file plus per-page files,
// garbage-collects page files that no longer exist, and writes everything.
func (s *Storage) UpdateWebsite(ctx context.Context, sess *connector.Session, websiteID string, data *website.Data) error {
	websitePath := s.websitePath(websiteID)

	if err := os.MkdirAll(websitePath, 0755); err != nil {
		metrics.RecordWebsiteOp("update", false)
		return fmt.Errorf("create website dir: %w", err)
	}

	files, err := splitWebsiteData(data)
	if err != nil {
		metrics.RecordWebsiteOp("update", false)
		return err
	}

	pagesFolder := pagesFolderOf(data)
	pagesPath := filepath.Join(websitePath, pagesFolder)
	pagesPrefix := pagesFolder + "/"

	// Collect the new page file names; the pages dir only needs to exist
	// when pages were actually split out.
	newPageFiles := make(map[string]struct{})
	for _, f := range files {
		if strings.HasPrefix(f.Path, pagesPrefix) {
			newPageFiles[strings.TrimPrefix(f.Path, pagesPrefix)] = struct{}{}
		}
	}
	if len(newPageFiles) > 0 {
		if err := os.MkdirAll(pagesPath, 0755); err != nil {
			metrics.RecordWebsiteOp("update", false)
			return fmt.Errorf("create pages dir: %w", err)
		}
	}

	// Delete page files for pages that were renamed or removed. Only .json
	// entries are eligible so unrelated files survive.
	if entries, err := os.ReadDir(pagesPath); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			if _, keep := newPageFiles[name]; !keep {
				if err := os.Remove(filepath.Join(pagesPath, name)); err != nil {
					logging.Warn("could not delete stale page file",
						logging.String("file", name), logging.Err(err))
				}
			}
		}
	}

	for _, f := range files {
		target := filepath.Join(websitePath, filepath.FromSlash(f.Path))
		if err := os.WriteFile(target, f.Content, 0644); err != nil {
			metrics.RecordWebsiteOp("update", false)
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}

	metrics.RecordWebsiteOp("update", true)
	return nil
}

// DeleteWebsite removes the website directory and everything under it.
func (s *Storage) DeleteWebsite(ctx context.Context, sess *connector.Session, websiteID string) error {
	path := s.websitePath(websiteID)

	if _, err := os.Stat(path); err != nil {
		metrics.RecordWebsiteOp("delete", false)
		if os.IsNotExist(err) {
			return connector.NewNotFound("website '%s'", websiteID)
		}
		return fmt.Errorf("stat website %s: %w", websiteID, err)
	}
	if err := os.RemoveAll(path); err != nil {
		metrics.RecordWebsiteOp("delete", false)
		return fmt.Errorf("delete website %s: %w", websiteID, err)
	}

	metrics.RecordWebsiteOp("delete", true)
	return nil
}

// DuplicateWebsite copies the whole website directory under a new id and
// renames the copy's metadata, leaving every other metadata field intact.
func (s *Storage) DuplicateWebsite(ctx context.Context, sess *connector.Session, websiteID string) (string, error) {
	newWebsiteID := uuid.NewString()

	if err := copyDir(s.websitePath(websiteID), s.websitePath(newWebsiteID), 0); err != nil {
		metrics.RecordWebsiteOp("duplicate", false)
		if os.IsNotExist(err) {
			return "", connector.NewNotFound("website '%s'", websiteID)
		}
		return "", err
	}

	meta, err := s.WebsiteMeta(ctx, sess, websiteID)
	if err != nil {
		metrics.RecordWebsiteOp("duplicate", false)
		return "", err
	}
	newMeta := &website.MetaFileContent{
		Name:                  meta.Name + " copy",
		ImageURL:              meta.ImageURL,
		ConnectorUserSettings: meta.ConnectorUserSettings,
	}
	if err := s.SetWebsiteMeta(ctx, sess, newWebsiteID, newMeta); err != nil {
		metrics.RecordWebsiteOp("duplicate", false)
		return "", err
	}

	metrics.RecordWebsiteOp("duplicate", true)
	return newWebsiteID, nil
}

// Assets.

// WriteAssets stores the uploaded files under the assets folder and returns
// each stored path with a leading slash.
func (s *Storage) WriteAssets(ctx context.Context, sess *connector.Session, websiteID string, files []website.File) ([]string, error) {
	assetsPath := s.assetsPath(websiteID)

	if err := os.MkdirAll(assetsPath, 0755); err != nil {
		return nil, fmt.Errorf("create assets dir: %w", err)
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		rel := strings.TrimLeft(f.Path, "/")
		target := filepath.Join(assetsPath, filepath.FromSlash(rel))

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return nil, fmt.Errorf("create dirs for %s: %w", rel, err)
		}
		if err := os.WriteFile(target, f.Content, 0644); err != nil {
			return nil, fmt.Errorf("write asset %s: %w", rel, err)
		}

		metrics.RecordAssetWrite(int64(len(f.Content)))
		written = append(written, "/"+rel)
	}

	return written, nil
}

// ReadAsset returns a stored asset's bytes, translating a missing file into
// a NotFoundError.
func (s *Storage) ReadAsset(ctx context.Context, sess *connector.Session, websiteID, fileName string) ([]byte, error) {
	rel := strings.TrimLeft(fileName, "/")
	path := filepath.Join(s.assetsPath(websiteID), filepath.FromSlash(rel))

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, connector.NewNotFound("asset '%s'", fileName)
		}
		return nil, fmt.Errorf("read asset %s: %w", fileName, err)
	}

	metrics.RecordAssetRead(int64(len(content)))
	return content, nil
}

// Metadata.

// WebsiteMeta reads meta.json and derives timestamps from the website
// directory itself. Birth time is not portably available, so the directory
// modification time stands in for both.
func (s *Storage) WebsiteMeta(ctx context.Context, sess *connector.Session, websiteID string) (*website.Meta, error) {
	content, err := os.ReadFile(s.metaFilePath(websiteID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, connector.NewNotFound("website '%s'", websiteID)
		}
		return nil, fmt.Errorf("read meta for %s: %w", websiteID, err)
	}

	var fileContent website.MetaFileContent
	if err := json.Unmarshal(content, &fileContent); err != nil {
		return nil, fmt.Errorf("parse meta for %s: %w", websiteID, err)
	}

	info, err := os.Stat(s.websitePath(websiteID))
	if err != nil {
		return nil, fmt.Errorf("stat website %s: %w", websiteID, err)
	}
	modTime := info.ModTime().UTC()

	return website.MetaFromFileContent(websiteID, &fileContent, &modTime, &modTime), nil
}

// SetWebsiteMeta writes meta.json.
func (s *Storage) SetWebsiteMeta(ctx context.Context, sess *connector.Session, websiteID string, meta *website.MetaFileContent) error {
	content, err := website.CanonicalJSON(meta)
	if err != nil {
		return fmt.Errorf("serialize meta for %s: %w", websiteID, err)
	}
	if err := os.WriteFile(s.metaFilePath(websiteID), content, 0644); err != nil {
		return fmt.Errorf("write meta for %s: %w", websiteID, err)
	}
	return nil
}

// Split/merge.

// pageHeader is the part of an otherwise opaque page document the storage
// engine needs: identity for file naming and the split marker.
type pageHeader struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsFile bool   `json:"isFile"`
}

// pageRef replaces a split-out page inside the main document.
type pageRef struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	IsFile bool   `json:"isFile"`
}

func pagesFolderOf(data *website.Data) string {
	if data.PagesFolder == "" {
		return website.LegacyPagesFolder
	}
	return data.PagesFolder
}

// pageSlug derives a filesystem-safe name: lowercase, every run of
// non-alphanumeric characters becomes a single dash, leading and trailing
// dashes are dropped.
func pageSlug(name string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// pageFileName is the per-page file name inside the pages folder. The id
// keeps names unique even when two pages share a slug.
func pageFileName(name, id string) string {
	return pageSlug(name) + "-" + id + ".json"
}

// splitWebsiteData decomposes a document into the file set to write: one
// file per page carrying an id, plus the main document where those pages
// are replaced by references. Pages without an id — including non-object
// pages — are not split out; they stay embedded (the empty placeholder
// page of a new site has no id).
func splitWebsiteData(data *website.Data) ([]website.File, error) {
	pagesFolder := pagesFolderOf(data)

	var files []website.File
	pageRefs := make([]json.RawMessage, 0, len(data.Pages))

	for _, page := range data.Pages {
		// Pages that are not objects, or carry no id, stay embedded as-is.
		var hdr pageHeader
		if err := json.Unmarshal(page, &hdr); err != nil || hdr.ID == "" {
			pageRefs = append(pageRefs, page)
			continue
		}

		name := hdr.Name
		if name == "" {
			name = "page"
		}

		content, err := website.CanonicalJSON(page)
		if err != nil {
			return nil, fmt.Errorf("serialize page %s: %w", hdr.ID, err)
		}
		files = append(files, website.File{
			Path:    pagesFolder + "/" + pageFileName(name, hdr.ID),
			Content: content,
		})

		ref, err := json.Marshal(pageRef{Name: name, ID: hdr.ID, IsFile: true})
		if err != nil {
			return nil, fmt.Errorf("serialize page ref %s: %w", hdr.ID, err)
		}
		pageRefs = append(pageRefs, ref)
	}

	// The main document keeps every non-page field verbatim, with the
	// resolved pages folder and the reference-substituted pages array.
	main := map[string]any{
		"pages":       pageRefs,
		"pagesFolder": pagesFolder,
		"assets":      rawArray(data.Assets),
		"styles":      rawArray(data.Styles),
		"settings":    rawObject(data.Settings),
		"fonts":       rawArray(data.Fonts),
		"symbols":     rawArray(data.Symbols),
		"publication": rawObject(data.Publication),
	}
	content, err := website.CanonicalJSON(main)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", website.DataFile, err)
	}
	files = append(files, website.File{Path: website.DataFile, Content: content})

	return files, nil
}

// mergeWebsiteData parses the main document and resolves page references
// back into full pages. A page file that cannot be read or parsed degrades
// to its reference object with a warning, so one corrupt page never fails
// the whole site. A document whose first page carries no isFile marker is
// the legacy fully-embedded format and is returned as-is.
func (s *Storage) mergeWebsiteData(websiteID string, content []byte) (*website.Data, error) {
	var data website.Data
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parse %s for %s: %w", website.DataFile, websiteID, err)
	}

	if len(data.Pages) == 0 {
		return &data, nil
	}

	var firstKeys map[string]json.RawMessage
	if err := json.Unmarshal(data.Pages[0], &firstKeys); err != nil {
		return &data, nil
	}
	if _, ok := firstKeys["isFile"]; !ok {
		return &data, nil
	}

	pagesFolder := data.PagesFolder
	if pagesFolder == "" {
		pagesFolder = website.LegacyPagesFolder
	}

	loaded := make([]json.RawMessage, 0, len(data.Pages))
	for _, page := range data.Pages {
		var hdr pageHeader
		if err := json.Unmarshal(page, &hdr); err != nil || !hdr.IsFile {
			loaded = append(loaded, page)
			continue
		}

		name := hdr.Name
		if name == "" {
			name = "page"
		}
		pagePath := filepath.Join(s.websitePath(websiteID), pagesFolder, pageFileName(name, hdr.ID))

		pageContent, err := os.ReadFile(pagePath)
		if err == nil && !json.Valid(pageContent) {
			err = fmt.Errorf("invalid JSON")
		}
		if err != nil {
			logging.Warn("could not load page file",
				logging.String("path", pagePath),
				logging.Err(err))
			loaded = append(loaded, page)
			continue
		}
		loaded = append(loaded, json.RawMessage(pageContent))
	}

	data.Pages = loaded
	return &data, nil
}

func rawArray(v []json.RawMessage) []json.RawMessage {
	if v == nil {
		return []json.RawMessage{}
	}
	return v
}

func rawObject(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage(`{}`)
	}
	return v
}

// copyDir copies a directory tree depth-first. The depth cap guards against
// pathological trees (symlink cycles show up as missing files instead).
func copyDir(source, dest string, depth int) error {
	if depth > maxCopyDepth {
		return connector.NewInvalidInput("directory tree deeper than %d levels", maxCopyDepth)
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("create dir %s: %w", dest, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(source, entry.Name())
		dstPath := filepath.Join(dest, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath, depth+1); err != nil {
				return err
			}
			continue
		}

		content, err := os.ReadFile(srcPath)
		if err != nil {
			return fmt.Errorf("read %s: %w", srcPath, err)
		}
		if err := os.WriteFile(dstPath, content, 0644); err != nil {
			return fmt.Errorf("write %s: %w", dstPath, err)
		}
	}

	return nil
}
