package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	// decoders accepted for award photos
	_ "image/gif"
	_ "image/png"

	"github.com/pfrederiksen/pcjc-awards/internal/award"
)

const (
	htmlDir      = "html"
	imagesDir    = "images"
	recordsDir   = "records"
	manifestFile = "manifest.json"

	jpegQuality = 90
)

// ErrNotFound is returned when a stored record does not exist
var ErrNotFound = errors.New("not found")

// Storage handles persistence of pages, photos, records and the manifest
type Storage struct {
	dataDir string
}

// New creates a new Storage instance rooted at dataDir
func New(dataDir string) (*Storage, error) {
	if dataDir == "" {
		return nil, errors.New("data directory is required")
	}

	// Expand ~ to home directory
	if dataDir == "~" || strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, strings.TrimPrefix(dataDir[1:], "/"))
	}

	for _, dir := range []string{dataDir, filepath.Join(dataDir, htmlDir), filepath.Join(dataDir, imagesDir), filepath.Join(dataDir, recordsDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	return &Storage{dataDir: dataDir}, nil
}

// Dir returns the expanded data directory
func (s *Storage) Dir() string {
	return s.dataDir
}

// resourcePath maps a reference to a file under root, refusing paths that
// would escape it
func (s *Storage) resourcePath(root string, ref award.Reference) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(ref.Path()))
	if rel == "." || filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid reference path %q", ref.Path())
	}
	return filepath.Join(s.dataDir, root, rel), nil
}

// PagePath returns where the raw page of ref is stored
func (s *Storage) PagePath(ref award.Reference) (string, error) {
	return s.resourcePath(htmlDir, ref)
}

// ImagePath returns where the photo of ref is stored
func (s *Storage) ImagePath(ref award.Reference) (string, error) {
	return s.resourcePath(imagesDir, ref.Image())
}

// SavePage writes the raw text of an award page
func (s *Storage) SavePage(ref award.Reference, text string) (string, error) {
	path, err := s.PagePath(ref)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, []byte(text)); err != nil {
		return "", fmt.Errorf("writing page: %w", err)
	}
	return path, nil
}

// SaveImage validates the payload as an image and stores it re-encoded as JPEG
func (s *Storage) SaveImage(ref award.Reference, data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image %s: %w", ref.Path(), err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encoding %s image %s: %w", format, ref.Path(), err)
	}

	path, err := s.ImagePath(ref)
	if err != nil {
		return "", err
	}
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}
	return path, nil
}

func (s *Storage) recordPath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return filepath.Join(s.dataDir, recordsDir, id+".json"), nil
}

// SaveRecord stores an extracted record under id
func (s *Storage) SaveRecord(id string, rec *award.Record) error {
	path, err := s.recordPath(id)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}

// LoadRecord reads one stored record
func (s *Storage) LoadRecord(id string) (*award.Record, error) {
	path, err := s.recordPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("record %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return decodeRecord(data)
}

// LoadRecords reads every stored record, ordered by id
func (s *Storage) LoadRecords() ([]*award.Record, error) {
	matches, err := filepath.Glob(filepath.Join(s.dataDir, recordsDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	sort.Strings(matches)

	records := make([]*award.Record, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecord(data []byte) (*award.Record, error) {
	rec := award.NewRecord()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}
	return rec, nil
}

// LoadManifest loads the crawl manifest, returning an empty one on first run
func (s *Storage) LoadManifest() (*award.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return award.NewManifest(), nil
		}
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var manifest award.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if manifest.Entries == nil {
		manifest.Entries = make(map[string]*award.ManifestEntry)
	}
	return &manifest, nil
}

// SaveManifest writes the manifest, stamping UpdatedAt
func (s *Storage) SaveManifest(manifest *award.Manifest) error {
	manifest.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := writeFile(filepath.Join(s.dataDir, manifestFile), data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// writeFile writes through a temp file so readers never see a partial file
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
