package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pagegrab/pkg/models"
	"pagegrab/pkg/storage"
)

// FileName is the manifest's name inside a page folder
const FileName = "manifest.json"

// Manifest describes everything saved from one page
type Manifest struct {
	PageURL       string    `json:"page_url"`
	SequenceIndex int       `json:"sequence_index"`
	Folder        string    `json:"folder"`
	SavedAt       time.Time `json:"saved_at"`
	Images        []Entry   `json:"images"`
}

// Entry is one saved image
type Entry struct {
	SourceURL   string `json:"source_url"`
	AltText     string `json:"alt_text,omitempty"`
	ResolvedURL string `json:"resolved_url"`
	File        string `json:"file"`
	Bytes       int64  `json:"bytes"`
	DurationMs  int64  `json:"duration_ms"`
}

// New builds the manifest for a page. Failed or skipped outcomes are left out.
func New(visit models.PageVisit, outcomes []models.DownloadOutcome) *Manifest {
	m := &Manifest{
		PageURL:       visit.Identity,
		SequenceIndex: visit.SequenceIndex,
		Folder:        visit.FolderPath,
		SavedAt:       time.Now().UTC(),
		Images:        make([]Entry, 0, len(outcomes)),
	}

	for _, o := range outcomes {
		if o.Err != nil || o.DestinationPath == "" {
			continue
		}
		m.Images = append(m.Images, Entry{
			SourceURL:   o.Reference.SourceURL,
			AltText:     o.Reference.AltText,
			ResolvedURL: o.ResolvedURL,
			File:        filepath.Base(o.DestinationPath),
			Bytes:       o.Bytes,
			DurationMs:  o.Duration.Milliseconds(),
		})
	}

	return m
}

// Write saves the manifest for a page into dir
func Write(dir string, visit models.PageVisit, outcomes []models.DownloadOutcome) error {
	data, err := json.MarshalIndent(New(visit, outcomes), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if _, err := storage.WriteFile(filepath.Join(dir, FileName), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Load reads the manifest stored in dir
func Load(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// TotalBytes sums the sizes of all images in the manifest
func (m *Manifest) TotalBytes() int64 {
	var total int64
	for _, img := range m.Images {
		total += img.Bytes
	}
	return total
}
