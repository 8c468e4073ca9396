package manifest

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagegrab/pkg/models"
)

func TestWriteAndLoad(t *testing.T) {
	dir := t.TempDir()
	visit := models.PageVisit{
		Identity:      "http://site.test/catalogue/page-2.html",
		SequenceIndex: 2,
		FolderPath:    dir,
	}
	outcomes := []models.DownloadOutcome{
		{
			Reference:       models.ImageReference{SourceURL: "/img/1.png", AltText: "One"},
			ResolvedURL:     "http://site.test/img/1.png",
			DestinationPath: filepath.Join(dir, "One.png"),
			Bytes:           120,
			Duration:        15 * time.Millisecond,
		},
		{
			Reference:       models.ImageReference{SourceURL: "http://cdn.test/2.jpg"},
			ResolvedURL:     "http://cdn.test/2.jpg",
			DestinationPath: filepath.Join(dir, "2.jpg"),
			Bytes:           80,
		},
		{
			Reference: models.ImageReference{SourceURL: "/img/broken.png"},
			Err:       errors.New("404"),
		},
		{},
	}

	require.NoError(t, Write(dir, visit, outcomes))

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, visit.Identity, m.PageURL)
	assert.Equal(t, 2, m.SequenceIndex)
	require.Len(t, m.Images, 2)
	assert.Equal(t, "One.png", m.Images[0].File)
	assert.Equal(t, "One", m.Images[0].AltText)
	assert.Equal(t, int64(15), m.Images[0].DurationMs)
	assert.Equal(t, "2.jpg", m.Images[1].File)
	assert.Equal(t, int64(200), m.TotalBytes())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
