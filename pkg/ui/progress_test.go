package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/models"
)

func TestStatusTrackerCounts(t *testing.T) {
	var out bytes.Buffer
	st := NewStatusTracker(&out, true)

	visit := models.PageVisit{SequenceIndex: 1, References: make([]models.ImageReference, 3)}
	st.PageStarted(visit)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.DownloadFinished(models.DownloadOutcome{Bytes: 1024})
		}()
	}
	wg.Wait()
	st.DownloadFinished(models.DownloadOutcome{Err: errors.New("404")})
	st.PageFinished(visit, errors.New("404"))

	assert.Equal(t, 2, st.Saved())
	assert.Equal(t, 1, st.Failed())
	assert.Equal(t, 0, st.Pages())
	assert.True(t, strings.HasPrefix(st.Summary(), "0 pages, 2 images (2.0 KiB), 1 failed"))
	assert.Contains(t, out.String(), "page 1")
}

func TestStatusTrackerIgnoresCancelledDownloads(t *testing.T) {
	st := NewStatusTracker(&bytes.Buffer{}, false)

	visit := models.PageVisit{SequenceIndex: 1, References: make([]models.ImageReference, 3)}
	st.PageStarted(visit)
	st.DownloadFinished(models.DownloadOutcome{Bytes: 10})
	st.DownloadFinished(models.DownloadOutcome{Err: errs.New(errs.KindNetwork, "unexpected status code: 500")})
	st.DownloadFinished(models.DownloadOutcome{Err: errs.Wrap(errs.KindNetwork, context.Canceled, "request failed")})
	st.PageFinished(visit, errors.New("download 2 of 3 failed"))

	assert.Equal(t, 1, st.Saved())
	assert.Equal(t, 1, st.Failed())
}

func TestStatusTrackerDisabledDrawsNothing(t *testing.T) {
	var out bytes.Buffer
	st := NewStatusTracker(&out, false)

	visit := models.PageVisit{SequenceIndex: 1, References: make([]models.ImageReference, 1)}
	st.PageStarted(visit)
	st.DownloadFinished(models.DownloadOutcome{Bytes: 10})
	st.PageFinished(visit, nil)

	assert.Empty(t, out.String())
	assert.Equal(t, 1, st.Pages())
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KiB", FormatBytes(1536))
	assert.Equal(t, "3.0 MiB", FormatBytes(3*1024*1024))
}

func TestPrintHelpersUseOutput(t *testing.T) {
	var out bytes.Buffer
	prev := Output
	Output = &out
	defer func() { Output = prev }()

	PrintSuccess("done")
	PrintError("failed", errors.New("boom"))
	PrintInfo("Pages", "3")

	s := out.String()
	assert.Contains(t, s, "done")
	assert.Contains(t, s, "failed: boom")
	assert.Contains(t, s, "Pages")
}
