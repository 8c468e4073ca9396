package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := Wrap(KindNetwork, fmt.Errorf("connection refused"), "request failed").WithURL("http://site.test/a.jpg")
	assert.Equal(t, "network: request failed (http://site.test/a.jpg): connection refused", err.Error())

	assert.Equal(t, "io: mkdir failed", New(KindIO, "mkdir failed").Error())
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("page 2: %w", New(KindNoLinksFound, "selector matched nothing"))

	assert.True(t, stderrors.Is(err, ErrNoLinksFound))
	assert.False(t, stderrors.Is(err, ErrNetwork))
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(KindFileWrite, cause, "write image")

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, stderrors.Is(err, ErrFileWrite))
}

func TestWithURLCopies(t *testing.T) {
	base := New(KindURLParse, "bad reference")
	withURL := base.WithURL("::")

	assert.Empty(t, base.URL)
	assert.Equal(t, "::", withURL.URL)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNavigation, KindOf(fmt.Errorf("wrapped: %w", New(KindNavigation, "timeout"))))
	assert.Equal(t, KindUnknown, KindOf(stderrors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestIsDownloadKind(t *testing.T) {
	for _, k := range []Kind{KindNetwork, KindFileWrite, KindURLParse} {
		assert.True(t, IsDownloadKind(k), k)
	}
	for _, k := range []Kind{KindNoLinksFound, KindNavigation, KindIO, KindExtraction, KindBrowser, KindUnknown} {
		assert.False(t, IsDownloadKind(k), k)
	}
}
