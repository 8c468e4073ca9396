package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagegrab/pkg/logger"
)

func findChrome(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	t.Skip("no Chrome binary available")
	return ""
}

func catalogServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<img class="cover" src="/img/1.png" alt="First">
<ul class="pager"><li class="next"><a href="/page-2.html">next</a></li></ul>
</body></html>`)
	})
	mux.HandleFunc("/page-2.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<img class="cover" src="/img/2.png">
<ul class="pager"><li class="next disabled"><a aria-disabled="true">next</a></li></ul>
</body></html>`)
	})
	return httptest.NewServer(mux)
}

func TestChromeSessionSmoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	execPath := findChrome(t)

	server := catalogServer()
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	session, err := NewChromeSession(ctx, Options{Headless: true, ExecPath: execPath, Logger: logger.NewNopLogger()})
	require.NoError(t, err)
	defer session.Close()

	nav := NavigateOptions{Timeout: 20 * time.Second, WaitCondition: WaitLoad}
	require.NoError(t, session.Open(ctx, server.URL+"/", nav))

	var count int
	require.NoError(t, session.Evaluate(ctx, `document.querySelectorAll('img.cover').length`, &count))
	assert.Equal(t, 1, count)

	result, err := session.Click(ctx, "ul.pager li.next a", nav)
	require.NoError(t, err)
	assert.True(t, result.HasNext())
	assert.Equal(t, server.URL+"/page-2.html", result.URL)

	current, err := session.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/page-2.html", current)

	result, err = session.Click(ctx, "ul.pager li.next a", nav)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.False(t, result.HasNext())

	result, err = session.Click(ctx, "a.does-not-exist", nav)
	require.NoError(t, err)
	assert.False(t, result.Found)

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
}

func TestPaginationResultHasNext(t *testing.T) {
	assert.False(t, PaginationResult{}.HasNext())
	assert.False(t, PaginationResult{Found: true}.HasNext())
	assert.True(t, PaginationResult{Found: true, Activated: true}.HasNext())
}

func TestControlStateScriptQuotesSelector(t *testing.T) {
	script := controlStateScript(`a[title="next"]`)
	assert.Contains(t, script, `("a[title=\"next\"]")`)
}
