package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "pagegrab/pkg/errors"
	"pagegrab/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func TestFetchSuccess(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png bytes"))
	}))
	defer server.Close()

	log := logger.NewTestLogger()
	client := NewClient(5*time.Second, "pagegrab-test", log)

	resp, err := client.Fetch(context.Background(), server.URL+"/img/1.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, "png bytes", string(body))
	assert.Equal(t, "pagegrab-test", gotUA)
	assert.True(t, log.HasMessage("HTTP request completed"))
}

func TestFetchDefaultUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	resp, err := NewClient(time.Second, "", logger.NewNopLogger()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestFetchCustomHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer server.Close()

	client := NewClient(5*time.Second, "", logger.NewNopLogger())
	client.SetHeader("Referer", "http://site.test/catalogue/")
	client.SetHeader("Accept", "image/png")

	resp, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "http://site.test/catalogue/", got.Get("Referer"))
	assert.Equal(t, "image/png", got.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, got.Get("User-Agent"))
}

func TestFetchNonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"forbidden", http.StatusForbidden},
		{"server error", http.StatusInternalServerError},
		{"redirect without location", http.StatusMultipleChoices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := NewClient(time.Second, "", logger.NewNopLogger()).Fetch(context.Background(), server.URL+"/a.jpg")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrNetwork))
			assert.Contains(t, err.Error(), server.URL+"/a.jpg")
		})
	}
}

func TestFetchTransportFailure(t *testing.T) {
	client := NewClient(time.Second, "", logger.NewTestLogger())
	client.httpClient.Transport = &mockRoundTripper{handler: func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}

	_, err := client.Fetch(context.Background(), "http://unreachable.test/a.jpg")
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestFetchMalformedURL(t *testing.T) {
	_, err := NewClient(time.Second, "", logger.NewNopLogger()).Fetch(context.Background(), "http://bad host/%zz")
	require.Error(t, err)
	assert.Equal(t, errs.KindURLParse, errs.KindOf(err))
}

func TestFetchHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(5*time.Second, "", logger.NewNopLogger()).Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}
