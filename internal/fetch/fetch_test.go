package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

func testRegistry(baseURL string) Registry {
	return Registry{
		model.SourceDecisive: {BaseURL: baseURL, PageParam: "page", Enabled: true},
		model.SourceAppeals:  {BaseURL: baseURL, PageParam: "p", Enabled: false},
	}
}

func TestRegistry_PageURL(t *testing.T) {
	reg := testRegistry("https://example.gov.il/decisive")

	u, err := reg.PageURL(model.SourceDecisive, 3)
	require.NoError(t, err)
	assert.Equal(t, "https://example.gov.il/decisive?page=3", u)
}

func TestRegistry_PageURL_Disabled(t *testing.T) {
	reg := testRegistry("https://example.gov.il/decisive")

	_, err := reg.PageURL(model.SourceAppeals, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRegistry_PageURL_Unknown(t *testing.T) {
	reg := testRegistry("https://example.gov.il/decisive")

	_, err := reg.PageURL(model.SourceCompensation, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	yaml := `
decisive:
  base_url: https://mirror.example.org/decisive
  page_param: pg
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	u, err := reg.PageURL(model.SourceDecisive, 2)
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.org/decisive?pg=2", u)

	// Categories absent from the file keep their defaults.
	_, err = reg.PageURL(model.SourceAppeals, 1)
	assert.NoError(t, err)
}

func TestLoadRegistry_BadCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mystery:\n  base_url: x\n"), 0o644))

	_, err := LoadRegistry(path)
	assert.Error(t, err)
}

func TestHTTPFetcher_FetchPage(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>שלום</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testRegistry(srv.URL), 100)
	body, err := f.FetchPage(context.Background(), model.SourceDecisive, 2)
	require.NoError(t, err)
	assert.Contains(t, string(body), "שלום")
	assert.Contains(t, gotPath, "page=2")
	assert.Contains(t, gotUA, "shuma-cli")
}

func TestHTTPFetcher_FetchPage_Windows1255(t *testing.T) {
	hebrew := "שומה"
	encoded, err := charmap.Windows1255.NewEncoder().String(hebrew)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1255")
		w.Write([]byte(encoded))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testRegistry(srv.URL), 100)
	body, err := f.FetchPage(context.Background(), model.SourceDecisive, 1)
	require.NoError(t, err)
	assert.Equal(t, hebrew, string(body))
}

func TestHTTPFetcher_FetchPage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(testRegistry(srv.URL), 100)
	_, err := f.FetchPage(context.Background(), model.SourceDecisive, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHTTPFetcher_FetchPage_ContextCancelled(t *testing.T) {
	f := NewHTTPFetcher(testRegistry("https://example.gov.il"), 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchPage(ctx, model.SourceDecisive, 1)
	assert.Error(t, err)
}

func TestDecodeCharset_Passthrough(t *testing.T) {
	body := []byte("plain utf-8 text")

	out, err := decodeCharset(body, "")
	require.NoError(t, err)
	assert.Equal(t, body, out)

	out, err = decodeCharset(body, "text/html; charset=UTF-8")
	require.NoError(t, err)
	assert.Equal(t, body, out)
}

func TestDecodeCharset_Unknown(t *testing.T) {
	_, err := decodeCharset([]byte("x"), "text/html; charset=klingon-8")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unknown charset"))
}
