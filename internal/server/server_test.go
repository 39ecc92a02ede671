// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cite-engine/internal/citeproc"
	"github.com/pdiddy/cite-engine/internal/library"
	"github.com/pdiddy/cite-engine/internal/response"
	"github.com/pdiddy/cite-engine/pkg/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- test helpers ---

func testConfig() types.Config {
	return types.Config{
		Server:    types.ServerConfig{BasePath: "/zotxt", EnableMetrics: true, Debug: true},
		Styles:    types.StylesConfig{DefaultStyle: "chicago-note-bibliography", DefaultLocale: "en-US"},
		Resolver:  types.ResolverConfig{MaxConcurrency: 4},
		Exporters: types.ExportersConfig{BetterBibTeX: true},
	}
}

func newTestServer(t *testing.T, mutate func(*types.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := library.Open(types.LibraryConfig{Path: filepath.Join(t.TempDir(), "library.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f, err := os.Open(filepath.Join("..", "library", "testdata", "library.yaml"))
	require.NoError(t, err)
	defer f.Close()
	_, err = store.Import(context.Background(), f)
	require.NoError(t, err)

	styles, err := citeproc.Builtin()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, store, styles, logger, "7.0.0-test")
}

func get(t *testing.T, s *Server, path string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	target := "/zotxt" + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, target, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func postBibliography(t *testing.T, s *Server, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/zotxt/bibliography", strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func assertBadRequest(t *testing.T, w *httptest.ResponseRecorder, msg string) {
	t.Helper()
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ContentTypeText, w.Header().Get("Content-Type"))
	assert.Equal(t, msg, w.Body.String())
}

func citeGroup(items ...map[string]any) map[string]any {
	return map[string]any{"citationItems": items, "properties": map[string]any{"noteIndex": 0}}
}

// --- /items ---

func TestItemsEasyKey(t *testing.T) {
	s := newTestServer(t, nil)
	for _, k := range []string{"DoeBook2005", "doe:2005first", "doe:2005book"} {
		w := get(t, s, "/items", map[string]string{"easykey": k, "format": "key"})
		require.Equal(t, http.StatusOK, w.Code, k)
		assert.Equal(t, response.ContentTypeJSON, w.Header().Get("Content-Type"))
		assert.Equal(t, []string{"1_ZBZQ4KMP"}, decode[[]string](t, w), k)
	}
}

func TestItemsEasyKeyList(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"easykey": "doe:2005book,roe-doe:2015hyphens", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_ZBZQ4KMP", "1_H7PHENS2"}, decode[[]string](t, w))
}

func TestItemsEasyKeyUnicode(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"easykey": "hüáéèñ:2015acćénts", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_ACC3NTS5"}, decode[[]string](t, w))
}

func TestItemsEasyKeyRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	for _, key := range []string{"1_SLF2RGNZ", "1_BR13NP3T", "1_D2UBLE5X", "1_UN5B2KQW"} {
		w := get(t, s, "/items", map[string]string{"key": key, "format": "easykey"})
		require.Equal(t, http.StatusOK, w.Code, key)
		generated := decode[[]string](t, w)
		require.Len(t, generated, 1)

		w = get(t, s, "/items", map[string]string{"easykey": generated[0], "format": "key"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, []string{key}, decode[[]string](t, w), generated[0])
	}
}

func TestItemsAmbiguous(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"easykey": "doe:2005ambiguous", "format": "key"})
	assertBadRequest(t, w, "doe:2005ambiguous returned multiple items")
}

func TestItemsNoResults(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"easykey": "DoeBook2099", "format": "key"})
	assertBadRequest(t, w, "DoeBook2099 had no results")

	w = get(t, s, "/items", map[string]string{"key": "1_ZBZQ4KMXXXX", "format": "key"})
	assertBadRequest(t, w, "1_ZBZQ4KMXXXX not found")
}

func TestItemsKeyList(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"key": "1_ZBZQ4KMP,1_4T8MCITQ", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_ZBZQ4KMP", "1_4T8MCITQ"}, decode[[]string](t, w))
}

func TestItemsCiteKey(t *testing.T) {
	s := newTestServer(t, nil)
	for _, name := range []string{"betterbibtexkey", "citekey"} {
		w := get(t, s, "/items", map[string]string{name: "doe:2005first,doe:2006article", "format": "key"})
		require.Equal(t, http.StatusOK, w.Code, name)
		assert.Equal(t, []string{"1_ZBZQ4KMP", "1_4T8MCITQ"}, decode[[]string](t, w), name)
	}
}

func TestItemsNoParam(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"format": "key"})
	assertBadRequest(t, w, "No param supplied!")

	w = get(t, s, "/items", map[string]string{"key": ",", "format": "key"})
	assertBadRequest(t, w, "No param supplied!")
}

func TestItemsEmptyQuery(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"q": ""})
	assertBadRequest(t, w, "q param required.")
}

func TestItemsCollection(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"collection": "zotxt test", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_ZBZQ4KMP", "1_4T8MCITQ"}, decode[[]string](t, w))

	w = get(t, s, "/items", map[string]string{"collection": "missing collection", "format": "key"})
	assertBadRequest(t, w, "collection missing collection not found")
}

func TestItemsAll(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"all": "all", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]string](t, w), 14)
}

func TestItemsBibliographyFormat(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"key": "1_ZBZQ4KMP", "format": "bibliography", "style": "ieee"})
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]map[string]string](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "1_ZBZQ4KMP", entries[0]["key"])
	assert.Equal(t, "[1] J. Doe, First Book. Cambridge: Cambridge University Press, 2005.", entries[0]["text"])

	w = get(t, s, "/items", map[string]string{"key": "1_4T8MCITQ", "format": "bibliography", "locale": "es-ES"})
	require.Equal(t, http.StatusOK, w.Code)
	entries = decode[[]map[string]string](t, w)
	assert.Equal(t, "Doe, John. «Article». Journal of Generic Studies 6 (2006): 33-34.", entries[0]["text"])
	assert.Contains(t, entries[0]["html"], "<i>Journal of Generic Studies</i>")
}

func TestItemsBibliographyBadStyle(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"key": "1_4T8MCITQ", "format": "bibliography", "style": "bad-style"})
	assertBadRequest(t, w, "Style http://www.zotero.org/styles/bad-style is not installed.")
}

func TestItemsQuickBibAndPaths(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"key": "1_4T8MCITQ", "format": "quickBib"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"key":"1_4T8MCITQ","quickBib":"Doe, John - 2006 - Article"}]`, w.Body.String())

	w = get(t, s, "/items", map[string]string{"easykey": "doe:2006article", "format": "paths"})
	require.Equal(t, http.StatusOK, w.Code)
	paths := decode[[]struct {
		Key   string   `json:"key"`
		Paths []string `json:"paths"`
	}](t, w)
	require.Len(t, paths, 1)
	require.Len(t, paths[0].Paths, 1)
	assert.Regexp(t, `storage/[A-Z0-9]{8}/doe$`, paths[0].Paths[0])
}

func TestItemsBibTeX(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"key": "1_ZBZQ4KMP", "format": "bibtex"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.ContentTypeText, w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "@book{doe:2005first,\n"), w.Body.String())
}

func TestItemsExporterID(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"key": "1_ZBZQ4KMP", "format": "00000000-0000-0000-0000-000000000000"})
	assertBadRequest(t, w, "Exporter 00000000-0000-0000-0000-000000000000 is not installed.")
}

func TestItemsDefaultJSON(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/items", map[string]string{"easykey": "DoeBook2005", "format": "json"})
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[[]map[string]any](t, w)
	require.Len(t, recs, 1)
	assert.Equal(t, "First Book", recs[0]["title"])
	assert.Equal(t, "doe:2005first", recs[0]["citation-key"])
}

func TestItemsCiteKeyFormatWithoutBetterBibTeX(t *testing.T) {
	s := newTestServer(t, func(c *types.Config) { c.Exporters.BetterBibTeX = false })
	w := get(t, s, "/items", map[string]string{"key": "1_ZBZQ4KMP", "format": "citekey"})
	assertBadRequest(t, w, "BetterBibTex not installed.")
}

// --- /search ---

func TestSearch(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/search", map[string]string{"q": "doe first book 2005", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_ZBZQ4KMP"}, decode[[]string](t, w))

	w = get(t, s, "/search", map[string]string{"q": "generic studies", "method": "fields", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_4T8MCITQ"}, decode[[]string](t, w))
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t, nil)
	assertBadRequest(t, get(t, s, "/search", nil), "q param required.")
	assertBadRequest(t, get(t, s, "/search", map[string]string{"q": "  "}), "q param required.")
}

func TestSearchNoMatches(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/search", map[string]string{"q": "nothing matches this", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

// --- /complete ---

func TestComplete(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/complete", map[string]string{"easykey": "doe:2006"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"doe:2006article"}, decode[[]string](t, w))
}

func TestCompleteErrors(t *testing.T) {
	s := newTestServer(t, nil)
	assertBadRequest(t, get(t, s, "/complete", nil), MsgEasyKeyRequired)
	assertBadRequest(t, get(t, s, "/complete", map[string]string{"easykey": "doe:20x"}), MsgEasyKeyForm)
}

// --- /bibliography ---

func TestBibliography(t *testing.T) {
	s := newTestServer(t, nil)
	w := postBibliography(t, s, map[string]any{
		"styleId":        "chicago-author-date",
		"citationGroups": []any{citeGroup(map[string]any{"easyKey": "DoeBook2005"})},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]json.RawMessage](t, w)
	assert.JSONEq(t, `["(Doe 2005)"]`, string(res["citationClusters"]))

	var bib []json.RawMessage
	require.NoError(t, json.Unmarshal(res["bibliography"], &bib))
	assert.Len(t, bib, 2, "bibliography is a [params, entries] pair")
}

func TestBibliographyByKey(t *testing.T) {
	s := newTestServer(t, nil)
	w := postBibliography(t, s, map[string]any{
		"styleId":        "chicago-author-date",
		"citationGroups": []any{citeGroup(map[string]any{"key": "1_ZBZQ4KMP"})},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `["(Doe 2005)"]`, string(decode[map[string]json.RawMessage](t, w)["citationClusters"]))
}

func TestBibliographyDisambiguation(t *testing.T) {
	s := newTestServer(t, nil)
	w := postBibliography(t, s, map[string]any{
		"styleId": "chicago-author-date",
		"citationGroups": []any{
			citeGroup(map[string]any{"easyKey": "jenkins:2011jesus"}),
			citeGroup(map[string]any{"easyKey": "jenkins:2009lost"}),
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `["(J. P. Jenkins 2011)", "(P. Jenkins 2009)"]`,
		string(decode[map[string]json.RawMessage](t, w)["citationClusters"]))
}

func TestBibliographyError(t *testing.T) {
	s := newTestServer(t, nil)
	w := postBibliography(t, s, map[string]any{
		"styleId": "chicago-author-date",
		"citationGroups": []any{
			citeGroup(map[string]any{"easyKey": "doe:2005ambiguous"}),
			citeGroup(map[string]any{"easyKey": "doe:2005first"}),
		},
	})
	assertBadRequest(t, w, "doe:2005ambiguous returned multiple items")
}

func TestBibliographyBadStyle(t *testing.T) {
	s := newTestServer(t, nil)
	w := postBibliography(t, s, map[string]any{
		"styleId":        "bad-style",
		"citationGroups": []any{citeGroup(map[string]any{"easyKey": "DoeBook2005"})},
	})
	assertBadRequest(t, w, "Style http://www.zotero.org/styles/bad-style is not installed.")
}

func TestBibliographyInvalidBody(t *testing.T) {
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/zotxt/bibliography", strings.NewReader("{not json"))
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON body")
}

func TestBibliographyBodyTooLarge(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"styleId":"` + strings.Repeat("x", maxBodyBytes) + `","citationGroups":[]}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/zotxt/bibliography", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	assertBadRequest(t, w, MsgBodyTooLarge)
}

// --- /select ---

func TestSelectThenSelected(t *testing.T) {
	s := newTestServer(t, nil)

	w := get(t, s, "/items", map[string]string{"selected": "selected", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = get(t, s, "/select", map[string]string{"easykey": "doe:2006article"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"success"`, w.Body.String())

	w = get(t, s, "/items", map[string]string{"selected": "selected", "format": "key"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"1_4T8MCITQ"}, decode[[]string](t, w))
}

func TestSelectErrors(t *testing.T) {
	s := newTestServer(t, nil)
	assertBadRequest(t, get(t, s, "/select", map[string]string{"easykey": "XXX"}), "XXX had no results")
	assertBadRequest(t, get(t, s, "/select", nil), "No param supplied!")
	assertBadRequest(t, get(t, s, "/select", map[string]string{"all": "all"}), "No param supplied!")
}

// --- metadata ---

func TestVersion(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7.0.0-test", decode[map[string]string](t, w)["version"])
}

func TestLocales(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/locales", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Español", decode[map[string]string](t, w)["es-ES"])
}

func TestStyles(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/styles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var found *citeproc.StyleInfo
	for _, st := range decode[[]citeproc.StyleInfo](t, w) {
		if st.StyleID == "http://www.zotero.org/styles/chicago-fullnote-bibliography" {
			found = &st
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "note", found.Categories)
	assert.Equal(t, "Chicago Manual of Style 17th edition (full note)", found.Title)
}

// --- plumbing ---

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)
	w := get(t, s, "/version", nil)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/zotxt/version", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestPanicBecomesServerError(t *testing.T) {
	s := newTestServer(t, nil)
	s.engine.GET("/zotxt/explode", s.handle("explode", func(*gin.Context) (response.Response, error) {
		panic("engine exploded")
	}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/zotxt/explode", nil)
	req.Header.Set(requestIDHeader, "req-7")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.ContentTypeText, w.Header().Get("Content-Type"))
	assert.Equal(t, "panic: engine exploded", w.Body.String())
	assert.Equal(t, "req-7", w.Header().Get(requestIDHeader))

	w = get(t, s, "/version", nil)
	assert.Equal(t, http.StatusOK, w.Code, "server keeps serving after a panic")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	get(t, s, "/version", nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cite_engine_http_request_duration_seconds")
}

func TestEmptyBasePath(t *testing.T) {
	s := newTestServer(t, func(c *types.Config) { c.Server.BasePath = "" })
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/version", nil)
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddr(t *testing.T) {
	s := newTestServer(t, nil)
	assert.Equal(t, "127.0.0.1:23119", s.Addr())

	s = newTestServer(t, func(c *types.Config) { c.Server.Host = "0.0.0.0"; c.Server.Port = 8080 })
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}
