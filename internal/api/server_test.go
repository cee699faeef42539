package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/FocuswithJustin/bibleref/core/sqlite"
	"github.com/FocuswithJustin/bibleref/internal/index"
)

const sermon = "See John 3:16 and Rom 8."

// newTestServer starts a Server over a private in-memory index.
func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	store, err := index.Open(ctx, sqlite.Memory)
	if err != nil {
		t.Fatalf("index.Open() error = %v", err)
	}
	s, err := New(cfg, store)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	go s.Run(ctx)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		store.Close()
	})
	return s, ts
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func do(t *testing.T, method, url, contentType, body string, header ...string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode %s %s: %v\n%s", method, url, err, raw)
		}
	}
	return resp, env
}

func postJSON(t *testing.T, url string, v any) (*http.Response, envelope) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return do(t, http.MethodPost, url, "application/json", string(b))
}

func decodeData(t *testing.T, env envelope, v any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v\n%s", err, env.Data)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	store, err := index.Open(context.Background(), sqlite.Memory)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"auth without key", func(c *Config) { c.Auth = AuthConfig{Enabled: true} }},
		{"short key", func(c *Config) { c.Auth = AuthConfig{Enabled: true, APIKey: "short"} }},
		{"scanner level", func(c *Config) { c.Scanner.MaxLevel = 7 }},
		{"url template", func(c *Config) { c.URLTemplate = "/{nope}" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			if _, err := New(cfg, store); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}

	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Error("New(nil store) error = nil")
	}
}

func TestRootAndHealth(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	resp, env := do(t, http.MethodGet, ts.URL+"/", "", "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("GET / = %d %+v", resp.StatusCode, env)
	}
	var root map[string]any
	decodeData(t, env, &root)
	if root["name"] != "bibleref API" || root["version"] != Version {
		t.Errorf("root = %v", root)
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("expected request id in meta")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	resp, env = do(t, http.MethodGet, ts.URL+"/nonexistent", "", "")
	if resp.StatusCode != http.StatusNotFound || env.Success || env.Error.Code != "NOT_FOUND" {
		t.Errorf("GET /nonexistent = %d %+v", resp.StatusCode, env.Error)
	}

	resp, env = do(t, http.MethodGet, ts.URL+"/health", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health = %d", resp.StatusCode)
	}
	var health HealthInfo
	decodeData(t, env, &health)
	if health.Status != "healthy" || health.Index == nil || health.Driver != sqlite.DriverType() {
		t.Errorf("health = %+v", health)
	}
}

func TestBooks(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	resp, env := do(t, http.MethodGet, ts.URL+"/books?level=0", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /books = %d", resp.StatusCode)
	}
	var books []BookInfo
	decodeData(t, env, &books)
	if len(books) != 66 || env.Meta.Total != 66 {
		t.Fatalf("got %d books, total %d", len(books), env.Meta.Total)
	}
	john := books[42]
	if john.ID != 43 || john.OSIS != "John" || john.USFM != "JHN" {
		t.Errorf("book 43 = %+v", john)
	}
	has := func(list []string, s string) bool {
		for _, x := range list {
			if x == s {
				return true
			}
		}
		return false
	}
	if !has(john.Spellings, "john") || has(john.Spellings, "jn") {
		t.Errorf("level 0 spellings for John = %v", john.Spellings)
	}

	_, env = do(t, http.MethodGet, ts.URL+"/books?level=1&lang=es", "", "")
	decodeData(t, env, &books)
	if !has(books[42].Spellings, "juan") || has(books[42].Spellings, "john") {
		t.Errorf("spanish spellings for John = %v", books[42].Spellings)
	}

	for _, q := range []string{"level=9", "level=x", "lang=de"} {
		resp, _ := do(t, http.MethodGet, ts.URL+"/books?"+q, "", "")
		if resp.StatusCode < 400 {
			t.Errorf("GET /books?%s = %d, want an error status", q, resp.StatusCode)
		}
	}
}

func TestExtract(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())
	level1 := 1

	tests := []struct {
		name      string
		req       ExtractRequest
		canonical string
		valid     bool
		matches   int
	}{
		{"prose", ExtractRequest{Text: sermon}, "John 3:16; Romans 8", true, 2},
		{"nothing", ExtractRequest{Text: "no citations here"}, "", false, 0},
		{"abbreviation needs level", ExtractRequest{Text: "Gn 1:1"}, "", false, 0},
		{"level override", ExtractRequest{Text: "Gn 1:1", Config: &ScannerOptions{MaxLevel: &level1}}, "Genesis 1:1", true, 1},
		{"strict ok", ExtractRequest{Text: "John 3:16\nRom 8", Strict: true}, "John 3:16; Romans 8", true, 0},
		{"strict separator", ExtractRequest{Text: "John 3:16; Rom 8", Strict: true}, "", false, 0},
		{"strict leftovers", ExtractRequest{Text: sermon, Strict: true}, "", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := postJSON(t, ts.URL+"/extract", tt.req)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, error %+v", resp.StatusCode, env.Error)
			}
			var res ExtractResult
			decodeData(t, env, &res)
			if res.Canonical != tt.canonical || res.Valid != tt.valid || len(res.Matches) != tt.matches {
				t.Errorf("result = %q valid=%v matches=%d; want %q valid=%v matches=%d",
					res.Canonical, res.Valid, len(res.Matches), tt.canonical, tt.valid, tt.matches)
			}
		})
	}

	resp, env := postJSON(t, ts.URL+"/extract", ExtractRequest{Text: sermon})
	var res ExtractResult
	decodeData(t, env, &res)
	if resp.StatusCode != http.StatusOK || res.Matches[0].Offset != 4 || res.Matches[1].Offset != 18 {
		t.Errorf("offsets = %+v", res.Matches)
	}
}

func TestExtractRejectsBadRequests(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 64
	_, ts := newTestServer(t, cfg)
	bad := 9

	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		code        string
	}{
		{"content type", "text/plain", `{"text":"John 3:16"}`, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{"malformed", "application/json", `{"text":`, http.StatusBadRequest, "INVALID_JSON"},
		{"unknown field", "application/json", `{"txt":"John 3:16"}`, http.StatusBadRequest, "INVALID_JSON"},
		{"too large", "application/json", `{"text":"` + strings.Repeat("a", 100) + `"}`, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := do(t, http.MethodPost, ts.URL+"/extract", tt.contentType, tt.body)
			if resp.StatusCode != tt.status || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("status = %d error = %+v, want %d %s", resp.StatusCode, env.Error, tt.status, tt.code)
			}
		})
	}

	resp, env := postJSON(t, ts.URL+"/extract", ExtractRequest{Text: "x", Config: &ScannerOptions{MaxLevel: &bad}})
	if resp.StatusCode != http.StatusBadRequest || env.Error.Code != "INVALID_INPUT" {
		t.Errorf("bad level = %d %+v", resp.StatusCode, env.Error)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/extract", "", "")
	if resp.StatusCode == http.StatusOK {
		t.Error("GET /extract should not succeed")
	}
}

func TestRewrite(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	tests := []struct {
		name   string
		req    RewriteRequest
		status int
		want   string
		links  int
	}{
		{
			"tooltip link",
			RewriteRequest{HTML: `<p title="John 3:16">Read John 3:16</p>`, URLTemplate: "/{osis}"},
			http.StatusOK,
			`<p title="John 3:16">Read <a href="/John.3.16" class="bible-tip bible-tip-john_3%3A16 bible-ref bible_link_lang-en">John 3:16</a></p>`,
			1,
		},
		{
			"spanish without tooltip",
			RewriteRequest{HTML: `<b>Juan 3:16</b> y <i>Romanos 8:1</i>`, URLTemplate: "/{lang}/{osis}", Lang: "es", NoTooltip: true},
			http.StatusOK,
			`<b><a href="/es/John.3.16">Juan 3:16</a></b> y <i><a href="/es/Rom.8.1">Romanos 8:1</a></i>`,
			2,
		},
		{
			"bare book names stay",
			RewriteRequest{HTML: `<p>the book of John</p>`},
			http.StatusOK,
			`<p>the book of John</p>`,
			0,
		},
		{"bad template", RewriteRequest{HTML: "John 3:16", URLTemplate: "/{nope}"}, http.StatusBadRequest, "", 0},
		{"bad language", RewriteRequest{HTML: "John 3:16", Lang: "de"}, http.StatusUnprocessableEntity, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := postJSON(t, ts.URL+"/rewrite", tt.req)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%+v)", resp.StatusCode, tt.status, env.Error)
			}
			if tt.status != http.StatusOK {
				return
			}
			var res RewriteResult
			decodeData(t, env, &res)
			if res.HTML != tt.want || res.Links != tt.links {
				t.Errorf("rewrite = %q (%d links)\nwant %q (%d links)", res.HTML, res.Links, tt.want, tt.links)
			}
		})
	}
}

func TestDocuments(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	resp, env := postJSON(t, ts.URL+"/documents", DocumentRequest{Source: "sermon.txt", Body: sermon})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /documents = %d %+v", resp.StatusCode, env.Error)
	}
	var doc index.Document
	decodeData(t, env, &doc)
	if doc.ID != index.DocumentID(sermon) || len(doc.Citations) != 2 {
		t.Fatalf("document = %+v", doc)
	}
	if loc := resp.Header.Get("Location"); loc != "/documents/"+doc.ID {
		t.Errorf("Location = %q", loc)
	}

	resp, env = do(t, http.MethodGet, ts.URL+"/documents?ref=Romans+8:28", "", "")
	var hits []index.Citation
	decodeData(t, env, &hits)
	if resp.StatusCode != http.StatusOK || len(hits) != 1 || hits[0].Text != "Rom 8" {
		t.Errorf("query = %d %+v", resp.StatusCode, hits)
	}

	_, env = do(t, http.MethodGet, ts.URL+"/documents?ref=Jude", "", "")
	decodeData(t, env, &hits)
	if len(hits) != 0 {
		t.Errorf("query Jude = %+v, want none", hits)
	}

	_, env = do(t, http.MethodGet, ts.URL+"/documents", "", "")
	var docs []index.Document
	decodeData(t, env, &docs)
	if len(docs) != 1 || env.Meta.Total != 1 {
		t.Errorf("list = %+v", docs)
	}

	resp, env = do(t, http.MethodGet, ts.URL+"/documents/"+doc.ID, "", "")
	var got index.Document
	decodeData(t, env, &got)
	if resp.StatusCode != http.StatusOK || got.Body != sermon || got.Source != "sermon.txt" {
		t.Errorf("GET document = %d %+v", resp.StatusCode, got)
	}

	resp, _ = do(t, http.MethodDelete, ts.URL+"/documents/"+doc.ID, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE = %d", resp.StatusCode)
	}
	resp, env = do(t, http.MethodGet, ts.URL+"/documents/"+doc.ID, "", "")
	if resp.StatusCode != http.StatusNotFound || env.Error.Code != "NOT_FOUND" {
		t.Errorf("GET deleted = %d %+v", resp.StatusCode, env.Error)
	}

	_, env = do(t, http.MethodGet, ts.URL+"/documents?ref=romans++8:28", "", "")
	decodeData(t, env, &hits)
	if len(hits) != 0 {
		t.Errorf("query after delete = %+v, cached result survived the delete", hits)
	}
}

func TestDocumentErrors(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad id", http.MethodGet, "/documents/xyz", "", http.StatusBadRequest},
		{"bad hex", http.MethodGet, "/documents/" + strings.Repeat("g", 64), "", http.StatusBadRequest},
		{"missing", http.MethodDelete, "/documents/" + strings.Repeat("0", 64), "", http.StatusNotFound},
		{"empty body", http.MethodPost, "/documents", `{"source":"x"}`, http.StatusBadRequest},
		{"no citation query", http.MethodGet, "/documents?ref=nothing", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := ""
			if tt.body != "" {
				ct = "application/json"
			}
			resp, env := do(t, tt.method, ts.URL+tt.path, ct, tt.body)
			if resp.StatusCode != tt.status || env.Success {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.status)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	_, ts := newTestServer(t, DefaultConfig())
	postJSON(t, ts.URL+"/extract", ExtractRequest{Text: sermon})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`bibleref_http_requests_total{code="200",method="post",route="/extract"} 1`,
		`bibleref_citations_total{operation="extract"} 2`,
		`bibleref_scan_duration_seconds_count{operation="extract"} 1`,
		`bibleref_websocket_clients 0`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}
