package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuildCSPHeader(t *testing.T) {
	tests := []struct {
		name string
		cfg  CSPConfig
		want string
	}{
		{"empty", CSPConfig{}, ""},
		{"api", APICSPConfig(), "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"},
		{
			"mixed",
			CSPConfig{
				DefaultSrc:              []string{"'self'"},
				ImgSrc:                  []string{"'self'", "data:"},
				ConnectSrc:              []string{"'self'", "wss://example.com"},
				UpgradeInsecureRequests: true,
			},
			"default-src 'self'; img-src 'self' data:; connect-src 'self' wss://example.com; upgrade-insecure-requests",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.BuildCSPHeader(); got != tt.want {
				t.Errorf("BuildCSPHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeadersWithCSP(t *testing.T) {
	handler := SecurityHeadersWithCSP(APICSPConfig(), ok)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": APICSPConfig().BuildCSPHeader(),
	}
	for k, v := range want {
		if got := w.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}

	w = httptest.NewRecorder()
	SecurityHeadersWithCSP(CSPConfig{}, ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Content-Security-Policy") != "" {
		t.Error("empty config should not set a CSP header")
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		allowed     []string
		want        bool
	}{
		{"application/json", JSONContentTypes, true},
		{"application/json; charset=utf-8", JSONContentTypes, true},
		{"Application/JSON", JSONContentTypes, true},
		{"text/plain", JSONContentTypes, false},
		{"", JSONContentTypes, false},
		{"text/plain; charset=utf-8", TextContentTypes, true},
		{"text/xml", TextContentTypes, true},
		{"application/zip", TextContentTypes, false},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := ValidateContentType(tt.contentType, tt.allowed); got != tt.want {
				t.Errorf("ValidateContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}
