package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vadimbarashkov/linkly/internal/entity"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain url",
			raw:  "https://example.com",
			want: "https://example.com",
		},
		{
			name: "root path kept",
			raw:  "https://example.com/",
			want: "https://example.com/",
		},
		{
			name: "trailing slash stripped",
			raw:  "https://example.com/docs/",
			want: "https://example.com/docs",
		},
		{
			name: "query preserved",
			raw:  "https://example.com/search/?q=go",
			want: "https://example.com/search?q=go",
		},
		{
			name: "http scheme",
			raw:  "http://example.com/a/b",
			want: "http://example.com/a/b",
		},
		{
			name: "port allowed",
			raw:  "https://example.com:8443/x",
			want: "https://example.com:8443/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.raw, false)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_TrailingSlashVariantsMatch(t *testing.T) {
	withSlash, err := NormalizeURL("https://example.com/docs/", false)
	assert.NoError(t, err)

	withoutSlash, err := NormalizeURL("https://example.com/docs", false)
	assert.NoError(t, err)

	assert.Equal(t, withoutSlash, withSlash)
}

func TestNormalizeURL_Rejections(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "too long", raw: "https://example.com/" + strings.Repeat("a", 2048)},
		{name: "relative", raw: "example.com/docs"},
		{name: "bad scheme", raw: "ftp://example.com/file"},
		{name: "no host", raw: "https:///docs"},
		{name: "no dot in host", raw: "https://intranet/docs"},
		{name: "host too long", raw: "https://" + strings.Repeat("a", 252) + ".com"},
		{name: "double dot in host", raw: "https://bad..example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.raw, false)

			assert.Error(t, err)
			assert.Empty(t, got)

			var verr *entity.ValidationError
			assert.ErrorAs(t, err, &verr)
			assert.Equal(t, "original_url", verr.Field)
		})
	}
}

func TestNormalizeURL_PrivateHosts(t *testing.T) {
	privateURLs := []string{
		"http://localhost:3000/app",
		"http://LOCALHOST/app",
		"http://127.0.0.1/admin",
		"http://0.0.0.0:8080",
		"http://192.168.1.10/router",
		"http://10.0.0.5/internal",
		"http://172.16.0.1/gw",
		"http://172.31.255.255/gw",
		"http://[::1]:8080/v6",
	}

	for _, raw := range privateURLs {
		t.Run(raw, func(t *testing.T) {
			got, err := NormalizeURL(raw, true)

			assert.Error(t, err)
			assert.ErrorIs(t, err, entity.ErrURLNotAllowed)
			assert.Empty(t, got)
		})
	}

	t.Run("allowed outside production", func(t *testing.T) {
		got, err := NormalizeURL("http://localhost:3000/app", false)

		assert.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/app", got)
	})

	t.Run("172.32 is public", func(t *testing.T) {
		got, err := NormalizeURL("http://172.32.0.1/ok", true)

		assert.NoError(t, err)
		assert.Equal(t, "http://172.32.0.1/ok", got)
	})
}
