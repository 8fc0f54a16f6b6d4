// Package validation normalizes and checks candidate destination URLs.
package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/vadimbarashkov/linkly/internal/entity"
)

const (
	maxURLLength      = 2048
	maxHostnameLength = 253
)

// privateHostPatterns match loopback and private-network hosts. Links to
// these hosts are refused in production so the service cannot be used to
// probe its own network.
var privateHostPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^localhost$`),
	regexp.MustCompile(`^127\.0\.0\.1$`),
	regexp.MustCompile(`^0\.0\.0\.0$`),
	regexp.MustCompile(`^192\.168\.`),
	regexp.MustCompile(`^10\.`),
	regexp.MustCompile(`^172\.(1[6-9]|2[0-9]|3[0-1])\.`),
	regexp.MustCompile(`^::1$`),
}

// NormalizeURL validates raw as an absolute http(s) URL and returns its
// canonical form: a single trailing slash is stripped from the path unless
// the path is exactly "/", so variants differing only by trailing slash
// persist identically. In production mode URLs pointing at private or
// loopback hosts are rejected with entity.ErrURLNotAllowed, which is
// distinct from the malformed-URL validation errors. The function is pure.
func NormalizeURL(raw string, prodMode bool) (string, error) {
	if raw == "" {
		return "", &entity.ValidationError{Field: "original_url", Reason: "must not be empty"}
	}
	if len(raw) > maxURLLength {
		return "", &entity.ValidationError{
			Field:  "original_url",
			Reason: fmt.Sprintf("must not exceed %d characters", maxURLLength),
		}
	}

	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", &entity.ValidationError{Field: "original_url", Reason: "must be an absolute URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &entity.ValidationError{Field: "original_url", Reason: "scheme must be http or https"}
	}

	host := u.Hostname()
	switch {
	case host == "":
		return "", &entity.ValidationError{Field: "original_url", Reason: "must contain a host"}
	case len(host) > maxHostnameLength:
		return "", &entity.ValidationError{
			Field:  "original_url",
			Reason: fmt.Sprintf("host must not exceed %d characters", maxHostnameLength),
		}
	case !strings.Contains(host, ".") && !strings.EqualFold(host, "localhost"):
		return "", &entity.ValidationError{Field: "original_url", Reason: "host must contain a dot"}
	case strings.Contains(host, "..") || strings.ContainsAny(host, "<>"):
		return "", &entity.ValidationError{Field: "original_url", Reason: "host contains forbidden characters"}
	}

	if prodMode && isPrivateHost(host) {
		return "", fmt.Errorf("host %q: %w", host, entity.ErrURLNotAllowed)
	}

	if strings.HasSuffix(u.Path, "/") && u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = ""
	}

	return u.String(), nil
}

func isPrivateHost(host string) bool {
	for _, pattern := range privateHostPatterns {
		if pattern.MatchString(host) {
			return true
		}
	}
	return false
}
