// Package urlutil resolves relative URLs and generates the bounded set of
// alternate URLs (AMP/mobile variants) HTTPFetcher races against the primary.
package urlutil

import (
	"net/url"
	"strings"
)

// GenerateAlternates deterministically generates up to four alternate forms
// of rawURL (the path prefixed with /amp, the path suffixed with /amp, the
// query merged with outputType=amp, and the host prefixed with m.),
// deduplicated against each other and the input, in that fixed order. A form
// the input already has (an /amp path prefix or suffix, an m. host) is
// skipped. The same input always yields the same list.
func GenerateAlternates(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	seen := map[string]struct{}{strings.ToLower(u.String()): {}}
	var out []string
	add := func(candidate string) {
		key := strings.ToLower(candidate)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, candidate)
	}

	// 1. prefix the path with /amp
	if !strings.HasPrefix(u.Path, "/amp") {
		withPrefix := *u
		withPrefix.Path = "/amp" + ensureLeadingSlash(u.Path)
		add(withPrefix.String())
	}

	// 2. append /amp to the path
	if !strings.HasSuffix(strings.TrimRight(u.Path, "/"), "/amp") {
		withSuffix := *u
		withSuffix.Path = strings.TrimRight(u.Path, "/") + "/amp"
		add(withSuffix.String())
	}

	// 3. append/merge query parameter outputType=amp
	withQuery := *u
	q := withQuery.Query()
	q.Set("outputType", "amp")
	withQuery.RawQuery = q.Encode()
	add(withQuery.String())

	// 4. prepend m. to the hostname
	if !strings.HasPrefix(u.Hostname(), "m.") {
		withMobile := *u
		withMobile.Host = "m." + u.Host
		add(withMobile.String())
	}

	if len(out) > 4 {
		out = out[:4]
	}
	return out
}

func ensureLeadingSlash(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// ResolveAbsolute resolves ref against base and returns the absolute URL
// string, or "" if either fails to parse.
func ResolveAbsolute(base *url.URL, ref string) string {
	if base == nil || ref == "" {
		return ""
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	return resolved.String()
}

// Hostname returns the host of rawURL, or rawURL unchanged if it fails to parse.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
