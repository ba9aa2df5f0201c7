// Package assets resolves asset paths that scripts declare relative to
// their own location.
package assets

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

type Resolver struct {
	base *url.URL
}

// NewResolver accepts a URL (file://, http://, ...) or a filesystem path,
// which is made absolute and turned into a file:// URL.
func NewResolver(base string) (*Resolver, error) {
	if base == "" {
		return nil, fmt.Errorf("asset base cannot be empty")
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // single letter is a windows drive
		abs, absErr := filepath.Abs(base)
		if absErr != nil {
			return nil, fmt.Errorf("asset base '%s': %w", base, absErr)
		}
		u = &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return &Resolver{base: u}, nil
}

func (r *Resolver) Base() string {
	return r.base.String()
}

// Resolve joins a relative path onto the base. Absolute URLs pass through.
func (r *Resolver) Resolve(relative string) string {
	ref, err := url.Parse(relative)
	if err != nil {
		return r.base.String() + relative
	}
	return r.base.ResolveReference(ref).String()
}

// Sub returns a resolver rooted at a directory below this one.
func (r *Resolver) Sub(dir string) *Resolver {
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	sub, _ := url.Parse(r.Resolve(dir))
	return &Resolver{base: sub}
}

// LocalPath maps a file:// URL, or a bare path, to a filesystem path.
func LocalPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	switch u.Scheme {
	case "file":
		return filepath.FromSlash(u.Path), true
	case "":
		return rawURL, true
	default:
		return "", false
	}
}
