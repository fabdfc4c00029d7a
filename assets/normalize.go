package assets

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// reScaleSegment matches CDN resizing path segments that must be stripped so
// the original-resolution image is downloaded.
var reScaleSegment = regexp.MustCompile(`/scale-to-width(?:-down)?/\d+`)

// reSanitize collapses runs of filesystem-hostile characters in identities.
var reSanitize = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// NormalizeRef canonicalizes an image reference: resizing segments are
// stripped, a /revision/ suffix collapses to /revision/latest with the
// cache-busting token preserved, and protocol-relative forms are upgraded.
// References without an absolute scheme or a recognized image extension are
// rejected.
func NormalizeRef(ref string) (string, error) {
	if strings.HasPrefix(ref, "//") {
		ref = "https:" + ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("assets: parse reference: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("assets: reference %q lacks an absolute scheme", ref)
	}

	p := reScaleSegment.ReplaceAllString(u.Path, "")
	if i := strings.Index(p, "/revision/"); i >= 0 {
		p = p[:i] + "/revision/latest"
	}
	u.Path = p

	if cb := u.Query().Get("cb"); cb != "" {
		u.RawQuery = "cb=" + cb
	} else {
		u.RawQuery = ""
	}
	u.Fragment = ""

	if !imageExts[extOf(p)] {
		return "", fmt.Errorf("assets: reference %q has no recognized image extension", ref)
	}
	return u.String(), nil
}

// ExtOf infers the file extension for a normalized reference, defaulting to
// ".png" when undeterminable.
func ExtOf(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ".png"
	}
	if ext := extOf(u.Path); imageExts[ext] {
		return ext
	}
	return ".png"
}

// extOf finds the image extension in p, looking past a /revision suffix.
func extOf(p string) string {
	if i := strings.Index(p, "/revision/"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Ext(p))
}

// SanitizeIdentity makes an item identity safe to use as a filename.
func SanitizeIdentity(identity string) string {
	s := reSanitize.ReplaceAllString(strings.TrimSpace(identity), "_")
	return strings.Trim(s, "_")
}
