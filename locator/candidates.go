package locator

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var reNonAlnum = regexp.MustCompile(`[^a-zA-Z0-9 ]+`)

// Candidates generates the ordered, de-duplicated list of page-title slugs
// tried for a given item name. Order is significant: earlier candidates are
// always preferred (first-match-wins, not best-match), and tests pin the
// ordering, so new variants go at the end.
func Candidates(name, namespace string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(slug string) {
		if slug == "" {
			return
		}
		if _, ok := seen[slug]; ok {
			return
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}

	// (a) verbatim name, wiki-style underscores
	add(underscore(name))
	// (b) percent-encoded variant (spaces as %20)
	add(url.PathEscape(name))
	// (c) non-alphanumeric characters stripped
	add(underscore(reNonAlnum.ReplaceAllString(name, "")))
	// (d) namespaced variant
	if namespace != "" {
		add(namespace + ":" + underscore(name))
	}
	// (e) capitalization-normalized (first letter of each word upper, rest lower)
	add(underscore(titleCase(name)))
	// (f) fully lowercased
	add(underscore(strings.ToLower(name)))

	return out
}

func underscore(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// titleCase uppercases the first rune of each space-separated word and
// lowercases the rest.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
