// Package normalize turns substituted markup text into plain text.
package normalize

import (
	"regexp"
	"strings"
)

var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&#46;", ".",
	"&#8217;", "’",
	"&#8230;", "…",
	"&#8203;", "",
	"&#8220;", "“",
	"&#8221;", "”",
)

var tagPattern = regexp.MustCompile(`<[^<>]*>`)

// Text decodes the fixed entity set and strips inline tags.
// It repeats until nothing changes, so Text(Text(s)) == Text(s).
// Every pass that changes s makes it shorter, which bounds the loop.
func Text(s string) string {
	for {
		next := tagPattern.ReplaceAllString(entities.Replace(s), "")
		if next == s {
			return s
		}
		s = next
	}
}

// Texts normalizes every element. A nil input yields an empty, non-nil slice.
func Texts(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, Text(item))
	}

	return out
}
