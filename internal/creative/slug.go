package creative

import (
	"regexp"
	"strings"
)

var (
	nonWordRe   = regexp.MustCompile(`[^\w\s.-]`)
	separatorRe = regexp.MustCompile(`[.\s_]+`)
	hyphenRunRe = regexp.MustCompile(`-+`)
)

// Slugify converts a business or offer name to a token-safe slug:
// lowercase, non-word characters stripped (hyphens and dots kept),
// dots/spaces/underscores collapsed to single hyphens, no leading or
// trailing hyphen.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonWordRe.ReplaceAllString(slug, "")
	slug = separatorRe.ReplaceAllString(slug, "-")
	slug = hyphenRunRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
