package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mozillazg/go-unidecode"
)

var (
	slugStrip   = regexp.MustCompile(`[^a-z0-9\s-]+`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify derives a URL-safe identifier from a post title. Diacritics are
// transliterated to ASCII, everything else outside [a-z0-9 -] is dropped,
// whitespace and hyphen runs collapse to a single hyphen. Deterministic and
// idempotent: slugifying a slug returns it unchanged.
func Slugify(title string) string {
	slug := unidecode.Unidecode(strings.TrimSpace(title))
	slug = strings.ToLower(slug)
	slug = slugStrip.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ResolvePostSlug returns the slug for a title, suffixing a counter only when
// another post already holds it. excludeID skips the post being updated.
func ResolvePostSlug(db *sqlx.DB, title string, excludeID int64) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "post"
	}
	candidate := base
	counter := 2
	for {
		var exists bool
		err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM blog_posts WHERE slug = $1 AND id <> $2)`, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}
