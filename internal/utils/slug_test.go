package utils

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"10 Tips & Tricks for SEO!":    "10-tips-tricks-for-seo",
		"Hello, World":                 "hello-world",
		"  Leading and trailing  ":     "leading-and-trailing",
		"UPPER case TITLE":             "upper-case-title",
		"multiple---separators___here": "multiple-separators-here",
		"already-a-slug":               "already-a-slug",
		"":                             "",
		"   ":                          "",
		"!!!":                          "",
		"Go 1.25 Release Notes":        "go-1-25-release-notes",
	}

	for title, want := range cases {
		assert.Equal(t, want, Slugify(title), "title %q", title)
	}
}

func TestSlugifyShape(t *testing.T) {
	shape := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	titles := []string{
		"The Quick Brown Fox",
		"Ünïcödé & Emoji 🚀 Everywhere",
		"a",
		"--hyphens--everywhere--",
		"What is a CMS? (And Why You Need One)",
	}

	for _, title := range titles {
		slug := Slugify(title)
		if slug == "" {
			continue
		}
		assert.True(t, shape.MatchString(slug), "slug %q from title %q", slug, title)
		assert.False(t, strings.Contains(slug, "--"), "slug %q has a double hyphen", slug)
	}
}
