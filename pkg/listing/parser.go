package listing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
)

// ParsePage extracts profile links from a listing page served by the
// site rooted at base (the canonical site when base is empty). Anchor
// tags are tried first so display names can be read from the link text;
// the raw HTML is then scanned for profile paths that only appear inside
// embedded JSON on script-rendered pages. Results keep first-seen order
// with duplicates removed.
func ParsePage(doc *goquery.Document, html, base string) []Profile {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		base = backstage.BaseURL
	}

	profiles := make([]Profile, 0, 50)
	seen := make(map[string]bool)

	// Anchor tags carry both the link and a usable display name
	doc.Find("a[href*='/tal/']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}

		var candidate string
		switch {
		case strings.HasPrefix(href, "/"):
			candidate = base + href
		case strings.HasPrefix(href, "http"):
			candidate = href
		default:
			return
		}

		slug := backstage.ProfileSlug(candidate, base)
		if slug == "" {
			return
		}

		profileURL := backstage.ProfileURL(base, slug)
		if seen[profileURL] {
			return
		}
		seen[profileURL] = true

		name := strings.TrimSpace(sel.Text())
		if name == "" {
			name = backstage.NameFromSlug(slug)
		}

		profiles = append(profiles, Profile{URL: profileURL, Name: name})
	})

	// Relative /tal/ references in raw markup. This is the primary source
	// on pages where the listing grid is rendered client-side.
	for _, slug := range backstage.FindRelativeProfileSlugs(html) {
		profileURL := backstage.ProfileURL(base, slug)
		if seen[profileURL] {
			continue
		}
		seen[profileURL] = true
		profiles = append(profiles, Profile{URL: profileURL, Name: backstage.NameFromSlug(slug)})
	}

	// Absolute URLs as a backup when the page yielded very little
	if len(profiles) < 10 {
		for _, slug := range backstage.FindAbsoluteProfileSlugs(html) {
			profileURL := backstage.ProfileURL(base, slug)
			if seen[profileURL] {
				continue
			}
			seen[profileURL] = true
			profiles = append(profiles, Profile{URL: profileURL, Name: backstage.NameFromSlug(slug)})
		}
	}

	return profiles
}
