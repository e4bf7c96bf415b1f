package backstage

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL for the Backstage site
	BaseURL = "https://www.backstage.com"

	// TalentPath is the path of the talent listing index
	TalentPath = "/talent/"

	// ProfilePathPrefix is the path prefix shared by all talent profiles
	ProfilePathPrefix = "/tal/"
)

var (
	// profilePathPattern matches the path of a profile page
	profilePathPattern = regexp.MustCompile(`^/tal/([^/]+)/?$`)

	// relativeProfilePattern matches /tal/<slug> references anywhere in raw HTML.
	// Listing pages are JS-rendered, so profile links often appear only inside
	// embedded JSON rather than anchor tags.
	relativeProfilePattern = regexp.MustCompile(`/tal/([^/"\s<>\)]+)`)

	// absoluteProfilePattern matches absolute profile URLs in raw HTML
	absoluteProfilePattern = regexp.MustCompile(`https://www\.backstage\.com/tal/([^/]+)/`)

	// pageParamPattern extracts the page query parameter from a URL
	pageParamPattern = regexp.MustCompile(`[?&]page=(\d+)`)

	// slugPattern extracts the slug segment from a profile URL
	slugPattern = regexp.MustCompile(`/tal/([^/]+)/?`)
)

// ListingURL constructs the URL for a listing page. Page 1 is the bare
// listing index, later pages carry a page query parameter.
func ListingURL(base string, page int) string {
	if base == "" {
		base = BaseURL + TalentPath
	}
	if page <= 1 {
		return base
	}
	separator := "?"
	if strings.Contains(base, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%spage=%d", base, separator, page)
}

// PageNumber extracts the page number from a listing URL, defaulting to 1
func PageNumber(listingURL string) int {
	match := pageParamPattern.FindStringSubmatch(listingURL)
	if match == nil {
		return 1
	}
	page, err := strconv.Atoi(match[1])
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// WithPage returns the listing URL rewritten to point at the given page
func WithPage(listingURL string, page int) string {
	if pageParamPattern.MatchString(listingURL) {
		return pageParamPattern.ReplaceAllString(listingURL, pageReplacement(listingURL, page))
	}
	separator := "?"
	if strings.Contains(listingURL, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%spage=%d", listingURL, separator, page)
}

func pageReplacement(listingURL string, page int) string {
	match := pageParamPattern.FindString(listingURL)
	if match == "" {
		return ""
	}
	// Keep the original ? or & prefix
	return fmt.Sprintf("%cpage=%d", match[0], page)
}

// ProfileSlug extracts the slug when rawURL is a profile page on the
// same host as the site base. Returns an empty string otherwise.
func ProfileSlug(rawURL, base string) string {
	if base == "" {
		base = BaseURL
	}
	baseParsed, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host != baseParsed.Host {
		return ""
	}
	match := profilePathPattern.FindStringSubmatch(u.Path)
	if match == nil {
		return ""
	}
	return match[1]
}

// ProfileURL builds the profile URL for a slug on the given site base.
// An empty base means the canonical site.
func ProfileURL(base, slug string) string {
	if base == "" {
		base = BaseURL
	}
	return fmt.Sprintf("%s%s%s/", strings.TrimSuffix(base, "/"), ProfilePathPrefix, slug)
}

// SlugFromProfileURL extracts the slug segment from a profile URL.
// Returns an empty string if the URL is not a profile URL.
func SlugFromProfileURL(profileURL string) string {
	match := slugPattern.FindStringSubmatch(profileURL)
	if match == nil {
		return ""
	}
	return match[1]
}

// NameFromSlug derives a display name from a profile slug by replacing
// hyphens with spaces and title-casing each word
func NameFromSlug(slug string) string {
	words := strings.Split(strings.ReplaceAll(slug, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// NormalizeURL converts a possibly relative href into an absolute URL.
// Returns an empty string for hrefs that cannot be resolved.
func NormalizeURL(href, currentURL string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	// Protocol-relative
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	// Absolute path, resolve against the current page's host when known
	if strings.HasPrefix(href, "/") {
		if currentURL != "" {
			if base, err := url.Parse(currentURL); err == nil && base.Host != "" {
				return base.Scheme + "://" + base.Host + href
			}
		}
		return BaseURL + href
	}

	// Relative path, resolve against the current page
	if currentURL != "" {
		base, err := url.Parse(currentURL)
		if err == nil {
			ref, err := url.Parse(href)
			if err == nil {
				return base.ResolveReference(ref).String()
			}
		}
	}

	return BaseURL + "/" + href
}

// FindRelativeProfileSlugs returns all profile slugs referenced by
// relative /tal/ paths in raw HTML, in order of appearance
func FindRelativeProfileSlugs(html string) []string {
	matches := relativeProfilePattern.FindAllStringSubmatch(html, -1)
	slugs := make([]string, 0, len(matches))
	for _, m := range matches {
		slugs = append(slugs, m[1])
	}
	return slugs
}

// FindAbsoluteProfileSlugs returns all profile slugs referenced by
// absolute profile URLs in raw HTML, in order of appearance
func FindAbsoluteProfileSlugs(html string) []string {
	matches := absoluteProfilePattern.FindAllStringSubmatch(html, -1)
	slugs := make([]string, 0, len(matches))
	for _, m := range matches {
		slugs = append(slugs, m[1])
	}
	return slugs
}
