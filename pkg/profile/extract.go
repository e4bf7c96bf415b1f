package profile

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
)

var (
	// cloudfrontPattern matches CDN-hosted image URLs in raw HTML. The
	// optional site prefix handles malformed double-prefixed URLs that
	// appear in embedded JSON.
	cloudfrontPattern = regexp.MustCompile(`(?i)(?:https?://(?:www\.backstage\.com)?)?https://[^"\s<>\)]+cloudfront\.net[^"\s<>\)]+\.(?:jpg|jpeg|png|gif|webp)`)

	// genericImagePattern matches any image-looking URL, used as a
	// fallback when no CDN URLs are present
	genericImagePattern = regexp.MustCompile(`(?i)https?://[^\s"'<>\)]+\.(?:jpg|jpeg|png|gif|webp)(?:\?[^\s"'<>\)]*)?`)

	// uuidPattern identifies the image ID embedded in CDN URLs, so the
	// same image served under different size suffixes deduplicates
	uuidPattern = regexp.MustCompile(`(?i)[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)
)

// nonImagePatterns mark URLs that are trackers, media files, or ad
// beacons rather than photos
var nonImagePatterns = []string{
	"youtube", ".mp3", ".mp4", ".wav", ".m4a", ".avi", ".mov",
	"linkedin.com/collect", "facebook.com/tr", "google-analytics",
	"doubleclick", "googlesyndication", "adservice", "ads.", "pixel",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"}

// ExtractImageURLs extracts the photo URLs from a profile page, in
// discovery order with duplicates collapsed. Image tags in the parsed
// document are tried first; profile galleries are script-rendered, so
// the raw HTML is also scanned for CDN image URLs. When the same photo
// appears in several sizes, the full-size variant is preferred.
func ExtractImageURLs(doc *goquery.Document, html, pageURL string) []string {
	var candidates []string

	// Image tags present in the initial markup
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		src, ok := sel.Attr("src")
		if !ok || src == "" {
			src, _ = sel.Attr("data-src")
		}
		normalized := normalizeImageURL(src, pageURL)
		if normalized == "" {
			return
		}
		lower := strings.ToLower(normalized)
		if !isImageURL(lower) || isExcluded(lower) || isThumbnail(lower) {
			return
		}
		candidates = append(candidates, normalized)
	})

	// CDN URLs in raw HTML, where script-rendered galleries live
	for _, match := range cloudfrontPattern.FindAllString(html, -1) {
		normalized := normalizeImageURL(match, pageURL)
		if normalized == "" {
			continue
		}
		lower := strings.ToLower(normalized)
		if !isImageURL(lower) || isExcluded(lower) || isThumbnail(lower) {
			continue
		}
		// Profile photos live under the casting_call directory
		if !strings.Contains(lower, "casting_call") {
			continue
		}
		candidates = append(candidates, normalized)
	}

	// Fallback: any image-looking URL in the raw HTML
	if len(candidates) == 0 {
		for _, match := range genericImagePattern.FindAllString(html, -1) {
			normalized := normalizeImageURL(match, pageURL)
			if normalized == "" {
				continue
			}
			lower := strings.ToLower(normalized)
			if !isImageURL(lower) || strings.Contains(lower, "placeholder") {
				continue
			}
			candidates = append(candidates, normalized)
		}
	}

	return dedupe(candidates)
}

// dedupe collapses candidate URLs that refer to the same photo. URLs
// sharing an embedded image ID are grouped, and within each group the
// variant carrying a size suffix (full-size) wins over the bare ID.
func dedupe(candidates []string) []string {
	type group struct {
		urls []string
	}

	groups := make(map[string]*group)
	var order []string

	for _, u := range candidates {
		key := uuidPattern.FindString(u)
		if key != "" {
			key = strings.ToLower(key)
		} else {
			key = stripQuery(u)
		}

		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}

		// Skip exact duplicates within the group
		exists := false
		for _, seen := range g.urls {
			if seen == u {
				exists = true
				break
			}
		}
		if !exists {
			g.urls = append(g.urls, u)
		}
	}

	result := make([]string, 0, len(order))
	seen := make(map[string]bool)

	for _, key := range order {
		g := groups[key]
		best := g.urls[0]
		for _, u := range g.urls {
			// The full-size variant carries a "-bWFpbi" suffix (base64
			// for "main") or is noticeably longer than the bare ID URL
			lower := strings.ToLower(u)
			if strings.Contains(lower, "-bwfpbi") || len(u) > len(g.urls[0])+20 {
				best = u
				break
			}
		}

		normalized := stripQuery(best)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, best)
	}

	return result
}

// normalizeImageURL converts a possibly relative or malformed image URL
// into a clean absolute URL. Returns an empty string when unusable.
func normalizeImageURL(raw, pageURL string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	// Embedded JSON sometimes yields URLs with a doubled site prefix
	raw = strings.ReplaceAll(raw, "https://www.backstage.comhttps://", "https://")
	raw = strings.ReplaceAll(raw, "https://www.backstage.comhttp://", "https://")
	raw = strings.ReplaceAll(raw, "http://www.backstage.comhttp://", "http://")

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	return backstage.NormalizeURL(raw, pageURL)
}

// isImageURL reports whether the lowercase URL looks like a photo
// rather than a video, tracker, or ad beacon
func isImageURL(lower string) bool {
	for _, pattern := range nonImagePatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}

	base := stripQuery(lower)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}

	// No image extension, but nothing marking it as non-image either
	return true
}

func isExcluded(lower string) bool {
	return strings.Contains(lower, "placeholder") ||
		strings.Contains(lower, "favicon") ||
		strings.Contains(lower, "icon")
}

// isThumbnail reports whether the URL points at a thumbnail variant.
// Thumbnails carry "c3F1YXJlX3RodW1i" (base64 for "square_thumb") or a
// plain thumb marker in the filename.
func isThumbnail(lower string) bool {
	return strings.Contains(lower, "c3f1yxjlx3rodw1i") ||
		strings.Contains(lower, "square_thumb") ||
		strings.Contains(lower, "thumb")
}

// stripQuery removes the query string and fragment for comparison
func stripQuery(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// GuessExtension derives the file extension for an image URL, defaulting
// to .jpg when the URL gives no hint
func GuessExtension(imageURL string) string {
	lower := strings.ToLower(imageURL)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.Contains(lower, ext) {
			return ext
		}
	}
	return ".jpg"
}
