package listing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
)

// NextPageFunc locates the URL of the page following currentURL, or
// returns an empty string when pagination has ended. The raw HTML is
// provided alongside the parsed document for pages whose pagination
// controls are rendered client-side.
type NextPageFunc func(doc *goquery.Document, currentURL, html string) string

var (
	nextTextPattern = regexp.MustCompile(`(?i)next`)
	listingPageURL  = regexp.MustCompile(`https://www\.backstage\.com/talent/[^"\s<>\)]*[?&]page=(\d+)`)
)

// FindNextPage is the default next-page heuristic. Strategies are tried
// in order: an anchor labelled "Next", a rel="next" link, page URLs
// embedded in the raw HTML, and finally incrementing the page query
// parameter of the current URL.
func FindNextPage(doc *goquery.Document, currentURL, html string) string {
	// Strategy 1: anchor whose text says "Next"
	if next := findAnchor(doc, currentURL, func(sel *goquery.Selection) bool {
		return nextTextPattern.MatchString(strings.TrimSpace(sel.Text()))
	}); next != "" {
		return next
	}

	// Strategy 2: rel="next"
	if next := findAnchor(doc, currentURL, func(sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		return rel == "next"
	}); next != "" {
		return next
	}

	// Strategy 3: page URLs embedded in the raw HTML
	if next := nextFromEmbeddedPageURLs(currentURL, html); next != "" {
		return next
	}

	// Strategy 4: increment the page query parameter
	currentPage := backstage.PageNumber(currentURL)
	if strings.Contains(currentURL, "?page=") || strings.Contains(currentURL, "&page=") {
		return backstage.WithPage(currentURL, currentPage+1)
	}

	// First page with no page parameter. Only advance when the markup
	// gives some evidence a second page exists.
	if strings.Contains(html, "?page=2") {
		return backstage.WithPage(currentURL, 2)
	}

	return ""
}

// findAnchor returns the normalized href of the first anchor matching
// the predicate, or an empty string
func findAnchor(doc *goquery.Document, currentURL string, match func(*goquery.Selection) bool) string {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !match(sel) {
			return true
		}
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		found = backstage.NormalizeURL(href, currentURL)
		return found == ""
	})
	return found
}

// nextFromEmbeddedPageURLs scans raw HTML for listing page URLs and
// returns the URL for the page after the current one, if the markup
// references that page number or a higher one
func nextFromEmbeddedPageURLs(currentURL, html string) string {
	matches := listingPageURL.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return ""
	}

	maxPage := 0
	for _, m := range matches {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxPage {
			maxPage = n
		}
	}

	nextPage := backstage.PageNumber(currentURL) + 1
	if nextPage > maxPage {
		return ""
	}

	return backstage.WithPage(currentURL, nextPage)
}

// PageRangeNext returns a NextPageFunc that walks pages strictly by
// incrementing the page parameter, with no markup inspection. Useful
// against fixtures whose pagination controls are known in advance.
func PageRangeNext(lastPage int) NextPageFunc {
	return func(_ *goquery.Document, currentURL, _ string) string {
		next := backstage.PageNumber(currentURL) + 1
		if lastPage > 0 && next > lastPage {
			return ""
		}
		return backstage.WithPage(currentURL, next)
	}
}
