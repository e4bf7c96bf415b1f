package listing

import (
	"context"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
)

// siteBase reduces a listing page URL to its scheme and host so parsed
// profile links resolve against the site actually being walked
func siteBase(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// PageFetcher fetches a page and returns the parsed document plus the
// raw HTML it was built from
type PageFetcher interface {
	FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, string, error)
}

// saveInterval is how many pages are walked between incremental saves
// of the accumulated profile list
const saveInterval = 10

// Walker walks listing pages in increasing page order and accumulates
// the profile links found on them
type Walker struct {
	fetcher  PageFetcher
	nextPage NextPageFunc
	logger   logger.Logger
}

// WalkOptions controls a single walk
type WalkOptions struct {
	// BaseURL is the first listing page. Empty means the site's talent index.
	BaseURL string
	// MaxPages caps how many pages are fetched (0 = unlimited)
	MaxPages int
	// OnProgress, when set, is called with the accumulated profiles
	// every few pages so long walks persist partial results
	OnProgress func(profiles []Profile)
}

// NewWalker creates a walker using the default next-page heuristic
func NewWalker(fetcher PageFetcher, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{
		fetcher:  fetcher,
		nextPage: FindNextPage,
		logger:   log,
	}
}

// WithNextPage replaces the next-page heuristic
func (w *Walker) WithNextPage(next NextPageFunc) *Walker {
	w.nextPage = next
	return w
}

// Walk fetches listing pages starting from the base URL and collects
// profile links until pagination ends, a page yields nothing new, the
// page cap is reached, or a page fetch fails after exhausting retries.
// A failed fetch ends the walk with the profiles gathered so far; it is
// not returned as an error.
func (w *Walker) Walk(ctx context.Context, opts WalkOptions) ([]Profile, error) {
	currentURL := opts.BaseURL
	if currentURL == "" {
		currentURL = backstage.BaseURL + backstage.TalentPath
	}

	var all []Profile
	seenProfiles := make(map[string]bool)
	seenPages := make(map[string]bool)
	pageNum := 1

	w.logger.InfoWithFields("starting listing walk", map[string]interface{}{
		"base_url":  currentURL,
		"max_pages": opts.MaxPages,
	})

	for {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		// Loop guard: never visit the same page URL twice
		if seenPages[currentURL] {
			w.logger.WarnWithFields("already visited page, stopping to prevent loop", map[string]interface{}{
				"url": currentURL,
			})
			break
		}
		seenPages[currentURL] = true

		if opts.MaxPages > 0 && pageNum > opts.MaxPages {
			w.logger.InfoWithFields("reached page cap", map[string]interface{}{
				"max_pages": opts.MaxPages,
			})
			break
		}

		doc, html, err := w.fetcher.FetchDocument(ctx, currentURL)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			w.logger.ErrorWithFields("listing page fetch failed, ending walk with partial results", map[string]interface{}{
				"page":  pageNum,
				"url":   currentURL,
				"error": err.Error(),
			})
			break
		}

		pageProfiles := ParsePage(doc, html, siteBase(currentURL))

		added := 0
		for _, p := range pageProfiles {
			if seenProfiles[p.URL] {
				continue
			}
			seenProfiles[p.URL] = true
			all = append(all, p)
			added++
		}

		w.logger.InfoWithFields("listing page scraped", map[string]interface{}{
			"page":  pageNum,
			"new":   added,
			"total": len(all),
		})

		// A page with nothing new means pagination has run out
		if added == 0 {
			w.logger.Info("no new profiles found, reached the end")
			break
		}

		if opts.OnProgress != nil && pageNum%saveInterval == 0 {
			opts.OnProgress(all)
		}

		nextURL := w.nextPage(doc, currentURL, html)
		if nextURL == "" {
			w.logger.Info("no next page found, walk complete")
			break
		}

		currentURL = nextURL
		pageNum++
	}

	w.logger.InfoWithFields("listing walk finished", map[string]interface{}{
		"pages":    pageNum,
		"profiles": len(all),
	})

	return all, nil
}
