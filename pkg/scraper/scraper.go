package scraper

import (
	"context"
	"errors"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/JoshTKx/actress-webscraper/internal/downloader"
	"github.com/JoshTKx/actress-webscraper/pkg/config"
	errs "github.com/JoshTKx/actress-webscraper/pkg/errors"
	"github.com/JoshTKx/actress-webscraper/pkg/listing"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/profile"
	"github.com/JoshTKx/actress-webscraper/pkg/storage"
)

// SiteClient is the HTTP surface the orchestrator needs
type SiteClient interface {
	FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, string, error)
	DownloadImage(ctx context.Context, imageURL, referer string) ([]byte, error)
}

// ProfileOutcome describes what happened to one profile, for progress
// reporting
type ProfileOutcome struct {
	Profile    listing.Profile
	Skipped    bool
	Failed     bool
	ImagesOK   int
	ImagesFail int
	Bytes      int64
}

// Options controls one orchestrator run
type Options struct {
	// Profiles is the list to download
	Profiles []listing.Profile
	// SkipExisting skips profiles whose output directory already has images
	SkipExisting bool
	// MaxProfiles caps how many profiles are processed (0 = all)
	MaxProfiles int
	// MaxImagesPerProfile caps how many images are downloaded per
	// profile (0 = all). Benchmark runs use this to keep measurements
	// comparable across profiles.
	MaxImagesPerProfile int
	// OnProfile, when set, is called after each profile completes
	OnProfile func(outcome ProfileOutcome)
}

// Scraper coordinates the two-level download pipeline: a bounded set of
// profile workers, each running a bounded image pool for one profile at
// a time.
type Scraper struct {
	cfg     *config.Config
	client  SiteClient
	storage *storage.Manager
	stats   *Stats
	logger  logger.Logger
}

// New creates a scraper
func New(cfg *config.Config, client SiteClient, store *storage.Manager, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scraper{
		cfg:     cfg,
		client:  client,
		storage: store,
		stats:   NewStats(),
		logger:  log,
	}
}

// Run downloads images for every profile in the list using the
// configured worker counts. Individual profile and image failures are
// counted and logged but never abort the run.
func (s *Scraper) Run(ctx context.Context, opts Options) (Summary, error) {
	profiles := opts.Profiles
	if opts.MaxProfiles > 0 && len(profiles) > opts.MaxProfiles {
		profiles = profiles[:opts.MaxProfiles]
	}

	s.logger.InfoWithFields("starting download run", map[string]interface{}{
		"profiles":        len(profiles),
		"profile_workers": s.cfg.Scrape.ProfileWorkers,
		"image_workers":   s.cfg.Scrape.ImageWorkers,
		"skip_existing":   opts.SkipExisting,
	})

	jobs := make(chan listing.Profile)

	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Scrape.ProfileWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for p := range jobs {
				if ctx.Err() != nil {
					return
				}
				outcome := s.processProfile(ctx, p, opts, workerID)
				if opts.OnProfile != nil {
					opts.OnProfile(outcome)
				}
			}
		}(i)
	}

	for _, p := range profiles {
		select {
		case jobs <- p:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)

	wg.Wait()
	s.stats.Finish()

	summary := s.stats.Snapshot()
	s.logger.InfoWithFields("download run finished", map[string]interface{}{
		"profiles_attempted": summary.ProfilesAttempted,
		"profiles_succeeded": summary.ProfilesSucceeded,
		"profiles_skipped":   summary.ProfilesSkipped,
		"profiles_failed":    summary.ProfilesFailed,
		"images_downloaded":  summary.ImagesDownloaded,
		"images_failed":      summary.ImagesFailed,
		"rate_limit_hits":    summary.RateLimitHits,
		"duration":           summary.Duration,
	})

	return summary, ctx.Err()
}

// ScrapeProfile downloads a single profile, bypassing the listing phase
func (s *Scraper) ScrapeProfile(ctx context.Context, profileURL, name string) (Summary, error) {
	p := listing.Profile{URL: profileURL, Name: name}
	if p.Name == "" {
		p.Name = p.Slug()
	}

	return s.Run(ctx, Options{
		Profiles:     []listing.Profile{p},
		SkipExisting: false,
	})
}

// Stats returns the run statistics collector
func (s *Scraper) Stats() *Stats {
	return s.stats
}

// processProfile handles one profile: the skip check, the page fetch,
// image extraction, and the inner image pool
func (s *Scraper) processProfile(ctx context.Context, p listing.Profile, opts Options, workerID int) ProfileOutcome {
	outcome := ProfileOutcome{Profile: p}

	slug := p.Slug()
	if slug == "" {
		slug = p.Name
	}

	log := s.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"slug":      slug,
	})

	// The skip check happens before any request is issued
	if opts.SkipExisting && s.storage.HasImages(slug) {
		log.WithField("images", s.storage.CountImages(slug)).Info("profile already downloaded, skipping")
		s.stats.profileSkipped()
		outcome.Skipped = true
		return outcome
	}

	s.stats.profileAttempted()

	doc, html, err := s.client.FetchDocument(ctx, p.URL)
	if err != nil {
		s.recordProfileError(err)
		log.WithError(err).Error("profile page fetch failed")
		outcome.Failed = true
		return outcome
	}

	imageURLs := profile.ExtractImageURLs(doc, html, p.URL)
	if opts.MaxImagesPerProfile > 0 && len(imageURLs) > opts.MaxImagesPerProfile {
		imageURLs = imageURLs[:opts.MaxImagesPerProfile]
	}
	if len(imageURLs) == 0 {
		log.Warn("no images found on profile page")
		s.stats.profileSucceeded()
		return outcome
	}

	log.WithField("images", len(imageURLs)).Info("downloading profile images")

	// Fresh inner pool per profile, bounded by the image worker count
	pool := downloader.NewPool(ctx, s.cfg.Scrape.ImageWorkers, s.client, s.storage, s.cfg.Image, s.logger)
	pool.Start()

	go func() {
		for i, imageURL := range imageURLs {
			s.stats.imageAttempted()
			if err := pool.Submit(downloader.ImageJob{
				URL:     imageURL,
				Index:   i + 1,
				Slug:    slug,
				Referer: p.URL,
			}); err != nil {
				s.stats.imageFailed()
			}
		}
		pool.Close()
	}()

	for result := range pool.Results() {
		if result.Success {
			s.stats.imageDownloaded(result.Size)
			outcome.ImagesOK++
			outcome.Bytes += int64(result.Size)
		} else {
			s.recordImageError(result.Error)
			outcome.ImagesFail++
		}
	}

	s.stats.profileSucceeded()

	log.InfoWithFields("profile complete", map[string]interface{}{
		"downloaded": outcome.ImagesOK,
		"failed":     outcome.ImagesFail,
	})

	return outcome
}

func (s *Scraper) recordProfileError(err error) {
	s.stats.profileFailed()
	s.noteRateLimit(err)
}

func (s *Scraper) recordImageError(err error) {
	s.stats.imageFailed()
	s.noteRateLimit(err)
}

func (s *Scraper) noteRateLimit(err error) {
	var scrapeErr *errs.Error
	if errors.As(err, &scrapeErr) {
		if scrapeErr.Type == errs.ErrorTypeRateLimit || scrapeErr.Type == errs.ErrorTypeBotBlocked {
			s.stats.rateLimited()
		}
	}
}
