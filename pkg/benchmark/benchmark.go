package benchmark

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JoshTKx/actress-webscraper/pkg/config"
	"github.com/JoshTKx/actress-webscraper/pkg/listing"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/retry"
	"github.com/JoshTKx/actress-webscraper/pkg/scraper"
	"github.com/JoshTKx/actress-webscraper/pkg/storage"
)

// Configuration is one worker-count combination to time
type Configuration struct {
	ProfileWorkers int
	ImageWorkers   int
	Description    string
}

// Result holds the measured outcome for one configuration
type Result struct {
	Config            Configuration
	Duration          time.Duration
	ProfilesSucceeded int
	ProfilesFailed    int
	ImagesDownloaded  int
	ImagesFailed      int
	RateLimitHits     int
	ImagesPerSecond   float64
	ProfilesPerSecond float64
}

// DefaultConfigurations are the worker combinations the benchmark walks,
// from the sequential baseline up to the most aggressive pairing
func DefaultConfigurations() []Configuration {
	return []Configuration{
		{1, 1, "Sequential (baseline)"},
		{1, 3, "1 profile, 3 images"},
		{1, 5, "1 profile, 5 images"},
		{1, 10, "1 profile, 10 images"},
		{2, 3, "2 profiles, 3 images"},
		{2, 5, "2 profiles, 5 images"},
		{2, 10, "2 profiles, 10 images"},
		{3, 3, "3 profiles, 3 images"},
		{3, 5, "3 profiles, 5 images"},
		{3, 10, "3 profiles, 10 images"},
		{5, 5, "5 profiles, 5 images"},
		{5, 10, "5 profiles, 10 images"},
	}
}

// cooldown separates configuration runs so one run's rate-limit fallout
// does not bleed into the next measurement
const cooldown = 5 * time.Second

// imageCap bounds downloads per profile during a benchmark run, keeping
// measurements comparable when profiles have very different gallery sizes
const imageCap = 10

// Runner times scraper runs across worker configurations
type Runner struct {
	cfg     *config.Config
	client  scraper.SiteClient
	storage *storage.Manager
	configs []Configuration
	logger  logger.Logger
}

// NewRunner creates a benchmark runner with the default configurations
func NewRunner(cfg *config.Config, client scraper.SiteClient, store *storage.Manager, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Runner{
		cfg:     cfg,
		client:  client,
		storage: store,
		configs: DefaultConfigurations(),
		logger:  log,
	}
}

// WithConfigurations replaces the configuration set
func (r *Runner) WithConfigurations(configs []Configuration) *Runner {
	r.configs = configs
	return r
}

// Run times every configuration against the given sample of profiles
// and returns the per-configuration results. A failed configuration is
// logged and skipped; the benchmark keeps going.
func (r *Runner) Run(ctx context.Context, profiles []listing.Profile) ([]Result, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles to benchmark with")
	}

	r.logger.InfoWithFields("starting worker benchmark", map[string]interface{}{
		"profiles":       len(profiles),
		"configurations": len(r.configs),
	})

	results := make([]Result, 0, len(r.configs))

	for i, bc := range r.configs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		r.logger.InfoWithFields("benchmarking configuration", map[string]interface{}{
			"config":          bc.Description,
			"profile_workers": bc.ProfileWorkers,
			"image_workers":   bc.ImageWorkers,
		})

		result := r.runOne(ctx, bc, profiles)
		results = append(results, result)

		r.logger.InfoWithFields("configuration complete", map[string]interface{}{
			"config":     bc.Description,
			"duration":   result.Duration,
			"images":     result.ImagesDownloaded,
			"img_per_s":  fmt.Sprintf("%.2f", result.ImagesPerSecond),
			"rate_hits":  result.RateLimitHits,
			"img_failed": result.ImagesFailed,
		})

		// Cooldown between runs, skipped after the last one
		if i < len(r.configs)-1 {
			if err := retry.Wait(ctx, cooldown); err != nil {
				return results, err
			}
		}
	}

	return results, nil
}

// runOne times a single configuration. Worker counts are overridden on
// a copy of the run configuration so runs are independent.
func (r *Runner) runOne(ctx context.Context, bc Configuration, profiles []listing.Profile) Result {
	runCfg := *r.cfg
	runCfg.Scrape.ProfileWorkers = bc.ProfileWorkers
	runCfg.Scrape.ImageWorkers = bc.ImageWorkers

	s := scraper.New(&runCfg, r.client, r.storage, r.logger)

	start := time.Now()
	summary, _ := s.Run(ctx, scraper.Options{
		Profiles:            profiles,
		SkipExisting:        false,
		MaxImagesPerProfile: imageCap,
	})
	duration := time.Since(start)

	result := Result{
		Config:            bc,
		Duration:          duration,
		ProfilesSucceeded: summary.ProfilesSucceeded,
		ProfilesFailed:    summary.ProfilesFailed,
		ImagesDownloaded:  summary.ImagesDownloaded,
		ImagesFailed:      summary.ImagesFailed,
		RateLimitHits:     summary.RateLimitHits,
	}

	if seconds := duration.Seconds(); seconds > 0 {
		result.ImagesPerSecond = float64(summary.ImagesDownloaded) / seconds
		result.ProfilesPerSecond = float64(summary.ProfilesSucceeded) / seconds
	}

	return result
}

// Rank sorts results by image throughput, fastest first
func Rank(results []Result) []Result {
	ranked := make([]Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ImagesPerSecond > ranked[j].ImagesPerSecond
	})
	return ranked
}

// Recommend picks the best configuration: the fastest one that hit no
// rate limits and no failures. When every configuration had trouble,
// the one with the fewest rate-limit hits (throughput as tiebreak) is
// returned instead.
func Recommend(results []Result) *Result {
	ranked := Rank(results)
	if len(ranked) == 0 {
		return nil
	}

	for i := range ranked {
		if ranked[i].RateLimitHits == 0 && ranked[i].ImagesFailed == 0 {
			return &ranked[i]
		}
	}

	best := &ranked[0]
	for i := range ranked {
		if ranked[i].RateLimitHits < best.RateLimitHits {
			best = &ranked[i]
		}
	}
	return best
}

// RecommendConservative picks a configuration safe for long scrapes: at
// most 2 profile workers and 5 image workers, with no rate-limit hits.
// Returns nil when no configuration qualifies.
func RecommendConservative(results []Result) *Result {
	ranked := Rank(results)
	for i := range ranked {
		if ranked[i].Config.ProfileWorkers <= 2 &&
			ranked[i].Config.ImageWorkers <= 5 &&
			ranked[i].RateLimitHits == 0 {
			return &ranked[i]
		}
	}
	return nil
}
