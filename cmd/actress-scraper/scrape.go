package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
	"github.com/JoshTKx/actress-webscraper/pkg/config"
	"github.com/JoshTKx/actress-webscraper/pkg/listing"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/scraper"
	"github.com/JoshTKx/actress-webscraper/pkg/storage"
	"github.com/JoshTKx/actress-webscraper/pkg/ui"
)

var (
	// Scrape command flags
	maxPages       int
	maxProfiles    int
	requestDelay   time.Duration
	profileWorkers int
	imageWorkers   int
	requestBudget  int
	noResume       bool
	noSkipExisting bool
	profilesFile   string
	outputDir      string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Walk the talent listings and download all profile images",
	Long: `Walk the paginated talent listing, collect profile URLs, and download
each profile's photos.

When a profile list file already exists it is reused instead of walking
the listings again (disable with --no-resume). Profiles whose output
directory already contains images are skipped (disable with
--no-skip-existing).`,
	Example: `  # Scrape everything with default settings
  actress-scraper scrape

  # First 5 listing pages, at most 20 profiles
  actress-scraper scrape --max-pages 5 --max-profiles 20

  # More aggressive worker counts, shorter politeness delay
  actress-scraper scrape --profile-workers 5 --image-workers 10 --delay 1s

  # Ignore the saved profile list and re-walk the listings
  actress-scraper scrape --no-resume`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScrape()
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum listing pages to walk (0 = all)")
	scrapeCmd.Flags().IntVar(&maxProfiles, "max-profiles", 0, "maximum profiles to download (0 = all)")
	scrapeCmd.Flags().DurationVar(&requestDelay, "delay", 0, "politeness delay between requests (default from config)")
	scrapeCmd.Flags().IntVar(&profileWorkers, "profile-workers", 0, "number of profiles processed concurrently")
	scrapeCmd.Flags().IntVar(&imageWorkers, "image-workers", 0, "number of images downloaded concurrently per profile")
	scrapeCmd.Flags().IntVar(&requestBudget, "max-requests-per-minute", 0, "cap on total requests per minute (0 = no cap)")
	scrapeCmd.Flags().BoolVar(&noResume, "no-resume", false, "ignore an existing profile list file and re-walk the listings")
	scrapeCmd.Flags().BoolVar(&noSkipExisting, "no-skip-existing", false, "re-download profiles that already have images")
	scrapeCmd.Flags().StringVar(&profilesFile, "profiles-file", "", "path of the profile list file")
	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloaded images")
}

func runScrape() error {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if profilesFile != "" {
		flags["profiles-file"] = profilesFile
	}
	if profileWorkers > 0 {
		flags["profile-workers"] = profileWorkers
	}
	if imageWorkers > 0 {
		flags["image-workers"] = imageWorkers
	}
	if requestDelay > 0 {
		flags["delay"] = requestDelay
	}
	if requestBudget > 0 {
		flags["max-requests-per-minute"] = requestBudget
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetLogger()
	client := backstage.NewClient(cfg, log)
	client.EstablishSession(ctx)

	// Step 1: get the profile list, reusing a saved one when possible
	profiles, err := collectProfiles(ctx, cfg, client)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		ui.PrintError("No profiles found")
		return fmt.Errorf("no profiles found")
	}

	if maxProfiles > 0 && len(profiles) > maxProfiles {
		profiles = profiles[:maxProfiles]
	}
	ui.PrintInfo("Profiles to process", fmt.Sprintf("%d", len(profiles)))

	// Step 2: download images
	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err.Error())
		return err
	}

	s := scraper.New(cfg, client, store, log)

	progress := ui.NewProgressDisplay(len(profiles))
	summary, runErr := s.Run(ctx, scraper.Options{
		Profiles:     profiles,
		SkipExisting: !noSkipExisting,
		OnProfile: func(outcome scraper.ProfileOutcome) {
			switch {
			case outcome.Skipped:
				progress.ProfileSkipped()
			case outcome.Failed:
				progress.ProfileFailed()
			default:
				progress.ProfileDone(outcome.ImagesOK, outcome.ImagesFail, outcome.Bytes)
			}
		},
	})
	progress.Complete()

	printSummary(summary)

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}

// collectProfiles loads the saved profile list when resume is on and the
// file exists, walking the listing pages otherwise
func collectProfiles(ctx context.Context, cfg *config.Config, client *backstage.Client) ([]listing.Profile, error) {
	log := logger.GetLogger()

	if !noResume {
		if _, err := os.Stat(cfg.Output.ProfilesFile); err == nil {
			profiles, err := listing.LoadProfiles(cfg.Output.ProfilesFile)
			if err == nil && len(profiles) > 0 {
				ui.PrintInfo("Resuming from profile list", cfg.Output.ProfilesFile)
				return profiles, nil
			}
			if err != nil {
				log.WithError(err).Warn("failed to load saved profile list, re-walking listings")
			}
		}
	}

	ui.PrintHighlight("Walking talent listing pages...")

	walker := listing.NewWalker(client, log)
	profiles, err := walker.Walk(ctx, listing.WalkOptions{
		BaseURL:  cfg.Site.BaseURL + cfg.Site.ListingPath,
		MaxPages: maxPages,
		OnProgress: func(partial []listing.Profile) {
			if err := listing.SaveProfiles(partial, cfg.Output.ProfilesFile); err != nil {
				log.WithError(err).Warn("incremental profile list save failed")
			}
		},
	})
	if err != nil {
		return profiles, err
	}

	if len(profiles) > 0 {
		if err := listing.SaveProfiles(profiles, cfg.Output.ProfilesFile); err != nil {
			log.WithError(err).Warn("failed to save profile list")
		} else {
			ui.PrintInfo("Profile list saved", cfg.Output.ProfilesFile)
		}
	}

	return profiles, nil
}

// printSummary prints the final run counters
func printSummary(summary scraper.Summary) {
	fmt.Println()
	ui.PrintInfo("Profiles attempted", fmt.Sprintf("%d", summary.ProfilesAttempted))
	ui.PrintInfo("Profiles succeeded", fmt.Sprintf("%d", summary.ProfilesSucceeded))
	ui.PrintInfo("Profiles skipped", fmt.Sprintf("%d", summary.ProfilesSkipped))
	ui.PrintInfo("Profiles failed", fmt.Sprintf("%d", summary.ProfilesFailed))
	ui.PrintInfo("Images downloaded", fmt.Sprintf("%d (%s)", summary.ImagesDownloaded, ui.FormatBytes(summary.BytesWritten)))
	ui.PrintInfo("Images failed", fmt.Sprintf("%d", summary.ImagesFailed))
	if summary.RateLimitHits > 0 {
		ui.PrintWarning("Rate limit hits", summary.RateLimitHits)
	}
	ui.PrintInfo("Duration", ui.FormatDuration(summary.Duration))
}
