package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
	"github.com/JoshTKx/actress-webscraper/pkg/benchmark"
	"github.com/JoshTKx/actress-webscraper/pkg/listing"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/storage"
	"github.com/JoshTKx/actress-webscraper/pkg/ui"
)

var (
	benchProfiles     int
	benchProfilesFile string
)

// benchmarkCmd times worker configurations against a profile sample
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Time worker configurations to find the optimal settings",
	Long: `Run the download pipeline repeatedly with different profile and image
worker counts, timing each combination against a small sample of
profiles. The report ranks configurations by image throughput and
recommends the fastest clean one plus a conservative fallback.

Requires a profile list file; run the scrape command first to create it.`,
	Example: `  # Benchmark with the default 5-profile sample
  actress-scraper benchmark

  # Larger sample from a custom profile list
  actress-scraper benchmark --test-profiles 10 --profiles-file my_profiles.txt`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBenchmark()
	},
}

func init() {
	rootCmd.AddCommand(benchmarkCmd)

	benchmarkCmd.Flags().IntVar(&benchProfiles, "test-profiles", 5, "number of profiles to test with")
	benchmarkCmd.Flags().StringVar(&benchProfilesFile, "profiles-file", "", "profile list file to sample from")
}

func runBenchmark() error {
	flags := make(map[string]interface{})
	if benchProfilesFile != "" {
		flags["profiles-file"] = benchProfilesFile
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	profiles, err := listing.LoadProfiles(cfg.Output.ProfilesFile)
	if err != nil {
		ui.PrintError("Failed to load profile list", err.Error())
		ui.PrintWarning("Run the scrape command first to build the profile list")
		return err
	}
	if len(profiles) == 0 {
		ui.PrintError("Profile list is empty")
		return fmt.Errorf("profile list %s is empty", cfg.Output.ProfilesFile)
	}

	if benchProfiles > 0 && len(profiles) > benchProfiles {
		profiles = profiles[:benchProfiles]
	}
	ui.PrintInfo("Benchmarking with", fmt.Sprintf("%d profiles", len(profiles)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetLogger()
	client := backstage.NewClient(cfg, log)
	client.EstablishSession(ctx)

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err.Error())
		return err
	}

	runner := benchmark.NewRunner(cfg, client, store, log)
	results, runErr := runner.Run(ctx, profiles)

	benchmark.PrintReport(results)

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}
