package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/scraper"
	"github.com/JoshTKx/actress-webscraper/pkg/storage"
	"github.com/JoshTKx/actress-webscraper/pkg/ui"
)

var (
	profileName string
)

// profileCmd downloads a single profile, bypassing the listing walk
var profileCmd = &cobra.Command{
	Use:   "profile <url>",
	Short: "Download images from a single profile URL",
	Long: `Download all images from one profile page, bypassing the listing walk.

The display name defaults to the profile's URL slug; override it with
--name.`,
	Example: `  # Download one profile
  actress-scraper profile https://www.backstage.com/tal/jane-doe/

  # With an explicit display name
  actress-scraper profile https://www.backstage.com/tal/jane-doe/ --name "Jane Doe"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProfile(strings.TrimSpace(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringVar(&profileName, "name", "", "display name for the profile")
	profileCmd.Flags().IntVar(&imageWorkers, "image-workers", 0, "number of images downloaded concurrently")
	profileCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloaded images")
}

func runProfile(profileURL string) error {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if imageWorkers > 0 {
		flags["image-workers"] = imageWorkers
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

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err.Error())
		return err
	}

	name := profileName
	if name == "" {
		name = backstage.NameFromSlug(backstage.SlugFromProfileURL(profileURL))
	}
	ui.PrintInfo("Target profile", name)

	s := scraper.New(cfg, client, store, log)
	summary, runErr := s.ScrapeProfile(ctx, profileURL, name)

	printSummary(summary)

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	return nil
}
