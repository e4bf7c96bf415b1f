package benchmark

import (
	"fmt"
	"strings"

	"github.com/JoshTKx/actress-webscraper/pkg/ui"
)

// PrintReport prints the benchmark results as a table ranked by image
// throughput, followed by the recommended configurations
func PrintReport(results []Result) {
	if len(results) == 0 {
		ui.PrintWarning("no benchmark results to report")
		return
	}

	ranked := Rank(results)

	fmt.Println()
	ui.PrintHighlight("Worker configuration benchmark results")
	fmt.Printf("%-24s %-10s %-10s %-10s %-10s %-12s %-8s\n",
		"Config", "Duration", "Profiles", "Images", "Img/s", "Rate limits", "Errors")
	fmt.Println(ui.Dim(strings.Repeat("-", 88)))

	for _, r := range ranked {
		config := fmt.Sprintf("%dp / %di", r.Config.ProfileWorkers, r.Config.ImageWorkers)
		fmt.Printf("%-24s %-10s %-10d %-10d %-10.2f %-12d %-8d\n",
			config,
			ui.FormatDuration(r.Duration),
			r.ProfilesSucceeded,
			r.ImagesDownloaded,
			r.ImagesPerSecond,
			r.RateLimitHits,
			r.ImagesFailed,
		)
	}

	fmt.Println()

	if best := Recommend(results); best != nil {
		ui.PrintSuccess(fmt.Sprintf("Recommended: %d profile workers, %d image workers (%.2f images/s)",
			best.Config.ProfileWorkers, best.Config.ImageWorkers, best.ImagesPerSecond))
	}

	if conservative := RecommendConservative(results); conservative != nil {
		ui.PrintInfo("Conservative (safer for long scrapes)",
			fmt.Sprintf("%d profile workers, %d image workers (%.2f images/s)",
				conservative.Config.ProfileWorkers, conservative.Config.ImageWorkers, conservative.ImagesPerSecond))
	}
}
