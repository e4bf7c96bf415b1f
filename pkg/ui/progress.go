package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressDisplay renders a single-line progress view of a download run.
// It tracks profiles completed against the total, plus image and byte
// counters. Rendering is skipped when stdout is not a terminal so piped
// output stays clean.
type ProgressDisplay struct {
	mu             sync.Mutex
	totalProfiles  int
	doneProfiles   int
	skipped        int
	imagesSaved    int
	errors         int
	bytesWritten   int64
	currentProfile string
	startTime      time.Time
	interactive    bool
}

// NewProgressDisplay creates a progress display for a run over the
// given number of profiles
func NewProgressDisplay(totalProfiles int) *ProgressDisplay {
	return &ProgressDisplay{
		totalProfiles: totalProfiles,
		startTime:     time.Now(),
		interactive:   IsTerminal(),
	}
}

// StartProfile notes which profile is currently being processed
func (p *ProgressDisplay) StartProfile(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentProfile = name
	p.render()
}

// ProfileDone records a completed profile and its image results
func (p *ProgressDisplay) ProfileDone(imagesOK, imagesFailed int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneProfiles++
	p.imagesSaved += imagesOK
	p.errors += imagesFailed
	p.bytesWritten += bytes
	p.render()
}

// ProfileSkipped records a profile skipped by the resume check
func (p *ProgressDisplay) ProfileSkipped() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneProfiles++
	p.skipped++
	p.render()
}

// ProfileFailed records a profile whose page fetch failed
func (p *ProgressDisplay) ProfileFailed() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.doneProfiles++
	p.errors++
	p.render()
}

// render prints the progress line. Callers hold the mutex.
func (p *ProgressDisplay) render() {
	if !p.interactive || p.totalProfiles == 0 {
		return
	}

	progress := float64(p.doneProfiles) / float64(p.totalProfiles)
	barWidth := 20
	filled := int(progress * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("\r[%s] %d/%d profiles • %d images • %s • %s",
		bar,
		p.doneProfiles,
		p.totalProfiles,
		p.imagesSaved,
		FormatBytes(p.bytesWritten),
		p.eta(),
	)

	if p.currentProfile != "" {
		line += fmt.Sprintf(" • %s", Cyan(p.currentProfile))
	}
	if p.skipped > 0 {
		line += fmt.Sprintf(" • %s", Dim(fmt.Sprintf("%d skipped", p.skipped)))
	}
	if p.errors > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors)))
	}

	fmt.Printf("\r%s\r%s", strings.Repeat(" ", 120), line)
}

// Complete prints the final run summary
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(p.startTime)

	if p.interactive {
		fmt.Print("\n\n")
	}

	fmt.Printf("%s Processed %d profiles, saved %d images\n",
		Green("✓"),
		p.doneProfiles,
		p.imagesSaved,
	)
	fmt.Printf("  %s %s in %s\n",
		Dim("•"),
		FormatBytes(p.bytesWritten),
		FormatDuration(elapsed),
	)
	if p.skipped > 0 {
		fmt.Printf("  %s %d profiles skipped (already downloaded)\n", Dim("•"), p.skipped)
	}
	if p.errors > 0 {
		fmt.Printf("  %s %d failures\n", Dim("•"), p.errors)
	}
}

// eta estimates time remaining based on profile completion rate
func (p *ProgressDisplay) eta() string {
	if p.doneProfiles == 0 {
		return "calculating..."
	}

	remaining := p.totalProfiles - p.doneProfiles
	rate := float64(p.doneProfiles) / time.Since(p.startTime).Seconds()
	if rate == 0 {
		return "calculating..."
	}

	return FormatDuration(time.Duration(float64(remaining)/rate) * time.Second)
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
