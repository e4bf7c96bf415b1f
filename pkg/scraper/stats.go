package scraper

import (
	"sync"
	"time"
)

// Stats aggregates the counters for one scrape run. All methods are
// safe for concurrent use by profile and image workers.
type Stats struct {
	mu sync.Mutex

	profilesAttempted int
	profilesSucceeded int
	profilesSkipped   int
	profilesFailed    int

	imagesAttempted  int
	imagesDownloaded int
	imagesFailed     int

	rateLimitHits int
	bytesWritten  int64

	startTime time.Time
	endTime   time.Time
}

// Summary is a point-in-time snapshot of run counters
type Summary struct {
	ProfilesAttempted int
	ProfilesSucceeded int
	ProfilesSkipped   int
	ProfilesFailed    int

	ImagesAttempted  int
	ImagesDownloaded int
	ImagesFailed     int

	RateLimitHits int
	BytesWritten  int64

	Duration time.Duration
}

// NewStats creates a stats collector with the clock started
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) profileAttempted() {
	s.mu.Lock()
	s.profilesAttempted++
	s.mu.Unlock()
}

func (s *Stats) profileSucceeded() {
	s.mu.Lock()
	s.profilesSucceeded++
	s.mu.Unlock()
}

func (s *Stats) profileSkipped() {
	s.mu.Lock()
	s.profilesSkipped++
	s.mu.Unlock()
}

func (s *Stats) profileFailed() {
	s.mu.Lock()
	s.profilesFailed++
	s.mu.Unlock()
}

func (s *Stats) imageAttempted() {
	s.mu.Lock()
	s.imagesAttempted++
	s.mu.Unlock()
}

func (s *Stats) imageDownloaded(size int) {
	s.mu.Lock()
	s.imagesDownloaded++
	s.bytesWritten += int64(size)
	s.mu.Unlock()
}

func (s *Stats) imageFailed() {
	s.mu.Lock()
	s.imagesFailed++
	s.mu.Unlock()
}

func (s *Stats) rateLimited() {
	s.mu.Lock()
	s.rateLimitHits++
	s.mu.Unlock()
}

// Finish stops the clock
func (s *Stats) Finish() {
	s.mu.Lock()
	s.endTime = time.Now()
	s.mu.Unlock()
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := s.endTime
	if end.IsZero() {
		end = time.Now()
	}

	return Summary{
		ProfilesAttempted: s.profilesAttempted,
		ProfilesSucceeded: s.profilesSucceeded,
		ProfilesSkipped:   s.profilesSkipped,
		ProfilesFailed:    s.profilesFailed,
		ImagesAttempted:   s.imagesAttempted,
		ImagesDownloaded:  s.imagesDownloaded,
		ImagesFailed:      s.imagesFailed,
		RateLimitHits:     s.rateLimitHits,
		BytesWritten:      s.bytesWritten,
		Duration:          end.Sub(s.startTime),
	}
}
