package downloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JoshTKx/actress-webscraper/pkg/config"
	"github.com/JoshTKx/actress-webscraper/pkg/logger"
	"github.com/JoshTKx/actress-webscraper/pkg/profile"
)

// ImageJob is a single image download task. Index is the one-based
// discovery position of the image on the profile page; filenames follow
// it, not completion order.
type ImageJob struct {
	URL     string
	Index   int
	Slug    string
	Referer string
}

// ImageResult is the outcome of one image job
type ImageResult struct {
	Job      ImageJob
	Path     string
	Success  bool
	Error    error
	Duration time.Duration
	Size     int
}

// ImageFetcher downloads an image payload
type ImageFetcher interface {
	DownloadImage(ctx context.Context, imageURL, referer string) ([]byte, error)
}

// ImageStorage persists a downloaded image for a profile
type ImageStorage interface {
	SaveImage(slug string, index int, ext string, data []byte) (string, error)
}

// Pool downloads a profile's images with a bounded number of workers.
// One pool serves one profile and is drained with Wait.
type Pool struct {
	numWorkers int
	jobQueue   chan ImageJob
	results    chan ImageResult
	wg         sync.WaitGroup
	ctx        context.Context
	fetcher    ImageFetcher
	storage    ImageStorage
	imageCfg   config.ImageConfig
	logger     logger.Logger
}

// NewPool creates an image download pool
func NewPool(
	ctx context.Context,
	numWorkers int,
	fetcher ImageFetcher,
	storage ImageStorage,
	imageCfg config.ImageConfig,
	log logger.Logger,
) *Pool {
	if log == nil {
		log = logger.GetLogger()
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	return &Pool{
		numWorkers: numWorkers,
		jobQueue:   make(chan ImageJob, numWorkers*2),
		results:    make(chan ImageResult, numWorkers),
		ctx:        ctx,
		fetcher:    fetcher,
		storage:    storage,
		imageCfg:   imageCfg,
		logger:     log,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.logger.DebugWithFields("starting image pool", map[string]interface{}{
		"workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit adds an image job to the queue
func (p *Pool) Submit(job ImageJob) error {
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("image pool is shutting down: %w", p.ctx.Err())
	}
}

// Close signals that no more jobs will be submitted. Results keeps
// delivering until all queued jobs have been processed.
func (p *Pool) Close() {
	close(p.jobQueue)
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// Results returns the result channel. It is closed after Close once
// every worker has drained.
func (p *Pool) Results() <-chan ImageResult {
	return p.results
}

// worker is the main worker routine
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		result := p.processJob(job, id)

		select {
		case p.results <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// processJob downloads, validates, and saves a single image
func (p *Pool) processJob(job ImageJob, workerID int) ImageResult {
	start := time.Now()
	result := ImageResult{Job: job}

	data, err := p.fetcher.DownloadImage(p.ctx, job.URL, job.Referer)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)

		p.logger.ErrorWithFields("image download failed", map[string]interface{}{
			"worker_id": workerID,
			"slug":      job.Slug,
			"index":     job.Index,
			"error":     err.Error(),
		})
		return result
	}

	result.Size = len(data)

	if err := profile.ValidateImage(data, p.imageCfg); err != nil {
		result.Error = err
		result.Duration = time.Since(start)

		p.logger.WarnWithFields("discarding invalid image payload", map[string]interface{}{
			"worker_id": workerID,
			"slug":      job.Slug,
			"index":     job.Index,
			"size":      result.Size,
			"error":     err.Error(),
		})
		return result
	}

	path, err := p.storage.SaveImage(job.Slug, job.Index, profile.GuessExtension(job.URL), data)
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)

		p.logger.ErrorWithFields("image save failed", map[string]interface{}{
			"worker_id": workerID,
			"slug":      job.Slug,
			"index":     job.Index,
			"error":     err.Error(),
		})
		return result
	}

	result.Path = path
	result.Success = true
	result.Duration = time.Since(start)

	p.logger.DebugWithFields("image saved", map[string]interface{}{
		"worker_id": workerID,
		"slug":      job.Slug,
		"index":     job.Index,
		"size":      result.Size,
		"duration":  result.Duration,
	})

	return result
}
