// Package worker provides background processing for track analysis jobs.
package worker

import (
	"context"
	"log"
	"sync"

	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// Job represents a background analysis task for one track.
type Job struct {
	TrackID string
	Source  string
}

// Pool manages background workers for async feature analysis. When the
// external analyzer is unconfigured or fails, jobs fall back to the local
// RMS scan so every track ends up with at least an energy curve.
type Pool struct {
	repo     ports.TrackRepository
	analyzer ports.FeatureAnalyzer // optional
	jobs     chan Job
	wg       sync.WaitGroup
}

// NewPool creates a worker pool with the given queue size. analyzer may be nil.
func NewPool(repo ports.TrackRepository, analyzer ports.FeatureAnalyzer, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{repo: repo, analyzer: analyzer, jobs: make(chan Job, queueSize)}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) {
	select {
	case p.jobs <- job:
	default:
		log.Printf("WARN worker: dropping analysis job for %s", job.TrackID)
	}
}

func (p *Pool) processJob(job Job) {
	if job.Source == "" {
		log.Printf("WARN worker: no source for track %s, skipping analysis", job.TrackID)
		return
	}

	ctx := context.Background()

	if p.analyzer != nil {
		analysis, err := p.analyzer.Analyze(ctx, job.Source)
		if err == nil {
			if err := p.repo.UpdateFeatures(ctx, job.TrackID, analysis); err != nil {
				log.Printf("WARN worker: failed to update track %s: %v", job.TrackID, err)
			}
			return
		}
		log.Printf("WARN worker: analysis service failed for %s, falling back to local scan: %v", job.TrackID, err)
	}

	analysis, err := AnalyzeLocalFunc(job.Source)
	if err != nil {
		log.Printf("WARN worker: local analysis failed for %s: %v", job.TrackID, err)
		return
	}
	if err := p.repo.UpdateFeatures(ctx, job.TrackID, analysis); err != nil {
		log.Printf("WARN worker: failed to update track %s: %v", job.TrackID, err)
	}
}
