package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

type recordingRepo struct {
	mu      sync.Mutex
	updated map[string]domain.Analysis
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{updated: map[string]domain.Analysis{}}
}

func (r *recordingRepo) Save(ctx context.Context, t domain.Track) error { return nil }

func (r *recordingRepo) GetByID(ctx context.Context, id string) (domain.Track, error) {
	return domain.Track{}, domain.ErrNotFound
}

func (r *recordingRepo) List(ctx context.Context) ([]domain.Track, error) { return nil, nil }

func (r *recordingRepo) UpdateFeatures(ctx context.Context, id string, a domain.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated[id] = a
	return nil
}

func (r *recordingRepo) get(id string) (domain.Analysis, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.updated[id]
	return a, ok
}

type stubAnalyzer struct {
	analysis domain.Analysis
	err      error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, source string) (domain.Analysis, error) {
	if s.err != nil {
		return domain.Analysis{}, s.err
	}
	return s.analysis, nil
}

func waitForUpdate(t *testing.T, repo *recordingRepo, id string) domain.Analysis {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if a, ok := repo.get(id); ok {
			return a
		}
		select {
		case <-deadline:
			t.Fatalf("track %s never updated", id)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPool_ProcessesJobViaAnalyzer(t *testing.T) {
	repo := newRecordingRepo()
	analyzer := &stubAnalyzer{analysis: domain.Analysis{BPM: 124, DurationSeconds: 180}}

	pool := NewPool(repo, analyzer, 10)
	pool.Start(1)
	defer pool.Stop()

	pool.Submit(Job{TrackID: "t1", Source: "one.mp3"})

	got := waitForUpdate(t, repo, "t1")
	if got.BPM != 124 || got.DurationSeconds != 180 {
		t.Fatalf("stored analysis = %+v", got)
	}
}

func TestPool_FallsBackToLocalScan(t *testing.T) {
	orig := AnalyzeLocalFunc
	defer func() { AnalyzeLocalFunc = orig }()
	AnalyzeLocalFunc = func(source string) (domain.Analysis, error) {
		return domain.Analysis{DurationSeconds: 99, EnergyCurve: []float64{1, 2, 3}}, nil
	}

	repo := newRecordingRepo()
	analyzer := &stubAnalyzer{err: errors.New("service down")}

	pool := NewPool(repo, analyzer, 10)
	pool.Start(1)
	defer pool.Stop()

	pool.Submit(Job{TrackID: "t1", Source: "one.mp3"})

	got := waitForUpdate(t, repo, "t1")
	if got.DurationSeconds != 99 || len(got.EnergyCurve) != 3 {
		t.Fatalf("fallback analysis = %+v", got)
	}
}

func TestPool_NoAnalyzerUsesLocalScan(t *testing.T) {
	orig := AnalyzeLocalFunc
	defer func() { AnalyzeLocalFunc = orig }()
	AnalyzeLocalFunc = func(source string) (domain.Analysis, error) {
		return domain.Analysis{DurationSeconds: 42}, nil
	}

	repo := newRecordingRepo()
	pool := NewPool(repo, nil, 10)
	pool.Start(2)
	defer pool.Stop()

	pool.Submit(Job{TrackID: "t1", Source: "one.mp3"})

	if got := waitForUpdate(t, repo, "t1"); got.DurationSeconds != 42 {
		t.Fatalf("analysis = %+v", got)
	}
}

func TestPool_SkipsJobWithoutSource(t *testing.T) {
	repo := newRecordingRepo()
	pool := NewPool(repo, nil, 10)
	pool.Start(1)

	pool.Submit(Job{TrackID: "t1"})
	pool.Stop()

	if _, ok := repo.get("t1"); ok {
		t.Fatal("sourceless job updated the repo")
	}
}
