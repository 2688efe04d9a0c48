// ABOUTME: Background scraping service: bounded queue, worker pool, shared lazy browser
// ABOUTME: Dedupes in-flight items; each job runs Queued → Running → Done/Failed, no retry

package scrape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/rivulet/rivulet/internal/models"
)

// jobState tracks a work item through its terminal state machine
type jobState int

const (
	stateQueued jobState = iota
	stateRunning
)

const queueCapacity = 100

// ScraperFactory creates the shared Scraper on first use. Launching lazily
// keeps the browser out of processes that never scrape.
type ScraperFactory func() (Scraper, error)

// Service drains a bounded queue of items through a scraper worker pool and
// writes successful extractions back through the store.
type Service struct {
	cfg     Config
	store   contentWriter
	factory ScraperFactory

	queue chan *models.Item

	mu       sync.Mutex
	inflight map[string]jobState
	closed   bool

	scraperOnce sync.Once
	scraper     Scraper
	scraperErr  error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *slog.Logger
}

// contentWriter is the slice of the store the service needs
type contentWriter interface {
	UpdateItemContent(id, content string) error
}

// NewService starts the worker pool and returns the running service
func NewService(cfg Config, store contentWriter, factory ScraperFactory, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		cfg:      cfg,
		store:    store,
		factory:  factory,
		queue:    make(chan *models.Item, queueCapacity),
		inflight: make(map[string]jobState),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	workers := cfg.MaxConcurrency
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Queue enqueues items whose content is insufficient. Non-blocking: items
// already in flight are skipped, and items beyond the queue capacity are
// dropped with a warning rather than stalling the caller.
func (s *Service) Queue(items []*models.Item) int {
	candidates := lo.Filter(items, func(item *models.Item, _ int) bool {
		return NeedsScraping(item, s.cfg.MinContentLength)
	})

	queued := 0
	for _, item := range candidates {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			break
		}
		if _, busy := s.inflight[item.ID]; busy {
			s.mu.Unlock()
			continue
		}
		s.inflight[item.ID] = stateQueued

		// The send stays under the lock so Shutdown cannot close the
		// channel between the closed check and the send
		select {
		case s.queue <- item:
			queued++
			s.mu.Unlock()
		default:
			delete(s.inflight, item.ID)
			s.mu.Unlock()
			s.log.Warn("scrape queue full, dropping item", "item", shortID(item.ID))
		}
	}
	return queued
}

// Shutdown stops accepting work, drains the queue up to the grace period,
// then closes the browser.
func (s *Service) Shutdown(grace time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.queue)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("scrape shutdown grace period elapsed, aborting in-flight jobs")
		s.cancel()
		<-done
	}
	s.cancel()

	if closer, ok := s.scraper.(interface{ Close() }); ok && closer != nil {
		closer.Close()
	}
}

func (s *Service) worker() {
	defer s.wg.Done()

	for item := range s.queue {
		select {
		case <-s.ctx.Done():
			s.finish(item.ID)
			continue
		default:
		}
		s.run(item)
	}
}

// run executes one job through its state machine
func (s *Service) run(item *models.Item) {
	defer s.finish(item.ID)

	jobID := uuid.New().String()[:8]
	log := s.log.With("job", jobID, "item", shortID(item.ID))

	s.mu.Lock()
	s.inflight[item.ID] = stateRunning
	s.mu.Unlock()

	scraper, err := s.getScraper()
	if err != nil {
		log.Error("scraper unavailable", "error", err)
		return
	}

	result, err := scraper.Scrape(s.ctx, *item.Link)
	if err != nil {
		log.Warn("scrape failed", "url", *item.Link, "error", err)
		return
	}

	if err := s.store.UpdateItemContent(item.ID, result.Content); err != nil {
		log.Error("failed to store scraped content", "error", err)
		return
	}
	log.Info("scraped content", "chars", len(result.Content))
}

func (s *Service) finish(itemID string) {
	s.mu.Lock()
	delete(s.inflight, itemID)
	s.mu.Unlock()
}

// getScraper launches the shared scraper on first use
func (s *Service) getScraper() (Scraper, error) {
	s.scraperOnce.Do(func() {
		s.scraper, s.scraperErr = s.factory()
	})
	return s.scraper, s.scraperErr
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
