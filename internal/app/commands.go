package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_enricher/internal/adapters/observability"
	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/enrich"
	"hotel_enricher/internal/shared"
)

const runLockKey = "lock:enricher:run"

var ErrRunLocked = errors.New("another enrichment run holds the lock")

func attrsKey(uuid string) string { return "attrs:" + uuid }
func faqsKey(uuid string) string  { return "faqs:" + uuid }

type RunOptions struct {
	EntityDelay time.Duration // pause after each hotel, success or not
	Workers     int           // 1 keeps processing strictly sequential
	LockTTL     time.Duration
}

// EnrichmentService runs the fetch-merge-persist cycle for every active hotel.
type EnrichmentService struct {
	source domain.EntitySource
	store  domain.AttributeStore
	driver *enrich.RetryDriver
	recon  *enrich.Reconciler
	opts   RunOptions

	// optional collaborators
	faqFetch domain.SupplementaryFetcher
	faqStore domain.FAQStore
	cache    domain.Cache
	locker   domain.Locker

	sleep func(context.Context, time.Duration) bool
}

func NewEnrichmentService(src domain.EntitySource, st domain.AttributeStore, d *enrich.RetryDriver, r *enrich.Reconciler, opts RunOptions) *EnrichmentService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &EnrichmentService{source: src, store: st, driver: d, recon: r, opts: opts, sleep: shared.SleepCtx}
}

// WithFAQ enables best-effort FAQ enrichment after each reconcile.
func (s *EnrichmentService) WithFAQ(f domain.SupplementaryFetcher, st domain.FAQStore) *EnrichmentService {
	s.faqFetch, s.faqStore = f, st
	return s
}

func (s *EnrichmentService) WithCache(c domain.Cache) *EnrichmentService {
	s.cache = c
	return s
}

func (s *EnrichmentService) WithLocker(l domain.Locker) *EnrichmentService {
	s.locker = l
	return s
}

// EntityReport describes one hotel's completed cycle.
type EntityReport struct {
	UUID     string
	State    enrich.State
	Attempts int
	Missing  []string
	Action   enrich.Action
	Fields   int
	FAQs     int
}

type RunSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Abandoned int
	States    map[enrich.State]int
}

func (r *RunSummary) record(rep EntityReport, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		r.Abandoned++
		return
	case err != nil:
		r.Failed++
		return
	default:
		r.Succeeded++
	}
	if rep.State != "" {
		r.States[rep.State]++
	}
}

// ProcessHotel runs one hotel's cycle: read persisted values, retry missing
// fields, write the accumulator once. A cancelled ctx abandons the hotel
// without writing anything.
func (s *EnrichmentService) ProcessHotel(ctx context.Context, h domain.Hotel) (EntityReport, error) {
	rep := EntityReport{UUID: h.UUID}
	lg := log.With().Str("hotel_uuid", h.UUID).Str("hotel", h.Name).Logger()

	persisted, err := s.store.FindByUUID(ctx, h.UUID)
	if err != nil {
		return rep, &domain.PersistError{Op: "lookup", UUID: h.UUID, Err: err}
	}

	out, err := s.driver.Run(ctx, h, persisted)
	rep.State, rep.Attempts, rep.Missing = out.State, out.Attempts, out.Missing
	if err != nil {
		lg.Warn().Err(err).Int("attempts", out.Attempts).Msg("enrichment abandoned")
		return rep, err
	}
	observability.ObserveOutcome(string(out.State), out.Attempts)

	switch out.State {
	case enrich.StateComplete:
		lg.Info().Int("attempts", out.Attempts).Msg("all fields filled")
	case enrich.StatePartial:
		lg.Warn().Int("attempts", out.Attempts).Strs("missing", out.Missing).Msg("attempts used up, saving partial data")
	case enrich.StateExhausted:
		lg.Error().Err(out.LastErr).Int("attempts", out.Attempts).Msg("fetch failed on every attempt, saving what was gathered")
	}

	res, err := s.recon.Reconcile(ctx, h.UUID, out.Record)
	action := string(res.Action)
	if action == "" {
		action = "lookup"
	}
	observability.ObservePersist(action, err)
	if err != nil {
		return rep, err
	}
	rep.Action, rep.Fields = res.Action, res.Fields
	lg.Info().Str("action", string(res.Action)).Int64("row_id", res.RowID).Int("fields", res.Fields).Msg("attributes saved")
	s.invalidate(ctx, attrsKey(h.UUID))

	rep.FAQs = s.refreshFAQ(ctx, h)
	return rep, nil
}

// refreshFAQ never fails the cycle; errors are logged.
func (s *EnrichmentService) refreshFAQ(ctx context.Context, h domain.Hotel) int {
	if s.faqFetch == nil || s.faqStore == nil {
		return 0
	}
	lg := log.With().Str("hotel_uuid", h.UUID).Logger()

	qas, err := s.faqFetch.FetchSupplementary(ctx, h.Name)
	if err != nil {
		lg.Warn().Err(err).Msg("faq fetch failed")
		return 0
	}
	if len(qas) == 0 {
		return 0
	}
	if err := s.faqStore.ReplaceFAQs(ctx, h.UUID, qas); err != nil {
		lg.Warn().Err(err).Msg("faq save failed")
		return 0
	}
	s.invalidate(ctx, faqsKey(h.UUID))
	return len(qas)
}

func (s *EnrichmentService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache invalidation failed")
	}
}

// RunOne enriches a single hotel looked up by uuid.
func (s *EnrichmentService) RunOne(ctx context.Context, hotelUUID string) (EntityReport, error) {
	h, err := s.source.GetHotelByUUID(ctx, hotelUUID)
	if err != nil {
		return EntityReport{UUID: hotelUUID}, err
	}
	return s.ProcessHotel(ctx, h)
}

// Run processes every active hotel. Per-hotel failures are logged and
// counted; only an unreadable hotel list, a held run lock or cancellation
// end the run early.
func (s *EnrichmentService) Run(ctx context.Context) (RunSummary, error) {
	sum := RunSummary{RunID: uuid.NewString(), States: map[enrich.State]int{}}
	lg := log.With().Str("run_id", sum.RunID).Logger()

	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, runLockKey, sum.RunID, s.opts.LockTTL)
		switch {
		case err != nil:
			lg.Warn().Err(err).Msg("run lock unavailable, continuing unlocked")
		case !ok:
			return sum, ErrRunLocked
		default:
			defer func() {
				if err := s.locker.Unlock(context.Background(), runLockKey, sum.RunID); err != nil {
					lg.Warn().Err(err).Msg("run lock release failed")
				}
			}()
		}
	}

	hotels, err := s.source.ListActiveHotels(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return sum, ctxErr
		}
		return sum, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	sum.Total = len(hotels)
	lg.Info().Int("hotels", len(hotels)).Int("workers", s.opts.Workers).Msg("enrichment run starting")

	sem := semaphore.NewWeighted(int64(s.opts.Workers))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i, h := range hotels {
		if ctx.Err() != nil {
			break
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		last := i == len(hotels)-1
		started++

		wg.Add(1)
		go func(h domain.Hotel) {
			defer wg.Done()
			defer sem.Release(1)

			rep, err := s.ProcessHotel(ctx, h)
			observability.ObserveEntity(err)
			if err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("run_id", sum.RunID).Str("hotel_uuid", h.UUID).Msg("hotel failed")
			}
			mu.Lock()
			sum.record(rep, err)
			mu.Unlock()

			// held while the slot is held, so the next hotel waits too
			if !last {
				s.sleep(ctx, s.opts.EntityDelay)
			}
		}(h)
	}
	wg.Wait()
	// hotels never started count as abandoned
	sum.Abandoned += len(hotels) - started

	if err := ctx.Err(); err != nil {
		lg.Warn().Int("succeeded", sum.Succeeded).Int("failed", sum.Failed).Int("abandoned", sum.Abandoned).Msg("enrichment run interrupted")
		return sum, err
	}
	lg.Info().
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Interface("states", sum.States).
		Msg("enrichment run completed")
	return sum, nil
}
