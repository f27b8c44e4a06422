package enrich

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_enricher/internal/domain"
	"hotel_enricher/internal/shared"
)

// State is the terminal state of a RetryDriver run.
type State string

const (
	StateComplete  State = "complete"
	StatePartial   State = "partial"
	StateExhausted State = "error_exhausted"
)

type RetryConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 2, RetryDelay: 5 * time.Second}
}

func (c RetryConfig) normalize() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Outcome is the same shape for every terminal state; only reporting differs.
type Outcome struct {
	Record   domain.AttributeRecord // freshly fetched values only
	Attempts int                    // fetch calls made
	State    State
	Missing  []string // still empty after the last attempt
	LastErr  error
}

type RetryDriver struct {
	schema  *Schema
	fetcher domain.ExternalFetcher
	cfg     RetryConfig
	sleep   func(context.Context, time.Duration) bool
}

// NewRetryDriver uses DefaultRetryConfig when cfg is the zero value.
func NewRetryDriver(s *Schema, f domain.ExternalFetcher, cfg RetryConfig) *RetryDriver {
	if cfg == (RetryConfig{}) {
		cfg = DefaultRetryConfig()
	}
	return &RetryDriver{schema: s, fetcher: f, cfg: cfg.normalize(), sleep: shared.SleepCtx}
}

func (d *RetryDriver) Config() RetryConfig { return d.cfg }

// Run drives up to MaxAttempts fetches for the fields that are empty in both the
// persisted record and the accumulator. The accumulator starts empty and is
// returned on every terminal state, including exhausted failures.
// A non-nil error means ctx was cancelled and the cycle should be abandoned.
func (d *RetryDriver) Run(ctx context.Context, h domain.Hotel, persisted domain.AttributeRecord) (Outcome, error) {
	names := d.schema.Names()
	acc := domain.AttributeRecord{}
	out := Outcome{Record: acc}

	// detection sees persisted values, the accumulator only holds fetched ones
	missing := func() []string {
		return EmptyFields(Merge(persisted, domain.FetchResult(acc)), names)
	}

	lg := log.With().Str("hotel_uuid", h.UUID).Str("hotel", h.Name).Logger()

	for attempt := 1; ; attempt++ {
		empty := missing()
		out.Missing = empty
		if len(empty) == 0 {
			out.State = StateComplete
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		out.Attempts = attempt
		lg.Debug().Int("attempt", attempt).Strs("missing", empty).Msg("requesting fields")

		res, err := d.fetcher.FetchFields(ctx, h.Name, empty)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.LastErr = err
			lg.Warn().Err(err).Int("attempt", attempt).Int("max", d.cfg.MaxAttempts).Msg("fetch failed")
			if attempt >= d.cfg.MaxAttempts {
				out.State = StateExhausted
				return out, nil
			}
		} else {
			out.LastErr = nil
			if omitted := omittedFields(empty, res); len(omitted) > 0 {
				// lenient: omitted fields are simply requested again next attempt
				lg.Warn().Int("attempt", attempt).Strs("omitted", omitted).Msg("response missing requested fields")
			}
			acc = Merge(acc, res)
			out.Record = acc
			empty = missing()
			out.Missing = empty
			if len(empty) == 0 {
				out.State = StateComplete
				return out, nil
			}
			if attempt >= d.cfg.MaxAttempts {
				out.State = StatePartial
				return out, nil
			}
		}

		if !d.sleep(ctx, d.cfg.RetryDelay) {
			return out, ctx.Err()
		}
	}
}

func omittedFields(requested []string, res domain.FetchResult) []string {
	var out []string
	for _, n := range requested {
		if _, ok := res[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
