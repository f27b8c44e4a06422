package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_enricher/internal/adapters/completion"
	"hotel_enricher/internal/adapters/observability"
	redisad "hotel_enricher/internal/adapters/redis"
	"hotel_enricher/internal/app"
	"hotel_enricher/internal/enrich"
	"hotel_enricher/internal/shared"
	mysqlrepo "hotel_enricher/internal/storage/mysql"
)

func newRootCmd() *cobra.Command {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	root := &cobra.Command{
		Use:           "enricher",
		Short:         "Fill in missing hotel attributes from a search-grounded AI service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "fetch attempts per hotel")
	pf.DurationVar(&cfg.RetryDelay, "retry-delay", cfg.RetryDelay, "wait between attempts")
	pf.DurationVar(&cfg.EntityDelay, "entity-delay", cfg.EntityDelay, "wait between hotels")
	pf.IntVar(&cfg.Workers, "workers", cfg.Workers, "hotels processed at once (1 = sequential)")
	pf.BoolVar(&cfg.FAQ, "faq", cfg.FAQ, "also fetch and store FAQs")
	pf.StringVar(&cfg.AIProvider, "provider", cfg.AIProvider, "perplexity or gemini")

	root.AddCommand(runCmd(&cfg), hotelCmd(&cfg), fieldsCmd())
	return root
}

func runCmd(cfg *shared.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Enrich every active hotel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := build(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			sum, err := svc.Run(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d hotels, %d ok, %d failed, %d abandoned\n",
				sum.RunID, sum.Total, sum.Succeeded, sum.Failed, sum.Abandoned)
			writeStates(cmd.OutOrStdout(), sum.States)
			return err
		},
	}
}

// writeStates prints per-state counts in name order.
func writeStates(w io.Writer, states map[enrich.State]int) {
	for _, state := range slices.Sorted(maps.Keys(states)) {
		fmt.Fprintf(w, "  %-16s %d\n", state, states[state])
	}
}

func hotelCmd(cfg *shared.Config) *cobra.Command {
	var hotelUUID string
	cmd := &cobra.Command{
		Use:   "hotel",
		Short: "Enrich a single hotel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := build(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			rep, err := svc.RunOne(cmd.Context(), hotelUUID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s after %d attempt(s), %s of %d field(s), %d faq(s)\n",
				rep.UUID, rep.State, rep.Attempts, rep.Action, rep.Fields, rep.FAQs)
			if len(rep.Missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "still missing: %v\n", rep.Missing)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&hotelUUID, "uuid", "", "hotel uuid")
	_ = cmd.MarkFlagRequired("uuid")
	return cmd
}

func fieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields",
		Short: "List the attributes the enricher fills in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tGROUP\tDESCRIPTION")
			for _, f := range enrich.DefaultSchema().Fields() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Name, f.Group, f.Description)
			}
			return tw.Flush()
		},
	}
}

// build wires the service from config. A database that cannot be reached
// ends the process before any hotel is touched.
func build(ctx context.Context, cfg shared.Config) (*app.EnrichmentService, func(), error) {
	log.Info().
		Str("provider", cfg.AIProvider).
		Int("max_attempts", cfg.MaxAttempts).
		Dur("retry_delay", cfg.RetryDelay).
		Int("workers", cfg.Workers).
		Msg("enricher starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")
	closers := []func() error{db.Close}

	schema := enrich.DefaultSchema()
	repo, err := mysqlrepo.New(db, schema.Names())
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	llm, err := newCompleter(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	fetcher := completion.NewFetcher(llm, schema)

	driver := enrich.NewRetryDriver(schema, fetcher, enrich.RetryConfig{
		MaxAttempts: cfg.MaxAttempts,
		RetryDelay:  cfg.RetryDelay,
	})
	svc := app.NewEnrichmentService(repo, repo, driver, enrich.NewReconciler(schema, repo), app.RunOptions{
		EntityDelay: cfg.EntityDelay,
		Workers:     cfg.Workers,
		LockTTL:     cfg.LockTTL,
	})
	if cfg.FAQ {
		svc.WithFAQ(fetcher, repo)
	}

	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, running without cache invalidation or run lock")
			_ = cache.Close()
		} else {
			svc.WithCache(cache).WithLocker(cache)
			closers = append(closers, cache.Close)
		}
	}

	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	closeFn := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("close failed")
			}
		}
	}
	return svc, closeFn, nil
}

func newCompleter(ctx context.Context, cfg shared.Config) (completion.Completer, error) {
	switch cfg.AIProvider {
	case "gemini":
		return completion.NewGeminiClient(ctx, cfg.AIKey, cfg.AIModel, cfg.AIRPS)
	case "perplexity", "":
		return completion.NewChatClient(cfg.AIBaseURL, cfg.AIKey, cfg.AIModel, cfg.AIRPS)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}
