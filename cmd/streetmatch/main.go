package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/streets-name-id/internal/arbitration"
	"github.com/streets-name-id/internal/config"
	"github.com/streets-name-id/internal/db"
	"github.com/streets-name-id/internal/match"
	"github.com/streets-name-id/internal/normalize"
	"github.com/streets-name-id/internal/pipeline"
	"github.com/streets-name-id/internal/registry"
	"github.com/streets-name-id/internal/report"
	"github.com/streets-name-id/internal/retry"
	"github.com/streets-name-id/internal/street"
	"github.com/streets-name-id/internal/web"
)

var settings *config.Settings

func main() {
	settings = config.LoadSettings()

	rootCmd := &cobra.Command{
		Use:   "streetmatch",
		Short: "Street name reconciliation against the government registry",
		Long:  `Matches street segments from the open street network to the official government street registry, with fuzzy scoring and AI arbitration for ambiguous names`,
	}

	rootCmd.AddCommand(createFetchCmd())
	rootCmd.AddCommand(createMatchCmd())
	rootCmd.AddCommand(createBatchCmd())
	rootCmd.AddCommand(createExportCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newNormalizer() *normalize.Normalizer {
	return normalize.New(normalize.Options{
		Rules:             normalize.DefaultRules(),
		StripGenericWords: settings.StripGenericWords,
		GenericWords:      normalize.DefaultGenericWords(),
	})
}

func newOrchestrator() *pipeline.Orchestrator {
	var arbitrator arbitration.Client
	if settings.OpenAIKey != "" {
		arbitrator = arbitration.NewOpenAIClient(settings.OpenAIKey, settings.ArbitrationModel)
	} else {
		log.Println("OPENAI_API_KEY not set, ambiguous segments will degrade to MISSING")
	}

	o := pipeline.NewOrchestrator(arbitrator)
	o.Tiers = &match.Tiers{
		Confident:        settings.ConfidentThreshold,
		ArbitrationFloor: settings.ArbitrationFloor,
		MaxCandidates:    settings.MaxCandidates,
	}
	o.Retry = &retry.Policy{
		MaxAttempts: settings.RetryAttempts,
		BaseDelay:   settings.RetryBaseDelay,
	}
	o.Parallelism = settings.ArbitrationWorkers
	return o
}

func openStore() (*db.Connection, *db.Store, error) {
	conn, err := db.NewConnection()
	if err != nil {
		return nil, nil, err
	}
	store := db.NewStore(conn)
	if err := store.Init(context.Background()); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, store, nil
}

func newSource(store *db.Store, forceRefresh bool) *cachingSource {
	src := &cachingSource{
		store:        store,
		ingestor:     newIngestor(),
		settings:     settings,
		forceRefresh: forceRefresh,
	}
	src.registry = registry.NewClient(settings.RegistryURL, settings.RegistryResourceID,
		settings.UserAgent, src.fetchPolicy())
	return src
}

// createFetchCmd downloads one settlement's data into the cache.
func createFetchCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "fetch [settlement]",
		Short: "Fetch and cache a settlement's segments and registry entries",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			conn, store, err := openStore()
			if err != nil {
				log.Fatalf("Failed to open database: %v", err)
			}
			defer conn.Close()

			source := newSource(store, force)
			segments, entries, _, err := source.Load(cmd.Context(), args[0])
			if err != nil {
				log.Fatalf("Fetch failed: %v", err)
			}
			fmt.Printf("Cached %d segments and %d registry entries for %s\n",
				len(segments), len(entries), args[0])
		},
	}
	cmd.Flags().BoolVar(&force, "force-refresh", false, "refetch even if the cache is fresh")
	return cmd
}

// createMatchCmd runs the pipeline for one settlement.
func createMatchCmd() *cobra.Command {
	var force, debugScores bool
	cmd := &cobra.Command{
		Use:   "match [settlement]",
		Short: "Reconcile one settlement's segments against the registry",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			settlement := args[0]
			conn, store, err := openStore()
			if err != nil {
				log.Fatalf("Failed to open database: %v", err)
			}
			defer conn.Close()

			source := newSource(store, force)
			segments, entries, rejected, err := source.Load(cmd.Context(), settlement)
			if err != nil {
				log.Fatalf("Loading %s failed: %v", settlement, err)
			}

			orchestrator := newOrchestrator()
			orchestrator.Debug = debugScores
			startedAt := time.Now()
			result, err := orchestrator.Run(cmd.Context(), settlement, segments, entries)
			if err != nil {
				log.Fatalf("Run failed: %v", err)
			}
			result.Diagnostics.RejectedRecords = rejected

			runID := uuid.NewString()
			if err := store.SaveRun(cmd.Context(), runID, startedAt, result.Diagnostics, result.Classifications); err != nil {
				log.Fatalf("Saving run failed: %v", err)
			}
			printDiagnostics(result)
			fmt.Printf("Run %s saved\n", runID)
		},
	}
	cmd.Flags().BoolVar(&force, "force-refresh", false, "refetch even if the cache is fresh")
	cmd.Flags().BoolVar(&debugScores, "debug-scores", false, "print per-pair scoring detail")
	return cmd
}

// createBatchCmd runs every settlement found in the registry.
func createBatchCmd() *cobra.Command {
	var force bool
	var workers int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Reconcile every settlement present in the registry",
		Run: func(cmd *cobra.Command, args []string) {
			conn, store, err := openStore()
			if err != nil {
				log.Fatalf("Failed to open database: %v", err)
			}
			defer conn.Close()

			source := newSource(store, force)
			settlements, err := source.AllSettlements(cmd.Context())
			if err != nil {
				log.Fatalf("Listing settlements failed: %v", err)
			}
			fmt.Printf("Running %d settlements\n", len(settlements))

			orchestrator := newOrchestrator()
			summary, err := orchestrator.RunBatch(cmd.Context(), source, settlements, workers)
			if err != nil {
				log.Fatalf("Batch aborted: %v", err)
			}

			for _, outcome := range summary.Outcomes {
				if outcome.Err != nil {
					fmt.Printf("%s: FAILED (%v)\n", outcome.Settlement, outcome.Err)
					continue
				}
				runID := uuid.NewString()
				if err := store.SaveRun(cmd.Context(), runID, time.Now(),
					outcome.Result.Diagnostics, outcome.Result.Classifications); err != nil {
					fmt.Printf("%s: run save failed: %v\n", outcome.Settlement, err)
					continue
				}
				d := outcome.Result.Diagnostics
				fmt.Printf("%s: %d/%d matched (%d arbitration)\n",
					outcome.Settlement, d.TotalMatched, d.TotalSegments, d.ArbitrationResolved)
			}
			fmt.Printf("Batch done: %d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
		},
	}
	cmd.Flags().BoolVar(&force, "force-refresh", false, "refetch even if the cache is fresh")
	cmd.Flags().IntVar(&workers, "workers", 2, "settlements processed concurrently")
	return cmd
}

// createExportCmd writes the latest run's rows to a CSV file.
func createExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [settlement] [output.csv]",
		Short: "Export a settlement's latest run as CSV",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			conn, store, err := openStore()
			if err != nil {
				log.Fatalf("Failed to open database: %v", err)
			}
			defer conn.Close()

			runID, _, err := store.LatestRun(cmd.Context(), args[0])
			if err != nil {
				log.Fatalf("No completed run for %s: %v", args[0], err)
			}
			classifications, err := store.RunResults(cmd.Context(), runID)
			if err != nil {
				log.Fatalf("Loading run results failed: %v", err)
			}

			out, err := os.Create(args[1])
			if err != nil {
				log.Fatalf("Creating output file failed: %v", err)
			}
			defer out.Close()

			mapping := make(street.FinalMapping)
			for _, c := range classifications {
				if c.Status == street.StatusConfident && c.BestRegistryID != "" {
					mapping[c.SegmentID] = c.BestRegistryID
				}
			}
			if err := report.WriteCSV(out, classifications, mapping); err != nil {
				log.Fatalf("Export failed: %v", err)
			}
			fmt.Printf("Exported %d rows to %s\n", len(classifications), args[1])
		},
	}
}

// createServeCmd starts the report web server.
func createServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve run reports over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := web.DefaultConfig()
			cfg.Server.Addr = settings.HTTPAddr

			server, err := web.NewServer(cfg)
			if err != nil {
				log.Fatalf("Failed to start server: %v", err)
			}
			if err := server.Start(); err != nil {
				log.Fatalf("Server error: %v", err)
			}
		},
	}
}

// createPingCmd tests database connectivity.
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Run: func(cmd *cobra.Command, args []string) {
			conn, _, err := openStore()
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer conn.Close()
			fmt.Println("Database connection successful!")

			var count int
			if err := conn.DB.QueryRow("SELECT COUNT(*) FROM registry_entries").Scan(&count); err != nil {
				log.Printf("Error counting registry entries: %v", err)
			} else {
				fmt.Printf("Registry entries cached: %d\n", count)
			}
			if err := conn.DB.QueryRow("SELECT COUNT(*) FROM segments").Scan(&count); err != nil {
				log.Printf("Error counting segments: %v", err)
			} else {
				fmt.Printf("Segments cached: %d\n", count)
			}
		},
	}
}

func printDiagnostics(result *pipeline.Result) {
	d := result.Diagnostics
	fmt.Printf("Settlement %s: %d segments (%d named)\n", d.Settlement, d.TotalSegments, d.NamedSegments)
	fmt.Printf("  confident: %d, arbitration resolved: %d, arbitration failed: %d\n",
		d.ConfidentMatches, d.ArbitrationResolved, d.ArbitrationFailed)
	fmt.Printf("  matched: %d, unmatched segments: %d\n", d.TotalMatched, d.UnmatchedSegments)
	fmt.Printf("  registry identifiers: %d total, %d unmatched\n",
		d.TotalRegistryIDs, len(d.UnmatchedRegistry))
}
