package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"saucebatch/internal/batch"
	"saucebatch/internal/config"
	"saucebatch/internal/danbooru"
	"saucebatch/internal/logging"
	"saucebatch/internal/results"
	"saucebatch/internal/saucenao"
)

func newSearchCommand(configFlag *string) *cobra.Command {
	var (
		apiKey           string
		similarity       float64
		sleepSeconds     int
		numResults       int
		minSim           int
		saveJSON         string
		danbooruUsername string
		danbooruAPIKey   string
		proxyPort        int
		outputDir        string
	)

	cmd := &cobra.Command{
		Use:   "search <folder>",
		Short: "Search every image in a folder and sort files by outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			applyFlagOverrides(cfg, cmd, flagValues{
				apiKey:           apiKey,
				similarity:       similarity,
				sleepSeconds:     sleepSeconds,
				numResults:       numResults,
				minSim:           minSim,
				saveJSON:         saveJSON,
				danbooruUsername: danbooruUsername,
				danbooruAPIKey:   danbooruAPIKey,
				proxyPort:        proxyPort,
				outputDir:        outputDir,
			})
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.SauceNAO.APIKey == "" {
				return errors.New("saucenao api key required: pass --api-key or set saucenao.api_key in the config file")
			}

			folder, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve folder: %w", err)
			}
			info, err := os.Stat(folder)
			if err != nil {
				return fmt.Errorf("inspect folder: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", folder)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: logFormat(cfg),
				Output: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			return runSearch(cmd, cfg, folder, logger)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "SauceNAO API key")
	cmd.Flags().Float64Var(&similarity, "similarity", 70.0, "Client-side similarity threshold (0-100)")
	cmd.Flags().IntVar(&sleepSeconds, "sleep", 10, "Delay in seconds between search uploads")
	cmd.Flags().IntVar(&numResults, "num", 5, "Maximum results requested per upload")
	cmd.Flags().IntVar(&minSim, "minsim", 80, "Service-side similarity floor")
	cmd.Flags().StringVar(&saveJSON, "save", "", "Write the per-file JSON document under this name")
	cmd.Flags().StringVar(&danbooruUsername, "danbooru-username", "", "Danbooru username for metadata enrichment")
	cmd.Flags().StringVar(&danbooruAPIKey, "danbooru-api-key", "", "Danbooru API key for metadata enrichment")
	cmd.Flags().IntVar(&proxyPort, "proxy-port", 7890, "Route outbound calls through http://127.0.0.1:<port>")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Parent directory for the run output folder")

	return cmd
}

func runSearch(cmd *cobra.Command, cfg *config.Config, folder string, logger *slog.Logger) error {
	lock := flock.New(filepath.Join(folder, ".saucebatch.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire folder lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another saucebatch run is processing %s", folder)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	httpClient, err := newHTTPClient(cfg)
	if err != nil {
		return err
	}

	searcher, err := saucenao.New(
		cfg.SauceNAO.APIKey,
		cfg.SauceNAO.BaseURL,
		cfg.Search.NumResults,
		cfg.Search.MinSim,
		saucenao.WithHTTPClient(httpClient),
	)
	if err != nil {
		return err
	}

	var enricher batch.Enricher
	if cfg.DanbooruEnabled() {
		client, err := danbooru.New(
			cfg.Danbooru.Username,
			cfg.Danbooru.APIKey,
			cfg.Danbooru.BaseURL,
			danbooru.WithHTTPClient(httpClient),
		)
		if err != nil {
			return err
		}
		enricher = client
	}

	started := time.Now()
	writer, err := results.NewWriter(cfg.Output.Dir, started)
	if err != nil {
		return err
	}

	report, err := results.OpenReport(writer.Dir())
	if err != nil {
		return err
	}
	defer func() {
		_ = report.Close()
	}()

	runID := uuid.NewString()
	ctx := cmd.Context()
	if err := report.StartRun(ctx, runID, folder, started); err != nil {
		return err
	}

	acc := results.NewAccumulator()
	runner, err := batch.NewRunner(
		batch.Options{Folder: folder, Threshold: cfg.Search.Similarity, RunID: runID},
		batch.Deps{
			Searcher:    searcher,
			Enricher:    enricher,
			Accumulator: acc,
			Report:      report,
			Pacer:       batch.NewPacer(time.Duration(cfg.Search.SleepSeconds) * time.Second),
			Logger:      logger,
		},
	)
	if err != nil {
		return err
	}

	summary, runErr := runner.Run(ctx)

	// Outputs are written even after a partial run so completed work is
	// never lost.
	if cfg.Output.SaveJSON != "" {
		path, err := writer.WriteJSON(cfg.Output.SaveJSON, acc)
		if err != nil {
			logger.Error("write json results failed", logging.Error(err))
		} else {
			logger.Info("json results saved", logging.String("path", path))
		}
	} else {
		logger.Info("json document not requested, writing csv tables only")
	}
	if err := writer.WriteCSVs(acc); err != nil {
		logger.Error("write csv results failed", logging.Error(err))
	} else {
		logger.Info("csv results saved", logging.String("dir", writer.Dir()))
	}
	if err := report.FinishRun(ctx, runID, time.Now()); err != nil {
		logger.Warn("finalize run report failed", logging.Error(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(summary, acc, writer.Dir()))

	return runErr
}

type flagValues struct {
	apiKey           string
	similarity       float64
	sleepSeconds     int
	numResults       int
	minSim           int
	saveJSON         string
	danbooruUsername string
	danbooruAPIKey   string
	proxyPort        int
	outputDir        string
}

// applyFlagOverrides copies explicitly set flags over the loaded config.
// Unset flags leave file values (or defaults) alone.
func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, values flagValues) {
	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.SauceNAO.APIKey = values.apiKey
	}
	if flags.Changed("similarity") {
		cfg.Search.Similarity = values.similarity
	}
	if flags.Changed("sleep") {
		cfg.Search.SleepSeconds = values.sleepSeconds
	}
	if flags.Changed("num") {
		cfg.Search.NumResults = values.numResults
	}
	if flags.Changed("minsim") {
		cfg.Search.MinSim = values.minSim
	}
	if flags.Changed("save") {
		cfg.Output.SaveJSON = values.saveJSON
	}
	if flags.Changed("danbooru-username") {
		cfg.Danbooru.Username = values.danbooruUsername
	}
	if flags.Changed("danbooru-api-key") {
		cfg.Danbooru.APIKey = values.danbooruAPIKey
	}
	if flags.Changed("proxy-port") {
		cfg.Proxy.Enabled = true
		cfg.Proxy.Port = values.proxyPort
	}
	if flags.Changed("output-dir") {
		cfg.Output.Dir = values.outputDir
	}
}

// newHTTPClient builds the shared client for both APIs, routed through
// the local proxy when one is configured.
func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	client := &http.Client{Timeout: 20 * time.Second}
	if cfg.Proxy.Enabled {
		proxyURL, err := url.Parse(fmt.Sprintf("http://127.0.0.1:%d", cfg.Proxy.Port))
		if err != nil {
			return nil, fmt.Errorf("build proxy url: %w", err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

func logFormat(cfg *config.Config) string {
	if cfg.Logging.Format != "" {
		return cfg.Logging.Format
	}
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return "console"
	}
	return "json"
}
