package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"brandkit/internal/app"
	"brandkit/internal/bundle"
	"brandkit/internal/domain"
	"brandkit/internal/infra"
	"brandkit/internal/pipeline"
	"brandkit/internal/storage"
	"brandkit/pkg/zip"
)

const workDir = ".brandkit"

type options struct {
	concept   string
	imagePath string
	outDir    string
	locale    string
	history   string
	limit     int
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "generate",
		Short: "Generate a four-platform social media visual kit",
		Long: `generate derives one prompt per platform from a marketing concept and an
optional reference image, renders LinkedIn, Twitter/X, Instagram and blog
images one after another, and writes them plus a zip bundle to --out.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, logger, opts, cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVarP(&opts.outDir, "out", "o", "./out", "output directory")
	root.PersistentFlags().StringVar(&opts.history, "history", "", "sqlite history file (defaults to <out>/.brandkit/history.db without DATABASE_URL)")
	root.Flags().StringVarP(&opts.concept, "context", "c", "", "marketing concept text")
	root.Flags().StringVarP(&opts.imagePath, "image", "i", "", "reference image path")
	root.Flags().StringVarP(&opts.locale, "locale", "l", "", "locale for on-image text (defaults to DEFAULT_LOCALE)")

	runs := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return listRuns(cmd.Context(), cfg, logger, opts.limit, cmd.OutOrStdout())
		},
	}
	runs.Flags().IntVarP(&opts.limit, "limit", "n", 10, "number of runs to show")
	root.AddCommand(runs)
	return root
}

func loadConfig(opts *options) (*infra.Config, *infra.Logger, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	applyHistoryDefault(cfg, opts)
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "generate").Logger()
	return cfg, &logger, nil
}

// applyHistoryDefault keeps CLI runs in a local sqlite file unless Postgres
// or an explicit path is configured.
func applyHistoryDefault(cfg *infra.Config, opts *options) {
	switch {
	case opts.history != "":
		cfg.HistoryDBPath = opts.history
	case cfg.DatabaseURL == "" && cfg.HistoryDBPath == "":
		cfg.HistoryDBPath = filepath.Join(opts.outDir, workDir, "history.db")
	}
}

func runGenerate(ctx context.Context, cfg *infra.Config, logger *infra.Logger, opts *options, out io.Writer) error {
	var ref *domain.EncodedImage
	if opts.imagePath != "" {
		data, err := os.ReadFile(opts.imagePath)
		if err != nil {
			return fmt.Errorf("read reference image: %w", err)
		}
		img := domain.NewEncodedImage(mimeFromPath(opts.imagePath), data)
		ref = &img
	}
	if strings.TrimSpace(opts.concept) == "" && (ref == nil || ref.IsZero()) {
		return fmt.Errorf("%w: pass --context or a non-empty --image", domain.ErrInvalidInput)
	}
	locale := opts.locale
	if locale == "" {
		locale = cfg.DefaultLocale
	}

	lock, err := lockOutput(opts.outDir)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	svc, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	summary, err := svc.Pipeline.GenerateAll(ctx, pipeline.Input{Context: opts.concept, Reference: ref, Locale: locale})
	if err != nil && len(summary.States) == 0 {
		return err
	}
	if err != nil {
		logger.Warn().Err(err).Msg("run did not complete cleanly")
	}

	fmt.Fprintf(out, "run %s (%s)\n", summary.RunID, svc.Backend.Name())
	if summary.StyleSeed != "" {
		fmt.Fprintf(out, "style: %s\n", summary.StyleSeed)
	}
	fmt.Fprintln(out, statusTable(summary.States))

	keys, err := exportAssets(ctx, opts.outDir, summary.States, time.Now())
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Fprintln(out, "wrote", filepath.Join(opts.outDir, filepath.FromSlash(key)))
	}
	return nil
}

// lockOutput stops two generate processes from writing the same directory.
func lockOutput(outDir string) (*flock.Flock, error) {
	dir := filepath.Join(outDir, workDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}
	lock := flock.New(filepath.Join(dir, "generate.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another generate run is writing to %s", outDir)
	}
	return lock, nil
}

func exportAssets(ctx context.Context, outDir string, states []domain.AssetState, at time.Time) ([]string, error) {
	assets, err := bundle.Collect(states, at)
	if err != nil {
		return nil, err
	}
	archive, err := zip.ArchiveAssets(assets, at)
	if err != nil {
		return nil, err
	}
	assets = append(assets, zip.Asset{Filename: bundle.ArchiveName(at), MIME: "application/zip", Data: archive})

	files, err := storage.NewFileStore(outDir)
	if err != nil {
		return nil, err
	}
	return files.Export(ctx, "", assets)
}

func listRuns(ctx context.Context, cfg *infra.Config, logger *infra.Logger, limit int, out io.Writer) error {
	svc, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	if svc.History == nil {
		return fmt.Errorf("run history is not configured")
	}
	runs, err := svc.History.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, runsTable(runs))
	return nil
}

func mimeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
