package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"rpy-translator/internal/cache"
	"rpy-translator/internal/config"
	"rpy-translator/internal/language"
	"rpy-translator/internal/locator"
	"rpy-translator/internal/rewriter"
	"rpy-translator/internal/translation"
	"rpy-translator/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := newRootCmd()
	rootCmd.AddCommand(languagesCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Run failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		allFlag         bool
		formalityFlag   string
		retranslateFlag bool
		rootFlag        string
		jobsFlag        int
	)

	cmd := &cobra.Command{
		Use:   "rpy-translator [language]",
		Short: "Fill empty new \"\" lines in Ren'Py translation files via DeepL",
		Long: `Scans <root>/tl/<language>/**/*.rpy for old "..." / new "..." pairs,
translates the pairs whose new payload is empty using the DeepL API, and
rewrites only those lines in place. Already-translated pairs are left
untouched, so reruns are no-ops.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			langArg := ""
			if len(args) == 1 {
				langArg = args[0]
			}
			return runTranslate(translateParams{
				language:    langArg,
				all:         allFlag,
				formality:   formalityFlag,
				retranslate: retranslateFlag,
				root:        rootFlag,
				jobs:        jobsFlag,
			})
		},
	}

	cmd.Flags().BoolVar(&allFlag, "all", false, "translate every language folder under <root>/tl")
	cmd.Flags().StringVar(&formalityFlag, "formality", "default", "formality passed to DeepL: default, more or less")
	cmd.Flags().BoolVar(&retranslateFlag, "retranslate", false, "re-translate pairs that already have a non-empty target")
	cmd.Flags().StringVar(&rootFlag, "root", "game", "game directory containing the tl/ tree")
	cmd.Flags().IntVar(&jobsFlag, "jobs", 0, "number of files to process in parallel (0 = WORKER_COUNT env, default sequential)")

	return cmd
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List known spelled-out language names and their target codes",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range language.Names() {
				code, _ := language.Code(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, code)
			}
		},
	}
}

type translateParams struct {
	language    string
	all         bool
	formality   string
	retranslate bool
	root        string
	jobs        int
}

func runTranslate(p translateParams) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	langArg := p.language
	if langArg == "" {
		langArg = cfg.DefaultLanguage
	}

	targetLang, err := language.Resolve(langArg)
	if err != nil {
		return err
	}

	formality, err := translation.ParseFormality(p.formality)
	if err != nil {
		return err
	}

	dirs, err := locator.ResolveFolders(p.root, language.Folder(langArg), p.all)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("missing translation folder: %w", err)
		}
		return err
	}

	memory, err := cache.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("Translation memory unavailable, continuing without persistence")
		memory, _ = cache.Open(ctx, "")
	}
	defer memory.Close()

	if err := memory.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload translation memory")
	}

	client := translation.NewDeepLClient(cfg.DeepLAPIKey, cfg.DeepLAPIURL, cfg.MaxRetries, cfg.RequestTimeout)
	rw := rewriter.New(client, memory)

	opts := rewriter.Options{
		TargetLang:  targetLang,
		Formality:   formality,
		Retranslate: p.retranslate || cfg.RetranslateExisting,
	}

	var files []string
	for _, dir := range dirs {
		log.Info().Str("dir", dir).Msg("Processing directory")
		found, err := locator.EnumerateFiles(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Skipping unreadable directory")
			continue
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		log.Warn().Msg("No script files found, nothing to do")
		return nil
	}

	log.Info().
		Int("files", len(files)).
		Str("target_lang", targetLang).
		Str("formality", string(formality)).
		Msg("Starting translation run")

	jobs := p.jobs
	if jobs == 0 {
		jobs = cfg.WorkerCount
	}

	pool := worker.NewPool[string, rewriter.FileStats](jobs,
		func(ctx context.Context, path string) (rewriter.FileStats, error) {
			return rw.ProcessFile(ctx, path, opts)
		},
	)
	results := pool.Execute(ctx, files)

	var pending, translated, failed, skipped int
	for _, res := range results {
		if res.Err != nil {
			skipped++
			log.Warn().Err(res.Err).Str("file", res.Input).Msg("File skipped")
			continue
		}
		pending += res.Result.Pending
		translated += res.Result.Translated
		failed += res.Result.Failed
	}

	log.Info().
		Int("files", len(files)).
		Int("pending", pending).
		Int("translated", translated).
		Int("failed", failed).
		Int("skipped_files", skipped).
		Msg("Translation run complete")

	if err := ctx.Err(); err != nil {
		return err
	}

	// Per-unit failures are warnings; the run only fails when nothing at
	// all could be translated.
	if pending > 0 && translated == 0 {
		return fmt.Errorf("no units could be translated (%d pending, %d failed)", pending, failed)
	}

	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}
