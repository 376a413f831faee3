package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/smhanov/bughound"
	"github.com/smhanov/bughound/internal/config"
	"github.com/smhanov/bughound/internal/runner"
	"github.com/smhanov/bughound/lint"
	"github.com/smhanov/bughound/llm"
	"github.com/smhanov/bughound/retrieve"
)

var (
	inputPath  string
	outputPath string
	configPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze every snippet in a CSV file",
	RunE:  runBatch,
}

func init() {
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the input CSV file")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "output.csv", "path to the output CSV file")
	runCmd.Flags().StringVarP(&configPath, "config", "c", "bughound.yaml", "path to the config file")
	_ = runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()

	provider, err := buildProvider(ctx, cfg)
	if err != nil {
		return err
	}
	retriever, closeRetriever, err := buildRetriever(ctx, cfg)
	if err != nil {
		return err
	}
	if closeRetriever != nil {
		defer closeRetriever()
	}

	pipeline := bughound.New(
		bughound.WithProvider(provider),
		bughound.WithRetriever(retriever),
		bughound.WithStaticAnalyzers(
			lint.NewCpplint(),
			lint.NewCppcheck(),
			lint.NewClangTidy(),
			lint.NewHeuristics(),
		),
		bughound.WithMaxIterations(cfg.Run.MaxIterations),
		bughound.WithLogger(log),
	)

	rows, err := runner.LoadRows(inputPath)
	if err != nil {
		return err
	}
	log.Info("loaded input rows", zap.Int("rows", len(rows)), zap.String("path", inputPath))

	batch := runner.New(pipeline, log,
		time.Duration(cfg.Run.CooldownSeconds)*time.Second, cfg.Run.Concurrency)
	results, err := batch.Process(ctx, rows)
	if err != nil {
		return err
	}

	if err := runner.WriteResults(outputPath, results); err != nil {
		return err
	}
	log.Info("wrote results", zap.Int("rows", len(results)), zap.String("path", outputPath))
	return nil
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func buildProvider(ctx context.Context, cfg *config.Config) (bughound.LLMProvider, error) {
	switch cfg.Provider.Kind {
	case "gemini":
		return llm.NewGeminiProvider(ctx, cfg.Provider.APIKey, cfg.Provider.Model)
	case "openai":
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.Provider.APIKey,
			BaseURL: cfg.Provider.BaseURL,
			Model:   cfg.Provider.Model,
		})
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}

// buildRetriever returns the configured retriever, a cleanup function for
// backends holding resources, or (nil, nil, nil) when retrieval is off.
func buildRetriever(ctx context.Context, cfg *config.Config) (bughound.DocRetriever, func() error, error) {
	switch cfg.Retrieval.Backend {
	case "none":
		return nil, nil, nil
	case "tavily":
		return retrieve.NewTavily(cfg.Retrieval.APIKey, cfg.Retrieval.Depth), nil, nil
	case "store":
		store, err := retrieve.OpenStore(cfg.Retrieval.StorePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "embedding":
		store, err := retrieve.OpenStore(cfg.Retrieval.StorePath)
		if err != nil {
			return nil, nil, err
		}
		embedder, err := retrieve.NewGenAIEmbedder(ctx, cfg.Provider.APIKey, "")
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		return retrieve.NewEmbeddingRetriever(store, embedder), store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown retrieval backend %q", cfg.Retrieval.Backend)
	}
}
