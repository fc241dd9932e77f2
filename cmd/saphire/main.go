// saphire drives scripted cooperative dialogues across heterogeneous
// text-generation backends and records every run in an append-only
// transcript store.
//
// Usage:
//
//	saphire discuss [--config config.yaml] [--topic "..."]   # round-robin discussion
//	saphire task    [--config config.yaml] [--task "..."]    # partitioned task + synthesis
//	saphire history [--config config.yaml] [--limit 5]       # inspect recent runs
//	saphire version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/saphire-ai/saphire/config"
	"github.com/saphire-ai/saphire/dialogue"
	"github.com/saphire-ai/saphire/internal/metrics"
	"github.com/saphire-ai/saphire/llm/providers/gigachat"
	"github.com/saphire-ai/saphire/llm/providers/ollama"
	"github.com/saphire-ai/saphire/llm/providers/openai"
	"github.com/saphire-ai/saphire/transcript"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const defaultTopic = `Let's discuss the importance of collaboration between different language models
for solving complex tasks. How can we best utilize the strengths of each model?`

const defaultTask = `Task: Develop a concept for an educational platform for children.
Each model should propose a solution for the following aspects:
1. Technical aspect
2. Pedagogical aspect
3. User experience aspect`

// defaultAspects is the fixed backend-to-aspect assignment for the
// partitioned task plan.
var defaultAspects = map[string]string{
	"openai":   "technical aspect of the platform",
	"ollama":   "pedagogical aspect of the platform",
	"gigachat": "user experience aspect",
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "discuss":
		runDiscuss(os.Args[2:])
	case "task":
		runTask(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "version":
		fmt.Printf("saphire %s (built %s)\n", Version, BuildTime)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `saphire - multi-model cooperative dialogue harness

Commands:
  discuss   run a round-robin discussion across all backends
  task      run a partitioned task with a synthesis round
  history   print the most recent runs from the transcript store
  version   print version information
`)
}

// setup wires the shared pieces every command needs: config, logger, store.
func setup(configPath string) (*config.Config, *zap.Logger, *transcript.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}

	store, err := transcript.NewStore(db, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, store, nil
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

// buildBackends constructs the adapter for each identifier in turn order.
func buildBackends(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) ([]*dialogue.Backend, error) {
	backends := make([]*dialogue.Backend, 0, len(cfg.Dialogue.Order))
	for _, id := range cfg.Dialogue.Order {
		var b *dialogue.Backend
		switch id {
		case "openai":
			b = dialogue.NewBackend(id, openai.New(cfg.Backends.OpenAI, logger), logger, collector)
		case "ollama":
			b = dialogue.NewBackend(id, ollama.New(cfg.Backends.Ollama, logger), logger, collector)
		case "gigachat":
			b = dialogue.NewBackend(id, gigachat.New(cfg.Backends.GigaChat, logger), logger, collector)
		default:
			return nil, fmt.Errorf("unknown backend %q in dialogue order", id)
		}
		backends = append(backends, b)
	}
	return backends, nil
}

func buildOrchestrator(cfg *config.Config, logger *zap.Logger, store *transcript.Store) (*dialogue.Orchestrator, error) {
	collector := metrics.NewCollector("saphire", prometheus.DefaultRegisterer, logger)
	backends, err := buildBackends(cfg, logger, collector)
	if err != nil {
		return nil, err
	}
	return dialogue.New(store, backends, dialogue.Options{
		Rounds:        cfg.Dialogue.Rounds,
		Language:      cfg.Dialogue.Language,
		MinFinalWords: cfg.Dialogue.MinFinalWords,
		Logger:        logger,
		Metrics:       collector,
	})
}

func runDiscuss(args []string) {
	fs := flag.NewFlagSet("discuss", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	topic := fs.String("topic", defaultTopic, "discussion topic seeding the run")
	fs.Parse(args)

	cfg, logger, store, err := setup(*configPath)
	if err != nil {
		fail(err)
	}
	defer logger.Sync()

	orch, err := buildOrchestrator(cfg, logger, store)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	name, runErr := orch.RunDiscussion(ctx, *topic)
	if name != "" {
		printRun(ctx, store, name)
	}
	if runErr != nil {
		fail(runErr)
	}
	fmt.Printf("\nRun %s completed: all backends responded in %s.\n", name, cfg.Dialogue.Language)
}

func runTask(args []string) {
	fs := flag.NewFlagSet("task", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	task := fs.String("task", defaultTask, "shared task seeding the run")
	fs.Parse(args)

	cfg, logger, store, err := setup(*configPath)
	if err != nil {
		fail(err)
	}
	defer logger.Sync()

	orch, err := buildOrchestrator(cfg, logger, store)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	name, runErr := orch.RunPartitionedTask(ctx, *task, defaultAspects)
	if name != "" {
		printRun(ctx, store, name)
	}
	if runErr != nil {
		fail(runErr)
	}
	fmt.Printf("\nRun %s completed: all backends provided unique final responses.\n", name)
}

func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	limit := fs.Int("limit", 5, "number of recent runs to show")
	fs.Parse(args)

	_, logger, store, err := setup(*configPath)
	if err != nil {
		fail(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	runs, err := store.RecentRuns(ctx, *limit)
	if err != nil {
		fail(err)
	}
	for _, run := range runs {
		fmt.Printf("\n=== Run: %s ===\n", run.RunName)
		fmt.Printf("Time: %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
		printRun(ctx, store, run.RunName)
	}
}

// printRun renders every entry of a run for human inspection.
func printRun(ctx context.Context, store *transcript.Store, runName string) {
	entries, err := store.List(ctx, runName)
	if err != nil {
		fail(err)
	}
	for _, e := range entries {
		fmt.Printf("\n%s\n", banner(fmt.Sprintf(" [%d] %s (%s) ", e.SequenceNumber, e.Speaker, e.Kind)))
		if e.Aspect != "" {
			fmt.Printf("Aspect: %s\n", e.Aspect)
		}
		fmt.Println(e.Content)
	}
}

func banner(title string) string {
	const width = 80
	pad := width - len(title)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	return strings.Repeat("=", left) + title + strings.Repeat("=", pad-left)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
