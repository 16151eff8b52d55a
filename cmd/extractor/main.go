// Command extractor runs resume field extraction: single files, batch
// folders, backend probes, and report export.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"resume-extract-go/internal/batch"
	"resume-extract-go/internal/config"
	"resume-extract-go/internal/docparser"
	"resume-extract-go/internal/engine"
	"resume-extract-go/internal/llm"
	"resume-extract-go/internal/logger"
	"resume-extract-go/internal/report"
	"resume-extract-go/internal/store"
)

var (
	command    = flag.String("cmd", "extract", "command to run: extract=single file, batch=process a folder, probe=check the inference backend, export=write stored results, init-config=write a sample config")
	configPath = flag.String("config", "", "path to the YAML config file")
	filePath   = flag.String("file", "", "resume file for the extract command")
	inputDir   = flag.String("dir", "", "input folder for the batch command (overrides config)")
	outPath    = flag.String("out", "", "output path for the export command")
	format     = flag.String("format", "csv", "export format: csv or xlsx")
	noAI       = flag.Bool("no-ai", false, "disable the inference stage, pattern extraction only")
)

func main() {
	flag.Parse()

	if *command == "init-config" {
		handleInitConfigCommand()
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "extract":
		handleExtractCommand(ctx, cfg)
	case "batch":
		handleBatchCommand(ctx, cfg)
	case "probe":
		handleProbeCommand(ctx, cfg)
	case "export":
		handleExportCommand(cfg)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q; supported: extract, batch, probe, export, init-config\n", *command)
		flag.Usage()
		os.Exit(1)
	}
}

func buildEngine(cfg *config.Config) *engine.Engine {
	engineCfg := engine.Config{
		Policy:           engine.Policy(cfg.Engine.Policy),
		MinSkills:        cfg.Engine.MinSkills,
		PhoneWindow:      cfg.Engine.PhoneWindow,
		DOBWindow:        cfg.Engine.DOBWindow,
		HeaderPromptSize: cfg.Engine.HeaderPromptSize,
	}
	return engine.New(engineCfg, buildInferencer(cfg))
}

func buildInferencer(cfg *config.Config) engine.Inferencer {
	if *noAI {
		return nil
	}
	client, err := buildClient(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("inference backend unavailable, running pattern-only")
		return nil
	}
	return client
}

func buildClient(cfg *config.Config) (*llm.Client, error) {
	m, err := llm.NewChatCompletionModel(llm.ModelConfig{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		ModelName:   cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.DeepMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewClient(m, llm.ClientOptions{
		MaxRetries: cfg.LLM.MaxRetries,
		RetryWait:  time.Duration(cfg.LLM.RetryWaitSeconds) * time.Second,
		Timeout:    time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	}), nil
}

func handleExtractCommand(ctx context.Context, cfg *config.Config) {
	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "error: -file is required for the extract command")
		os.Exit(1)
	}

	parser, err := docparser.New(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize document parser")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open results database")
	}
	defer st.Close()

	runner := batch.New(parser, buildEngine(cfg), st, false)
	rec, err := runner.ProcessFile(ctx, *filePath)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *filePath).Msg("extraction failed")
	}
	if rec.ParseMethod == string(docparser.MethodFailed) {
		fmt.Fprintf(os.Stderr, "error: could not extract text from %s\n", *filePath)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode result")
	}
	fmt.Println(string(out))
}

func handleBatchCommand(ctx context.Context, cfg *config.Config) {
	dir := cfg.Batch.InputDir
	if *inputDir != "" {
		dir = *inputDir
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "error: no input folder; pass -dir or set batch.input_dir in the config")
		os.Exit(1)
	}

	parser, err := docparser.New(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize document parser")
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open results database")
	}
	defer st.Close()

	runner := batch.New(parser, buildEngine(cfg), st, cfg.Batch.Checkpoint)
	summary, err := runner.Run(ctx, dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("batch run failed")
	}

	fmt.Printf("Found:       %d\n", summary.Found)
	fmt.Printf("Processed:   %d\n", summary.Processed)
	fmt.Printf("Skipped:     %d\n", summary.Skipped)
	fmt.Printf("Failed:      %d\n", summary.Failed)
	fmt.Printf("AI assisted: %d\n", summary.AIAssisted)
	for status, n := range summary.ByStatus {
		fmt.Printf("  %-10s %d\n", status, n)
	}

	if cfg.Batch.OutputDir != "" {
		exportAfterBatch(cfg, st)
	}
}

func exportAfterBatch(cfg *config.Config, st *store.Store) {
	records, err := st.ListRecords()
	if err != nil {
		logger.Error().Err(err).Msg("failed to load records for export")
		return
	}
	if err := os.MkdirAll(cfg.Batch.OutputDir, 0755); err != nil {
		logger.Error().Err(err).Msg("failed to create output folder")
		return
	}
	path := filepath.Join(cfg.Batch.OutputDir, "results.csv")
	if err := report.WriteCSVFile(path, records); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to write results CSV")
		return
	}
	fmt.Printf("Results written to %s\n", path)
}

func handleProbeCommand(ctx context.Context, cfg *config.Config) {
	client, err := buildClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if client.Probe(ctx) {
		fmt.Printf("inference backend at %s is reachable\n", cfg.LLM.APIURL)
		return
	}
	fmt.Fprintf(os.Stderr, "inference backend at %s is not responding\n", cfg.LLM.APIURL)
	os.Exit(1)
}

func handleExportCommand(cfg *config.Config) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open results database")
	}
	defer st.Close()

	records, err := st.ListRecords()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load records")
	}
	if len(records) == 0 {
		fmt.Println("no records to export")
		return
	}

	path := *outPath
	switch *format {
	case "csv":
		if path == "" {
			path = "results.csv"
		}
		err = report.WriteCSVFile(path, records)
	case "xlsx":
		if path == "" {
			path = "results.xlsx"
		}
		err = report.WriteXLSX(path, records)
	default:
		fmt.Fprintf(os.Stderr, "error: unknown format %q; supported: csv, xlsx\n", *format)
		os.Exit(1)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("path", path).Msg("export failed")
	}
	fmt.Printf("%d records written to %s\n", len(records), path)
}

func handleInitConfigCommand() {
	path := *configPath
	if path == "" {
		path = "config.yaml"
	}
	if err := config.CreateSampleConfig(path); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sample config written to %s\n", path)
}
