// Package batch walks a folder of resume documents, runs each through
// the extraction engine, and persists the results with checkpointing
// so interrupted runs resume where they stopped.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"resume-extract-go/internal/docparser"
	"resume-extract-go/internal/engine"
	"resume-extract-go/internal/logger"
	"resume-extract-go/internal/store"
	"resume-extract-go/internal/types"
)

var supportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".text": true,
	".md":   true,
}

// Summary reports what a run did.
type Summary struct {
	Found      int
	Processed  int
	Skipped    int
	Failed     int
	AIAssisted int
	ByStatus   map[types.ExtractionStatus]int
}

// Runner drives batch extraction.
type Runner struct {
	parser     *docparser.Parser
	engine     *engine.Engine
	store      *store.Store
	checkpoint bool
}

// New builds a batch runner. With checkpoint enabled, files that
// already have a completion record in the store are skipped.
func New(parser *docparser.Parser, eng *engine.Engine, st *store.Store, checkpoint bool) *Runner {
	return &Runner{
		parser:     parser,
		engine:     eng,
		store:      st,
		checkpoint: checkpoint,
	}
}

// Run processes every supported document under inputDir. Individual
// file failures are counted, not fatal; the run stops early only when
// the context is cancelled or the store breaks.
func (r *Runner) Run(ctx context.Context, inputDir string) (*Summary, error) {
	files, err := collectFiles(inputDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Found:    len(files),
		ByStatus: map[types.ExtractionStatus]int{},
	}
	logger.Info().Int("files", len(files)).Str("dir", inputDir).Msg("batch run started")

	for _, path := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		if r.checkpoint {
			done, err := r.store.IsProcessed(path)
			if err != nil {
				return summary, fmt.Errorf("checkpoint lookup failed for %s: %w", path, err)
			}
			if done {
				summary.Skipped++
				logger.Debug().Str("file", path).Msg("already processed, skipping")
				continue
			}
		}

		rec, err := r.processFile(ctx, path)
		if err != nil {
			summary.Failed++
			logger.Error().Err(err).Str("file", path).Msg("file processing failed")
			continue
		}

		summary.Processed++
		summary.ByStatus[rec.Status]++
		if rec.AIEnhanced {
			summary.AIAssisted++
		}
		if rec.Status == types.StatusFailed {
			summary.Failed++
		}
		logger.Info().
			Str("file", path).
			Str("status", string(rec.Status)).
			Bool("ai_enhanced", rec.AIEnhanced).
			Msg("file processed")
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("ai_assisted", summary.AIAssisted).
		Msg("batch run finished")
	return summary, nil
}

// ProcessFile extracts one document and saves the result.
func (r *Runner) ProcessFile(ctx context.Context, path string) (*types.ResumeRecord, error) {
	return r.processFile(ctx, path)
}

func (r *Runner) processFile(ctx context.Context, path string) (*types.ResumeRecord, error) {
	text, method := r.parser.GetResumeText(ctx, path)

	var rec *types.ResumeRecord
	if method == docparser.MethodFailed {
		// Keep a row for the failure so the report shows the file.
		rec = types.NewResumeRecord(path)
		rec.SetStatus()
	} else {
		rec = r.engine.Extract(ctx, text)
		rec.SourceFile = path
	}
	rec.ParseMethod = string(method)

	if err := r.store.SaveRecord(rec); err != nil {
		return nil, fmt.Errorf("failed to save record for %s: %w", path, err)
	}
	if err := r.store.MarkProcessed(path, rec.RecordID); err != nil {
		return nil, fmt.Errorf("failed to checkpoint %s: %w", path, err)
	}
	return rec, nil
}

// collectFiles gathers supported documents directly under inputDir
// and one level down, so both flat folders and per-candidate
// subfolders work. Results are sorted for stable run order.
func collectFiles(inputDir string) ([]string, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", inputDir, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(inputDir, entry.Name())
		if entry.IsDir() {
			subEntries, err := os.ReadDir(path)
			if err != nil {
				logger.Warn().Err(err).Str("dir", path).Msg("skipping unreadable subfolder")
				continue
			}
			for _, sub := range subEntries {
				if sub.IsDir() {
					continue
				}
				subPath := filepath.Join(path, sub.Name())
				if isSupported(sub.Name()) {
					files = append(files, subPath)
				}
			}
			continue
		}
		if isSupported(entry.Name()) {
			files = append(files, path)
		}
	}

	sort.Strings(files)
	return files, nil
}

func isSupported(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~") {
		return false
	}
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}
