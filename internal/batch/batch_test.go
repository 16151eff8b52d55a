package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extract-go/internal/docparser"
	"resume-extract-go/internal/engine"
	"resume-extract-go/internal/store"
	"resume-extract-go/internal/types"
)

const batchResume = `John Doe
Email: john.doe@example.com
Phone: (555) 123-4567

Skills
Go, Python, SQL, Docker, Kubernetes

Experience
Acme Corp
Software Engineer
Jan 2018 - Mar 2021
- Built backend services

Education
Stanford University, B.S. Computer Science, 2015
`

func newTestRunner(t *testing.T, checkpoint bool) (*Runner, *store.Store) {
	t.Helper()
	parser, err := docparser.New(context.Background())
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "batch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	eng := engine.New(engine.DefaultConfig(), nil)
	return New(parser, eng, st, checkpoint), st
}

func writeResume(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunProcessesFlatFolder(t *testing.T) {
	runner, st := newTestRunner(t, false)

	dir := t.TempDir()
	writeResume(t, dir, "a.txt", batchResume)
	writeResume(t, dir, "b.txt", batchResume)
	writeResume(t, dir, "notes.xyz", "unsupported extension, ignored")

	summary, err := runner.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	records, err := st.ListRecords()
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, "john.doe@example.com", rec.Email)
		assert.Equal(t, string(docparser.MethodFallback), rec.ParseMethod)
	}
}

func TestRunWalksCandidateSubfolders(t *testing.T) {
	runner, _ := newTestRunner(t, false)

	dir := t.TempDir()
	sub := filepath.Join(dir, "candidate-01")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeResume(t, sub, "resume.txt", batchResume)

	summary, err := runner.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
}

func TestRunCheckpointSkipsProcessedFiles(t *testing.T) {
	runner, st := newTestRunner(t, true)

	dir := t.TempDir()
	writeResume(t, dir, "a.txt", batchResume)
	writeResume(t, dir, "b.txt", batchResume)

	first, err := runner.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Processed)

	second, err := runner.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Processed)
	assert.Equal(t, 2, second.Skipped)

	n, err := st.ProcessedCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunRecordsUnreadableFileAsFailed(t *testing.T) {
	runner, st := newTestRunner(t, false)

	dir := t.TempDir()
	writeResume(t, dir, "short.txt", "too short")

	summary, err := runner.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.ByStatus[types.StatusFailed])

	records, err := st.ListRecords()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.StatusFailed, records[0].Status)
	assert.Equal(t, string(docparser.MethodFailed), records[0].ParseMethod)
}

func TestProcessFilePersistsSingleRun(t *testing.T) {
	runner, st := newTestRunner(t, false)

	path := writeResume(t, t.TempDir(), "single.txt", batchResume)
	rec, err := runner.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "john.doe@example.com", rec.Email)
	assert.Equal(t, path, rec.SourceFile)

	stored, err := st.GetRecord(rec.RecordID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, rec.Email, stored.Email)

	done, err := st.IsProcessed(path)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRunCancelledContextStopsEarly(t *testing.T) {
	runner, _ := newTestRunner(t, false)

	dir := t.TempDir()
	writeResume(t, dir, "a.txt", batchResume)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMissingDirFails(t *testing.T) {
	runner, _ := newTestRunner(t, false)

	_, err := runner.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}