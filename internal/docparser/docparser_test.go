package docparser

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Smith</w:t></w:r></w:p>
    <w:p><w:r><w:t>Email: jane.smith@example.com</w:t></w:r></w:p>
    <w:p><w:r><w:t>Phone: (555) 123-4567</w:t></w:r></w:p>
    <w:p><w:r><w:t>Senior software engineer with ten years of experience.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDOCX(t *testing.T, dir, name, documentXML string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func TestGetResumeTextFromDOCX(t *testing.T) {
	p, err := New(context.Background())
	require.NoError(t, err)

	path := writeDOCX(t, t.TempDir(), "resume.docx", sampleDocumentXML)
	text, method := p.GetResumeText(context.Background(), path)

	assert.Equal(t, MethodPrimary, method)
	assert.Contains(t, text, "Jane Smith")
	assert.Contains(t, text, "jane.smith@example.com")
	assert.Contains(t, text, "(555) 123-4567")
	// Paragraphs become separate lines.
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.GreaterOrEqual(t, len(lines), 4)
}

func TestGetResumeTextFromTxt(t *testing.T) {
	p, err := New(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	content := "John Doe\njohn@example.com\nA seasoned developer with plenty of production experience."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	text, method := p.GetResumeText(context.Background(), path)
	assert.Equal(t, MethodFallback, method)
	assert.Equal(t, content, text)
}

func TestGetResumeTextTooShortFails(t *testing.T) {
	p, err := New(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "stub.txt")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o644))

	text, method := p.GetResumeText(context.Background(), path)
	assert.Equal(t, MethodFailed, method)
	assert.Empty(t, text)
}

func TestGetResumeTextMissingFileFails(t *testing.T) {
	p, err := New(context.Background())
	require.NoError(t, err)

	text, method := p.GetResumeText(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Equal(t, MethodFailed, method)
	assert.Empty(t, text)
}

func TestGetResumeTextCorruptDOCXFails(t *testing.T) {
	p, err := New(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive at all"), 0o644))

	_, method := p.GetResumeText(context.Background(), path)
	assert.Equal(t, MethodFailed, method)
}

func TestIsMeaningfulTextRejectsGarbled(t *testing.T) {
	garbled := strings.Repeat("�a", 60)
	assert.False(t, isMeaningfulText(garbled))

	cid := strings.Repeat("(cid:12) word ", 20)
	assert.False(t, isMeaningfulText(cid))

	clean := strings.Repeat("perfectly normal resume text ", 5)
	assert.True(t, isMeaningfulText(clean))
}
