// Package docparser converts resume documents (PDF, DOCX, plain text)
// into raw text for the extraction pipeline, tagging each conversion
// with the method that produced it.
package docparser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"

	"resume-extract-go/internal/logger"
)

// Method tags how the text was obtained.
type Method string

const (
	// MethodPrimary means the format-native parser succeeded.
	MethodPrimary Method = "primary"
	// MethodFallback means a secondary path produced the text.
	MethodFallback Method = "fallback"
	// MethodFailed means no usable text could be extracted.
	MethodFailed Method = "failed"
)

// Minimum meaningful characters for a conversion to count as usable.
const minMeaningfulChars = 50

const parseTimeout = 30 * time.Second

// Parser converts documents to text.
type Parser struct {
	pdfParser *pdf.PDFParser
}

// New creates a document parser. The PDF backend parses whole
// documents as one continuous string rather than per page.
func New(ctx context.Context) (*Parser, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF parser: %w", err)
	}
	return &Parser{pdfParser: p}, nil
}

// GetResumeText extracts text from the document at path. The method
// tag is MethodFailed when the result is unusable; the text is then
// empty. Errors are folded into the failed tag so batch callers never
// have to special-case them.
func (p *Parser) GetResumeText(ctx context.Context, path string) (string, Method) {
	ext := strings.ToLower(filepath.Ext(path))

	var text string
	var err error
	method := MethodPrimary

	switch ext {
	case ".pdf":
		text, err = p.extractPDF(ctx, path)
	case ".docx":
		text, err = extractDOCX(path)
	case ".txt", ".text", ".md":
		method = MethodFallback
		text, err = readTextFile(path)
	default:
		// Unknown extension: try reading as plain text before giving
		// up, some exports carry no extension at all.
		method = MethodFallback
		text, err = readTextFile(path)
	}

	if err != nil {
		logger.Warn().Err(err).Str("file", path).Msg("document conversion failed")
		return "", MethodFailed
	}
	if !isMeaningfulText(text) {
		logger.Warn().Str("file", path).Int("chars", len(text)).Msg("document conversion produced no usable text")
		return "", MethodFailed
	}
	return text, method
}

func (p *Parser) extractPDF(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()

	docs, err := p.pdfParser.Parse(ctx, file, einoParser.WithURI(path))
	if err != nil {
		return "", fmt.Errorf("pdf parse failed for %s: %w", path, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("pdf parser returned no documents for %s", path)
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(doc.Content)
	}
	return sb.String(), nil
}

// docx body XML elements we care about: text runs, paragraph and tab
// boundaries.
type docxBody struct {
	Paragraphs []docxParagraph `xml:"body>p"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string   `xml:"t"`
	Tabs  []struct{} `xml:"tab"`
	Brs   []struct{} `xml:"br"`
}

// extractDOCX reads word/document.xml out of the DOCX zip container
// and flattens paragraphs to newline-separated text.
func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s as docx: %w", path, err)
	}
	defer zr.Close()

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("%s has no word/document.xml", path)
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml from %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml from %s: %w", path, err)
	}

	var body docxBody
	if err := xml.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("failed to parse document.xml from %s: %w", path, err)
	}

	var sb strings.Builder
	for _, para := range body.Paragraphs {
		for _, run := range para.Runs {
			for _, t := range run.Texts {
				sb.WriteString(t)
			}
			for range run.Tabs {
				sb.WriteString("\t")
			}
			for range run.Brs {
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// isMeaningfulText rejects conversions that are too short or mostly
// garbled (replacement characters, CID glyph references from broken
// PDF font maps).
func isMeaningfulText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < minMeaningfulChars {
		return false
	}

	garbled := strings.Count(trimmed, "�") + strings.Count(trimmed, "(cid:")
	if garbled == 0 {
		return true
	}
	tokens := len(strings.Fields(trimmed))
	if tokens == 0 {
		return false
	}
	return garbled*10 < tokens
}
