// Package extract turns uploaded resume documents into plain text.
//
// Plain text is decoded as UTF-8. PDFs go through a primary engine and, when
// that fails or yields only whitespace, a secondary engine with a different
// layout strategy. An empty result is always an error.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/muhammadolammi/careerwise/internal/logger"
	"github.com/muhammadolammi/careerwise/internal/metrics"
)

type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailed  = errors.New("text extraction failed")

	errEmptyText = errors.New("no text found")
)

// Document is an uploaded file held in memory.
type Document struct {
	Filename string
	Format   Format
	Data     []byte
}

// FormatFromFilename maps a file extension to a Format. Only .txt and .pdf are
// accepted.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		return FormatText, nil
	case ".pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q (only .txt and .pdf are allowed)", ErrUnsupportedFormat, name)
	}
}

// PageExtractor is a PDF engine returning the text of each page in order.
type PageExtractor interface {
	Name() string
	Pages(data []byte) ([]string, error)
}

type Extractor struct {
	primary   PageExtractor
	secondary PageExtractor
	log       logger.Logger
}

// New returns an Extractor backed by the ledongthuc and dslipak PDF readers.
func New(log logger.Logger) *Extractor {
	return NewWithEngines(plainTextEngine{}, rowLayoutEngine{}, log)
}

func NewWithEngines(primary, secondary PageExtractor, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Extractor{
		primary:   primary,
		secondary: secondary,
		log:       log.With(map[string]interface{}{"component": "extract"}),
	}
}

// ExtractFile reads a staged upload from disk and extracts it.
func (e *Extractor) ExtractFile(path string, format Format) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrExtractionFailed, filepath.Base(path), err)
	}
	return e.Extract(Document{Filename: filepath.Base(path), Format: format, Data: data})
}

// Extract returns the document's text. Text files come back byte for byte,
// including any leading byte order mark.
func (e *Extractor) Extract(doc Document) (string, error) {
	switch doc.Format {
	case FormatText:
		return extractText(doc.Data)
	case FormatPDF:
		return e.extractPDF(doc)
	default:
		return "", fmt.Errorf("%w: format %q", ErrUnsupportedFormat, doc.Format)
	}
}

func extractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: file is not valid UTF-8 text", ErrExtractionFailed)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, errEmptyText)
	}
	return text, nil
}

func (e *Extractor) extractPDF(doc Document) (string, error) {
	text, primaryErr := runEngine(e.primary, doc.Data)
	if primaryErr == nil {
		return text, nil
	}

	e.log.Warn("primary pdf engine failed, trying secondary", map[string]interface{}{
		"file":   doc.Filename,
		"engine": e.primary.Name(),
		"cause":  primaryErr,
	})

	text, secondaryErr := runEngine(e.secondary, doc.Data)
	if secondaryErr != nil {
		metrics.ExtractionFallbacks.WithLabelValues("exhausted").Inc()
		return "", fmt.Errorf("%w: %s: %w; %s: %w",
			ErrExtractionFailed, e.primary.Name(), primaryErr, e.secondary.Name(), secondaryErr)
	}

	metrics.ExtractionFallbacks.WithLabelValues("recovered").Inc()
	e.log.Info("secondary pdf engine recovered text", map[string]interface{}{
		"file":   doc.Filename,
		"engine": e.secondary.Name(),
		"chars":  len(text),
	})
	return text, nil
}

// runEngine joins the engine's pages with newlines. PDF readers panic on some
// malformed input, so panics come back as errors.
func runEngine(engine PageExtractor, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%s panicked: %v", engine.Name(), r)
		}
	}()

	pages, err := engine.Pages(data)
	if err != nil {
		return "", err
	}
	text = strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return "", errEmptyText
	}
	return text, nil
}
