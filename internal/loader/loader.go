// Package loader turns uploaded files into a domain.Document. It performs no
// rendering: each file becomes one page unit carrying its original bytes, a
// declared or detected type and any embedded text.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"housingreview/internal/domain"
)

// titleWindow bounds how much leading text is searched for a form title.
const titleWindow = 400

// File is one uploaded file.
type File struct {
	Name         string
	ContentType  string
	Content      []byte
	DeclaredType domain.DocumentType
}

// TextExtractor returns the embedded text of each PDF page.
type TextExtractor func(content []byte) ([]string, error)

// Loader builds documents from uploaded files.
type Loader struct {
	pdfText TextExtractor
}

// Option customizes a Loader.
type Option func(*Loader)

// WithTextExtractor replaces the PDF text extractor.
func WithTextExtractor(fn TextExtractor) Option {
	return func(l *Loader) { l.pdfText = fn }
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{pdfText: PDFPageTexts}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds a document from files in the given order. A declared type wins
// over detection; otherwise the type is detected from the PDF text, then
// from the file name. Undetected files stay DocUnknown for classification.
func (l *Loader) Load(ctx context.Context, documentID string, files []File) (*domain.Document, error) {
	doc := &domain.Document{ID: documentID}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ct, err := contentTypeOf(f)
		if err != nil {
			return nil, err
		}

		page := domain.Page{
			Number:      i + 1,
			Content:     f.Content,
			ContentType: ct,
			Type:        domain.DocUnknown,
		}
		if ct == domain.AllowedFileTypes[domain.FileTypePDF] {
			texts, err := l.pdfText(f.Content)
			if err != nil {
				zap.L().Warn("loader: pdf text extraction failed",
					zap.String("document_id", documentID),
					zap.String("file", f.Name),
					zap.Error(err),
				)
			}
			page.Text = strings.Join(texts, "\n")
		}

		switch {
		case f.DeclaredType.Valid():
			page.Type = f.DeclaredType
		case page.Text != "":
			page.Type = DetectType(head(page.Text, titleWindow))
		}
		if page.Type == domain.DocUnknown {
			page.Type = DetectType(strings.TrimSuffix(f.Name, filepath.Ext(f.Name)))
		}
		doc.Pages = append(doc.Pages, page)
	}
	if len(doc.Pages) == 0 {
		return nil, eris.Wrap(domain.ErrInvalidReviewRequest, "loader: no files")
	}

	zap.L().Info("loader: document loaded",
		zap.String("document_id", documentID),
		zap.Int("pages", len(doc.Pages)),
		zap.Int("unclassified", len(doc.Unclassified())),
	)
	return doc, nil
}

func contentTypeOf(f File) (string, error) {
	if ft, ok := domain.AllowedContentTypes[f.ContentType]; ok {
		return domain.AllowedFileTypes[ft], nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	if ft, ok := domain.AllowedExtensions[ext]; ok {
		return domain.AllowedFileTypes[ft], nil
	}
	return "", eris.Wrapf(domain.ErrUnsupportedFileType, "loader: %s (%s)", f.Name, f.ContentType)
}

func head(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// PDFPageTexts reads the embedded text of every page. Scanned pages yield
// empty strings.
func PDFPageTexts(content []byte) (texts []string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, eris.Wrap(err, "pdf: open")
	}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}
