package pdf

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// DocumentTitle heads every exported plan.
const DocumentTitle = "AI Tech Career Path Plan"

const generatedOnLayout = "January 02, 2006 at 03:04 PM"

var (
	// ErrEmptyDocument is returned when there is no fragment to render.
	ErrEmptyDocument = errors.New("html plan is empty")
	// ErrRender is returned when the browser fails to produce a PDF.
	ErrRender = errors.New("pdf render failed")
)

// Renderer turns a complete HTML document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

//go:embed templates/document.html.tmpl
var documentTemplateText string

var documentTemplate = template.Must(template.New("document").Parse(documentTemplateText))

type documentData struct {
	Title       string
	GeneratedOn string
	Content     template.HTML
}

// BuildDocument sanitizes an HTML fragment and wraps it in the A4 print
// document with the plan header.
func BuildDocument(fragment string, generatedAt time.Time) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", ErrEmptyDocument
	}
	clean, err := Sanitize(fragment)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(clean) == "" {
		return "", ErrEmptyDocument
	}

	var buf bytes.Buffer
	err = documentTemplate.Execute(&buf, documentData{
		Title:       DocumentTitle,
		GeneratedOn: generatedAt.Format(generatedOnLayout),
		// Sanitize has already dropped active content.
		Content: template.HTML(clean),
	})
	if err != nil {
		return "", fmt.Errorf("build document: %w", err)
	}
	return buf.String(), nil
}
