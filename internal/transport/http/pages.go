package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	apierrors "predmaint/internal/errors"
	"predmaint/internal/pipeline"
	"predmaint/internal/preprocessing"
	"predmaint/internal/services"
)

// Page names, also used as the active navigation entry.
const (
	PageAnalysis     = "analysis"
	PagePresentation = "presentation"
)

// PageData is the model handed to every page template.
type PageData struct {
	Title  string
	Active string
	Error  string
	Notice string

	Summary    *services.AnalysisSummary
	Form       preprocessing.Reading
	Types      []string
	Prediction *pipeline.Prediction

	View *services.SlideView
}

// PageRenderer executes the layout with one page's content block.
type PageRenderer struct {
	pages map[string]*template.Template
}

// NewPageRenderer parses layout.html together with each page template.
func NewPageRenderer(files fs.FS) (*PageRenderer, error) {
	funcs := template.FuncMap{
		"percent": func(f float64) template.CSS {
			return template.CSS(fmt.Sprintf("%.1f%%", f*100))
		},
	}

	pages := make(map[string]*template.Template)
	for _, page := range []string{PageAnalysis, PagePresentation} {
		t, err := template.New(page).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", page, err)
		}
		pages[page] = t
	}
	return &PageRenderer{pages: pages}, nil
}

// Render writes the page with status. Nothing is written if the template fails.
func (p *PageRenderer) Render(w http.ResponseWriter, status int, page string, data *PageData) error {
	t, ok := p.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// problemMessage turns a problem into the one-line alert shown on a page.
func problemMessage(p *apierrors.ProblemDetails) string {
	msg := p.Detail
	if msg == "" {
		msg = p.Title
	}

	switch details := p.Extensions["details"].(type) {
	case apierrors.ValidationErrors:
		parts := make([]string, 0, len(details.Errors))
		for _, e := range details.Errors {
			parts = append(parts, e.Message)
		}
		if len(parts) > 0 {
			msg += ": " + strings.Join(parts, "; ")
		}
	case apierrors.ValidationError:
		msg += ": " + details.Message
	case map[string]interface{}:
		if missing, ok := details["missing"].([]string); ok {
			msg += ": " + strings.Join(missing, ", ")
		}
	}
	return msg
}
