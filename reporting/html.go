package reporting

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum-optimism/infra/op-browsertest/templates"
)

const htmlTemplateName = "merged.html.tmpl"

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New(htmlTemplateName).Funcs(templates.FuncMap()).ParseFS(templateFS, "templates/"+htmlTemplateName),
)

type htmlData struct {
	Title     string
	Generated time.Time
	Report    *Report
}

// RenderHTML renders a self-contained HTML page for r. Styles and scripts are inlined.
func RenderHTML(title string, r *Report) ([]byte, error) {
	var buf bytes.Buffer
	data := htmlData{Title: title, Generated: time.Now(), Report: r}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML renders r and writes it to path.
func WriteHTML(path, title string, r *Report) error {
	content, err := RenderHTML(title, r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write HTML report: %w", err)
	}
	return nil
}
