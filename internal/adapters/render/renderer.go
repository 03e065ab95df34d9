// Package render turns a blueprint report into a PDF on disk: the HTML
// template is executed with the report as its context and the resulting page
// is printed to PDF by a Converter.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
	"github.com/okian/blueprint/pkg/logger"
)

// Report file naming.
const (
	DefaultTemplateName = "soul_blueprint_template.html"
	reportSuffix        = "_soul_blueprint.pdf"
	nameSeparator       = "_"
	dirPermission       = 0o755
)

// Converter prints an HTML document to PDF.
type Converter interface {
	ToPDF(ctx context.Context, html []byte, w io.Writer) error
}

// Renderer produces report PDFs under a fixed output directory.
type Renderer struct {
	templateDir  string
	templateName string
	outputDir    string
	uniqueNames  bool
	conv         Converter
	logger       logger.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTemplateName selects the template file inside the template directory.
func WithTemplateName(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.templateName = name
		}
	}
}

// WithUniqueNames toggles request-scoped file names. When disabled, reports
// for the same name overwrite each other.
func WithUniqueNames(unique bool) Option {
	return func(r *Renderer) {
		r.uniqueNames = unique
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Renderer reading templates from templateDir and writing PDFs
// to outputDir.
func New(templateDir, outputDir string, conv Converter, opts ...Option) *Renderer {
	r := &Renderer{
		templateDir:  templateDir,
		templateName: DefaultTemplateName,
		outputDir:    outputDir,
		uniqueNames:  true,
		conv:         conv,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the converter when it holds resources.
func (r *Renderer) Close() error {
	if c, ok := r.conv.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Render executes the template for report and writes the PDF, returning its
// path. Nothing is left on disk when it fails.
func (r *Renderer) Render(ctx context.Context, report model.Report) (string, error) {
	const op = "render.render"

	html, err := r.HTML(report)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.outputDir, dirPermission); err != nil {
		return "", failure.Wrap(op, failure.KindRender, fmt.Errorf("%w: %w", ErrOutputDir, err))
	}

	path := ReportPath(r.outputDir, report.Name, report.RequestID, r.uniqueNames)

	// Write to a sibling temp file and rename so readers never see a partial
	// PDF and a failed conversion leaves nothing behind.
	tmp, err := os.CreateTemp(r.outputDir, ".render-*.pdf")
	if err != nil {
		return "", failure.Wrap(op, failure.KindRender, fmt.Errorf("%w: %w", ErrOutputDir, err))
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	start := time.Now()
	if err := r.conv.ToPDF(ctx, html, tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", failure.Wrap(op, failure.KindRender, fmt.Errorf("%w: %w", ErrConvert, err))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", failure.Wrap(op, failure.KindRender, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return "", failure.Wrap(op, failure.KindRender, fmt.Errorf("%w: %w", ErrOutputDir, err))
	}

	r.logger.Debug(ctx, "report written",
		logger.RequestID(report.RequestID),
		logger.String("path", path),
		logger.Duration("elapsed", time.Since(start)),
	)
	return path, nil
}

// HTML executes the configured template with report exposed as .data.
func (r *Renderer) HTML(report model.Report) ([]byte, error) {
	const op = "render.html"

	path := filepath.Join(r.templateDir, r.templateName)
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, failure.Wrap(op, failure.KindRender, fmt.Errorf("%w: %s", ErrTemplateNotFound, path))
		}
		return nil, failure.Wrap(op, failure.KindRender, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateContext(report)); err != nil {
		return nil, failure.Wrap(op, failure.KindRender, err)
	}
	return buf.Bytes(), nil
}

// templateContext keeps the snake_case variable names report templates use.
func templateContext(report model.Report) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"name":         report.Name,
			"sun_sign":     report.SunSign,
			"moon_sign":    report.MoonSign,
			"rising":       report.Rising,
			"hd_type":      report.HDType,
			"authority":    report.Authority,
			"life_path":    report.LifePath,
			"request_id":   report.RequestID,
			"generated_at": report.GeneratedAt,
		},
	}
}

// Remove deletes a previously rendered report. A missing file is not an error.
func (r *Renderer) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return failure.Wrap("render.remove", failure.KindRender, err)
	}
	return nil
}

// ReportPath derives the PDF path for name. Whitespace and path separators
// become underscores. With unique set, requestID is inserted before the
// suffix so concurrent or repeated requests never collide.
func ReportPath(outputDir, name, requestID string, unique bool) string {
	base := SanitizeName(name)
	if unique && requestID != "" {
		base += nameSeparator + requestID
	}
	return filepath.Join(outputDir, base+reportSuffix)
}

// SanitizeName replaces every whitespace rune and path separator in name
// with an underscore.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)
}
