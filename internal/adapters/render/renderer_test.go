package render_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/blueprint/internal/adapters/render"
	"github.com/okian/blueprint/internal/domain/failure"
	"github.com/okian/blueprint/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const testTemplate = `<html><body>
<h1>{{ .data.name }}</h1>
<p>Sun {{ .data.sun_sign }} / Moon {{ .data.moon_sign }} / Rising {{ .data.rising }}</p>
<p>{{ .data.hd_type }} ({{ .data.authority }}) life path {{ .data.life_path }}</p>
</body></html>`

// fakeConverter writes the HTML it was given, prefixed with a PDF marker.
type fakeConverter struct {
	err   error
	calls int
	last  []byte
}

func (f *fakeConverter) ToPDF(_ context.Context, html []byte, w io.Writer) error {
	f.calls++
	f.last = html
	if f.err != nil {
		_, _ = w.Write([]byte("%PDF-partial"))
		return f.err
	}
	_, err := w.Write(append([]byte("%PDF-1.4\n"), html...))
	return err
}

func setupDirs(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	tplDir := filepath.Join(root, "templates")
	if err := os.MkdirAll(tplDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tplDir, render.DefaultTemplateName), []byte(testTemplate), 0o600); err != nil {
		t.Fatal(err)
	}
	return tplDir, filepath.Join(root, "reports")
}

func sampleReport(id string) model.Report {
	return model.Report{
		RequestID:   id,
		Name:        "Ada Lovelace",
		SunSign:     "Sagittarius",
		MoonSign:    "Unknown",
		Rising:      "Leo",
		HDType:      model.TypeGenerator,
		Authority:   model.AuthoritySacral,
		LifePath:    9,
		GeneratedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func listDir(dir string) []string {
	entries, _ := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReportPath(t *testing.T) {
	Convey("Given a name with spaces", t, func() {
		Convey("When unique names are off", func() {
			So(render.ReportPath("reports", "Ada  Lovelace", "abc", false), ShouldEqual,
				filepath.Join("reports", "Ada__Lovelace_soul_blueprint.pdf"))
		})

		Convey("When unique names are on", func() {
			So(render.ReportPath("reports", "Ada Lovelace", "abc", true), ShouldEqual,
				filepath.Join("reports", "Ada_Lovelace_abc_soul_blueprint.pdf"))
		})

		Convey("When the request id is empty the legacy name is used", func() {
			So(render.ReportPath("out", "Ada", "", true), ShouldEqual, filepath.Join("out", "Ada_soul_blueprint.pdf"))
		})
	})

	Convey("Given names containing separators and tabs", t, func() {
		So(render.SanitizeName("a/b\\c\td"), ShouldEqual, "a_b_c_d")
		So(filepath.Dir(render.ReportPath("out", "../../etc/passwd", "", false)), ShouldEqual, "out")
	})
}

func TestRender(t *testing.T) {
	ctx := context.Background()

	Convey("Given a renderer with a template and fake converter", t, func() {
		tplDir, outDir := setupDirs(t)
		conv := &fakeConverter{}
		r := render.New(tplDir, outDir, conv)

		Convey("When rendering a report", func() {
			path, err := r.Render(ctx, sampleReport("req-1"))

			Convey("Then the PDF exists at the request-scoped path", func() {
				So(err, ShouldBeNil)
				So(path, ShouldEqual, filepath.Join(outDir, "Ada_Lovelace_req-1_soul_blueprint.pdf"))
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(string(data), ShouldStartWith, "%PDF-1.4")
			})

			Convey("Then the template saw every field", func() {
				html := string(conv.last)
				So(html, ShouldContainSubstring, "<h1>Ada Lovelace</h1>")
				So(html, ShouldContainSubstring, "Sun Sagittarius / Moon Unknown / Rising Leo")
				So(html, ShouldContainSubstring, "Generator (Sacral) life path 9")
			})

			Convey("Then no temp files remain", func() {
				So(listDir(outDir), ShouldResemble, []string{"Ada_Lovelace_req-1_soul_blueprint.pdf"})
			})
		})

		Convey("When the same name is rendered twice", func() {
			first, err1 := r.Render(ctx, sampleReport("one"))
			second, err2 := r.Render(ctx, sampleReport("two"))

			Convey("Then both reports survive", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldNotEqual, second)
				So(len(listDir(outDir)), ShouldEqual, 2)
			})
		})

		Convey("When removing a report", func() {
			path, _ := r.Render(ctx, sampleReport("gone"))
			So(r.Remove(path), ShouldBeNil)
			_, statErr := os.Stat(path)
			So(errors.Is(statErr, os.ErrNotExist), ShouldBeTrue)
			So(r.Remove(path), ShouldBeNil)
		})
	})

	Convey("Given a renderer with unique names disabled", t, func() {
		tplDir, outDir := setupDirs(t)
		r := render.New(tplDir, outDir, &fakeConverter{}, render.WithUniqueNames(false))

		first, _ := r.Render(ctx, sampleReport("one"))
		second, err := r.Render(ctx, sampleReport("two"))

		Convey("Then the second run overwrites the first", func() {
			So(err, ShouldBeNil)
			So(first, ShouldEqual, second)
			So(listDir(outDir), ShouldResemble, []string{"Ada_Lovelace_soul_blueprint.pdf"})
		})
	})

	Convey("Given a missing template", t, func() {
		tplDir, outDir := setupDirs(t)
		conv := &fakeConverter{}
		r := render.New(tplDir, outDir, conv, render.WithTemplateName("nope.html"))

		_, err := r.Render(ctx, sampleReport("x"))

		Convey("Then it fails as a render error before converting", func() {
			So(failure.KindOf(err), ShouldEqual, failure.KindRender)
			So(errors.Is(err, render.ErrTemplateNotFound), ShouldBeTrue)
			So(conv.calls, ShouldEqual, 0)
		})
	})

	Convey("Given an output directory that cannot be created", t, func() {
		tplDir, outDir := setupDirs(t)
		blocker := filepath.Join(filepath.Dir(outDir), "blocker")
		So(os.WriteFile(blocker, []byte("file"), 0o600), ShouldBeNil)
		r := render.New(tplDir, filepath.Join(blocker, "reports"), &fakeConverter{})

		_, err := r.Render(ctx, sampleReport("x"))

		Convey("Then it fails as a render error", func() {
			So(failure.KindOf(err), ShouldEqual, failure.KindRender)
			So(errors.Is(err, render.ErrOutputDir), ShouldBeTrue)
		})
	})

	Convey("Given a converter that fails midway", t, func() {
		tplDir, outDir := setupDirs(t)
		r := render.New(tplDir, outDir, &fakeConverter{err: errors.New("chrome crashed")})

		_, err := r.Render(ctx, sampleReport("x"))

		Convey("Then nothing is left in the output directory", func() {
			So(failure.KindOf(err), ShouldEqual, failure.KindRender)
			So(errors.Is(err, render.ErrConvert), ShouldBeTrue)
			So(listDir(outDir), ShouldBeEmpty)
		})
	})
}

func TestShippedTemplate(t *testing.T) {
	Convey("Given the template shipped with the service", t, func() {
		r := render.New(filepath.Join("..", "..", "..", "templates"), t.TempDir(), &fakeConverter{})

		Convey("Then it renders every report field", func() {
			html, err := r.HTML(sampleReport("req-9"))
			So(err, ShouldBeNil)
			out := string(html)
			for _, want := range []string{"Ada Lovelace", "Sagittarius", "Leo", model.TypeGenerator, model.AuthoritySacral, "req-9", "2026-01-01 00:00 UTC"} {
				So(out, ShouldContainSubstring, want)
			}
		})
	})
}

type closingConverter struct {
	fakeConverter
	closed bool
}

func (c *closingConverter) Close() error {
	c.closed = true
	return nil
}

func TestRendererClose(t *testing.T) {
	Convey("Given a converter that holds resources", t, func() {
		conv := &closingConverter{}
		r := render.New(t.TempDir(), t.TempDir(), conv)

		Convey("Then closing the renderer closes the converter", func() {
			So(r.Close(), ShouldBeNil)
			So(conv.closed, ShouldBeTrue)
		})
	})

	Convey("Given a converter without resources", t, func() {
		r := render.New(t.TempDir(), t.TempDir(), &fakeConverter{})

		Convey("Then closing is a no-op", func() {
			So(r.Close(), ShouldBeNil)
		})
	})
}
