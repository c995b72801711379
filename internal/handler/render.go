package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dukerupert/nacp/internal/auth"
	"github.com/dukerupert/nacp/internal/catalog"
	"github.com/dukerupert/nacp/internal/validate"
)

// Renderer executes the page and partial templates. Each page is parsed
// into its own clone of the layout so pages can define the same blocks.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
	catalog  *catalog.Catalog
	logger   *slog.Logger
}

func NewRenderer(files fs.FS, c *catalog.Catalog, logger *slog.Logger) (*Renderer, error) {
	base, err := template.New("").Funcs(funcMap()).ParseFS(files, "layout.html", "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(files, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}
		if _, err := t.ParseFS(files, name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[path.Base(name)] = t
	}

	return &Renderer{pages: pages, partials: base, catalog: c, logger: logger}, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"comma": func(n any) string {
			switch v := n.(type) {
			case int:
				return humanize.Comma(int64(v))
			case int64:
				return humanize.Comma(v)
			}
			return fmt.Sprint(n)
		},
		"ago":   humanize.Time,
		"bytes": func(n int64) string { return humanize.Bytes(uint64(max(n, 0))) },
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"optint": func(p *int) string {
			if p == nil {
				return ""
			}
			return strconv.Itoa(*p)
		},
		"join":     func(values []string) string { return strings.Join(values, ", ") },
		"contains": slices.Contains[[]string],
		"itoa":     strconv.Itoa,
		"coord": func(f *float64) string {
			if f == nil {
				return ""
			}
			return strconv.FormatFloat(*f, 'f', 6, 64)
		},
		"add":  func(a, b int) int { return a + b },
		"list": func(values ...string) []string { return values },
		"seq": func(n int) []int {
			s := make([]int, n)
			for i := range s {
				s[i] = i
			}
			return s
		},
		"dict": func(pairs ...any) map[string]any {
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				m[fmt.Sprint(pairs[i])] = pairs[i+1]
			}
			return m
		},
	}
}

// page builds the data map shared by every full page.
func (rd *Renderer) page(r *http.Request, title string) map[string]any {
	data := map[string]any{
		"Title":   title,
		"Catalog": rd.catalog,
	}
	if ac, ok := auth.FromContext(r.Context()); ok {
		data["Auth"] = &ac
	}
	return data
}

// Page renders a full page. The template is executed into a buffer first so
// a template error never leaves a half-written response.
func (rd *Renderer) Page(w http.ResponseWriter, status int, name string, data map[string]any) {
	t, ok := rd.pages[name]
	if !ok {
		rd.logger.Error("unknown page template", "name", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.logger.Error("template error", "name", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (rd *Renderer) Partial(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := rd.partials.ExecuteTemplate(&buf, name, data); err != nil {
		rd.logger.Error("template error", "name", name, "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<div class="alert alert-error">Template error</div>`)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// FormError renders validation messages inline.
func (rd *Renderer) FormError(w http.ResponseWriter, err error) {
	rd.Partial(w, http.StatusUnprocessableEntity, "form-error", map[string]any{"Errors": validate.Messages(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// formInt parses an integer form value. Blank or malformed input yields
// fallback so range checks report it.
func formInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func formFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// at returns the i-th value of a repeated form field, or "".
func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", to)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}
