// Package render executes html/template pages composed with shared layouts.
//
// The template filesystem follows a fixed convention:
//
//	layouts/   one file per layout, each defining a "layout" template
//	partials/  fragments parsed into every page set
//	...        everything else is a page, addressed by its path
//	           without extension (e.g. "admin/users/list")
//
// Pages under a top-level directory matching a layout name use that
// layout; everything else uses layouts/base.html.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

const (
	layoutDir     = "layouts"
	partialDir    = "partials"
	defaultLayout = "base"
	ext           = ".html"
)

// Renderer holds the parsed page template sets.
type Renderer struct {
	pages map[string]*template.Template
}

// Option configures the renderer.
type Option func(*settings)

type settings struct {
	funcs template.FuncMap
}

// WithFuncs merges additional template functions into every page set.
func WithFuncs(funcs template.FuncMap) Option {
	return func(s *settings) {
		for name, fn := range funcs {
			s.funcs[name] = fn
		}
	}
}

// New parses all templates under fsys. Each page is combined with its
// layout and all partials into an independent template set, so pages
// can reuse block names without colliding.
func New(fsys fs.FS, opts ...Option) (*Renderer, error) {
	s := &settings{funcs: template.FuncMap{}}
	for _, opt := range opts {
		opt(s)
	}

	layouts, err := collect(fsys, layoutDir)
	if err != nil {
		return nil, err
	}
	if _, ok := layouts[defaultLayout]; !ok {
		return nil, fmt.Errorf("%w: %s/%s%s", ErrNoLayout, layoutDir, defaultLayout, ext)
	}

	partials, err := collect(fsys, partialDir)
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template)}

	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ext {
			return nil
		}
		top := strings.SplitN(p, "/", 2)[0]
		if top == layoutDir || top == partialDir {
			return nil
		}

		name := strings.TrimSuffix(p, ext)
		layout := defaultLayout
		if _, ok := layouts[top]; ok && strings.Contains(p, "/") {
			layout = top
		}

		files := []string{path.Join(layoutDir, layout+ext)}
		for partial := range partials {
			files = append(files, path.Join(partialDir, partial+ext))
		}
		files = append(files, p)

		tmpl, err := template.New(layout + ext).Funcs(s.funcs).ParseFS(fsys, files...)
		if err != nil {
			return fmt.Errorf("parse page %s: %w", p, err)
		}

		r.pages[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Render executes the named page into w. The output is buffered so a
// template failure never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a page with the given name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// collect returns the base names of all templates directly under dir.
func collect(fsys fs.FS, dir string) (map[string]struct{}, error) {
	out := make(map[string]struct{})

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ext {
			continue
		}
		out[strings.TrimSuffix(e.Name(), ext)] = struct{}{}
	}
	return out, nil
}
