package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/pypeline/pkg/config"
	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/query"
	"github.com/chazu/pypeline/pkg/tessellate"
	"github.com/chazu/pypeline/pkg/view"
	"github.com/chazu/pypeline/pkg/workbench"
)

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx context.Context
	wb  *workbench.Workbench
}

// FindResult is the answer to a part list search.
type FindResult struct {
	Found   bool   `json:"found"`
	Address string `json:"address"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	app, err := NewAppWithConfig(config.Default())
	if err != nil {
		// The default configuration loads no catalog file and cannot fail.
		panic(err)
	}
	return app
}

// NewAppWithConfig creates an App from cfg.
func NewAppWithConfig(cfg *config.Config) (*App, error) {
	wb, err := workbench.New(cfg)
	if err != nil {
		return nil, err
	}
	return &App{wb: wb}, nil
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Evaluate takes DSL source and returns meshes, errors and warnings.
// This is the primary binding called by the frontend editor.
func (a *App) Evaluate(source string) workbench.Result {
	return a.wb.Evaluate(source)
}

// Tree returns the object tree of the current document.
func (a *App) Tree() ([]view.Node, error) {
	var tree []view.Node
	err := a.wb.Do(func(d *doc.Document) error {
		tree = view.Tree(d)
		return nil
	})
	return tree, err
}

// Query reports one feature of the current document.
func (a *App) Query(label string) (query.Report, error) {
	var rep query.Report
	err := a.wb.Do(func(d *doc.Document) error {
		f := d.ByLabel(label)
		if f == nil {
			return fmt.Errorf("%w: %s", doc.ErrNotFound, label)
		}
		rep = query.Info(d, f)
		return nil
	})
	return rep, err
}

func (a *App) sheet(container string) (*query.Sheet, error) {
	var sheet *query.Sheet
	err := a.wb.Do(func(d *doc.Document) error {
		ids, err := query.Scope(d, container)
		if err != nil {
			return err
		}
		sheet = query.PartList(d, ids)
		return nil
	})
	return sheet, err
}

// PartList returns the part list rows of a container, or of the whole
// document when container is empty.
func (a *App) PartList(container string) ([][]string, error) {
	sheet, err := a.sheet(container)
	if err != nil {
		return nil, err
	}
	return sheet.Rows(), nil
}

// FindFirst searches the part list of container for target.
func (a *App) FindFirst(target, container string) (FindResult, error) {
	sheet, err := a.sheet(container)
	if err != nil {
		return FindResult{}, err
	}
	addr, ok := query.FindFirst(sheet, target)
	return FindResult{Found: ok, Address: addr}, nil
}

// Icon returns the SVG icon of a feature type.
func (a *App) Icon(ptype string) (string, error) {
	name := view.IconPath(ptype)
	if ptype == "query" {
		name = view.QueryIcon
	}
	data, err := view.Icon(name)
	return string(data), err
}

// SetProperty parses value for the named property, assigns it and
// recomputes. The refreshed result is returned for redisplay.
func (a *App) SetProperty(label, prop, value string) (workbench.Result, error) {
	var res workbench.Result
	err := a.wb.Do(func(d *doc.Document) error {
		f := d.ByLabel(label)
		if f == nil {
			return fmt.Errorf("%w: %s", doc.ErrNotFound, label)
		}
		p, ok := feature.Lookup(f, prop)
		if !ok {
			return fmt.Errorf("%w: %s.%s", feature.ErrUnknownProperty, f.Base().PType, prop)
		}
		var v any = value
		switch p.Kind {
		case feature.KindLength, feature.KindAngle, feature.KindFloat, feature.KindInteger:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", feature.ErrInvalidValue, prop, err)
			}
			v = n
		case feature.KindBool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", feature.ErrInvalidValue, prop, err)
			}
			v = b
		}
		if err := d.Set(f.Base().ID, p.Name, v); err != nil {
			return err
		}
		d.Console.Reset()
		d.Recompute()
		res = workbench.Result{Document: d, Meshes: []workbench.MeshData{}, Errors: []workbench.Issue{}, Warnings: []workbench.Issue{}}
		a.wb.Report(&res)
		return nil
	})
	return res, err
}

// Delete removes a feature the way the tree view does and returns the
// labels that went with it.
func (a *App) Delete(label string) ([]string, error) {
	var removed []string
	err := a.wb.Do(func(d *doc.Document) error {
		f := d.ByLabel(label)
		if f == nil {
			return fmt.Errorf("%w: %s", doc.ErrNotFound, label)
		}
		var err error
		if removed, err = view.DeleteSet(d, f.Base().ID); err != nil {
			return err
		}
		return view.OnDelete(d, f.Base().ID)
	})
	return removed, err
}

// ExportSTL asks for a file name and writes the solid of label to it.
// An empty return means the dialog was cancelled.
func (a *App) ExportSTL(label string) (string, error) {
	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		DefaultFilename: label + ".stl",
		Filters:         []runtime.FileFilter{{DisplayName: "STL", Pattern: "*.stl"}},
	})
	if err != nil || path == "" {
		return "", err
	}
	err = a.wb.Do(func(d *doc.Document) error {
		return tessellate.ExportSTL(d, label, path)
	})
	if err != nil {
		log.Printf("ExportSTL error: %v", err)
		return "", err
	}
	return path, nil
}
