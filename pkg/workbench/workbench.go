// Package workbench ties the pieces together: it evaluates DSL source into
// a document, recomputes and validates it, and tessellates the result. The
// desktop app, the REPL and the HTTP server all go through it.
package workbench

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/chazu/pypeline/pkg/config"
	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/engine"
	"github.com/chazu/pypeline/pkg/kernel"
	"github.com/chazu/pypeline/pkg/kernel/sdfx"
	"github.com/chazu/pypeline/pkg/pipeline"
	"github.com/chazu/pypeline/pkg/sizes"
	"github.com/chazu/pypeline/pkg/tessellate"
)

// ErrNoDocument is returned by Do before anything has been evaluated or
// loaded.
var ErrNoDocument = errors.New("workbench: no document")

// palette assigns colors per feature type.
var palette = map[string]string{
	"Pipe":   "#4A90D9",
	"Elbow":  "#E67E22",
	"Reduct": "#2ECC71",
	"Flange": "#9B59B6",
	"Cap":    "#E74C3C",
	"Clamp":  "#1ABC9C",
	"Shell":  "#F39C12",
}

const defaultColor = "#3498DB"

// Color returns the display color of a feature type.
func Color(ptype string) string {
	if c, ok := palette[ptype]; ok {
		return c
	}
	return defaultColor
}

// MeshData is the serializable mesh format sent to clients.
type MeshData struct {
	Vertices []float32 `json:"vertices" msgpack:"vertices"`
	Normals  []float32 `json:"normals" msgpack:"normals"`
	Indices  []uint32  `json:"indices" msgpack:"indices"`
	PartName string    `json:"partName" msgpack:"partName"`
	PType    string    `json:"ptype" msgpack:"ptype"`
	Color    string    `json:"color" msgpack:"color"`
}

// Issue is an error or warning with an optional source location.
type Issue struct {
	Line    int    `json:"line" msgpack:"line"`
	Col     int    `json:"col" msgpack:"col"`
	Label   string `json:"label,omitempty" msgpack:"label,omitempty"`
	Message string `json:"message" msgpack:"message"`
}

// Result is everything one evaluation produced. Document is nil when the
// source did not run.
type Result struct {
	Document *doc.Document `json:"-" msgpack:"-"`
	Meshes   []MeshData    `json:"meshes" msgpack:"meshes"`
	Errors   []Issue       `json:"errors" msgpack:"errors"`
	Warnings []Issue       `json:"warnings" msgpack:"warnings"`
}

// OK reports whether the evaluation produced no errors.
func (r Result) OK() bool { return len(r.Errors) == 0 }

// Workbench evaluates source and keeps the most recent good document.
type Workbench struct {
	engine *engine.Engine
	kernel kernel.Kernel

	mu  sync.Mutex
	doc *doc.Document
}

// New builds a workbench from cfg. A nil cfg uses the defaults.
func New(cfg *config.Config) (*Workbench, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	k := sdfx.NewWithCells(cfg.Kernel.MeshCells)
	eng := engine.NewEngine(k)
	if cfg.Catalog != "" {
		f, err := os.Open(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("workbench: catalog: %w", err)
		}
		cat, err := sizes.Load(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("workbench: catalog: %w", err)
		}
		eng.WithCatalog(cat)
	}
	def := cfg.Defaults
	eng.WithDefaults(pipeline.Sizing{PSize: def.Size, PRating: def.Rating, OD: def.OD, Thk: def.Thk})
	return &Workbench{engine: eng, kernel: k}, nil
}

// Kernel returns the geometry kernel documents are built with.
func (w *Workbench) Kernel() kernel.Kernel { return w.kernel }

// Evaluate runs source and, when it succeeds, makes the resulting
// document current.
//
// Parse, runtime and blocking validation problems are errors. Console
// output from recompute and updates, and validation warnings, are
// warnings; the meshes still reflect the last good shape of every
// feature.
func (w *Workbench) Evaluate(source string) Result {
	res := Result{Meshes: []MeshData{}, Errors: []Issue{}, Warnings: []Issue{}}

	d, evalErrs, err := w.engine.Evaluate(source)
	if err != nil {
		log.Printf("Evaluate fatal error: %v", err)
		res.Errors = append(res.Errors, Issue{Message: err.Error()})
		return res
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			res.Errors = append(res.Errors, Issue{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return res
	}

	res.Document = d
	w.Report(&res)

	w.mu.Lock()
	w.doc = d
	w.mu.Unlock()
	return res
}

// Adopt recomputes d, typically loaded from a store, reports on it and
// makes it current. The report is built before d is shared.
func (w *Workbench) Adopt(d *doc.Document) Result {
	d.Recompute()
	res := Result{Document: d, Meshes: []MeshData{}, Errors: []Issue{}, Warnings: []Issue{}}
	w.Report(&res)
	w.SetDocument(d)
	return res
}

// Report fills res from res.Document: console lines, validation findings
// and meshes. It is used after evaluation and after interactive edits.
// The caller must own the document, either before it is made current or
// from inside Do.
func (w *Workbench) Report(res *Result) {
	d := res.Document
	for _, l := range []doc.Level{doc.LevelWarning, doc.LevelError} {
		for _, text := range d.Console.Lines(l) {
			res.Warnings = append(res.Warnings, Issue{Message: text})
		}
	}
	v := doc.ValidateAll(d)
	for _, e := range v.Errors {
		res.Errors = append(res.Errors, Issue{Label: e.Label, Message: e.Message})
	}
	for _, e := range v.Warnings {
		res.Warnings = append(res.Warnings, Issue{Label: e.Label, Message: e.Message})
	}

	meshes, err := tessellate.Tessellate(d)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		res.Errors = append(res.Errors, Issue{Message: "tessellation failed: " + err.Error()})
		return
	}
	shown := meshes[:0]
	for _, m := range meshes {
		if m.IsEmpty() {
			res.Warnings = append(res.Warnings, Issue{Label: m.PartName, Message: "no geometry at this mesh resolution"})
			continue
		}
		shown = append(shown, m)
	}
	res.Meshes = Meshes(shown)
}

// Meshes converts kernel meshes to the client format.
func Meshes(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			PartName: m.PartName,
			PType:    m.PType,
			Color:    Color(m.PType),
		})
	}
	return out
}

// Document returns the current document, or nil.
func (w *Workbench) Document() *doc.Document {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc
}

// SetDocument makes d current, e.g. after loading it from a store.
func (w *Workbench) SetDocument(d *doc.Document) {
	w.mu.Lock()
	w.doc = d
	w.mu.Unlock()
}

// Do runs fn on the current document while holding the workbench lock.
func (w *Workbench) Do(fn func(d *doc.Document) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doc == nil {
		return ErrNoDocument
	}
	return fn(w.doc)
}
