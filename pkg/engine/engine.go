// Package engine evaluates the pipe DSL. Each evaluation runs in a fresh
// zygomys sandbox whose builtins populate a new document, which is then
// recomputed.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/kernel"
	"github.com/chazu/pypeline/pkg/pipeline"
	"github.com/chazu/pypeline/pkg/sizes"
)

// EvalError is a parse or runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates DSL source against a geometry kernel. It is safe for
// concurrent use; only the newest evaluation's result is returned.
type Engine struct {
	kernel   kernel.Kernel
	catalog  *sizes.Catalog
	defaults pipeline.Sizing

	mu         sync.Mutex
	generation uint64
}

// NewEngine returns an engine that builds shapes with k and sizes parts
// from the embedded catalog.
func NewEngine(k kernel.Kernel) *Engine {
	cat, err := sizes.Default()
	if err != nil {
		// The catalog is embedded; failing to parse it is a build defect.
		panic(err)
	}
	return &Engine{kernel: k, catalog: cat, defaults: DefaultSizing()}
}

// WithCatalog replaces the size catalog.
func (e *Engine) WithCatalog(c *sizes.Catalog) *Engine {
	e.catalog = c
	return e
}

// WithDefaults replaces the sizing of parts created without explicit
// dimensions.
func (e *Engine) WithDefaults(s pipeline.Sizing) *Engine {
	e.defaults = s
	return e
}

// Evaluate runs source and returns the recomputed document.
//
//   - On success: document, nil, nil
//   - On parse or runtime errors in user code: nil, errors, nil
//   - On timeout, panic or a superseded request: nil, nil, error
func (e *Engine) Evaluate(source string) (*doc.Document, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		d, evalErrs, err := e.evaluate(source)
		ch <- evalResult{doc: d, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ch, gen, &e.mu, &e.generation)
}

func (e *Engine) evaluate(source string) (*doc.Document, []EvalError, error) {
	d := doc.New("untitled", e.kernel)
	if strings.TrimSpace(source) == "" {
		return d, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, &builder{d: d, cat: e.catalog, defaults: e.defaults})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	d.Recompute()
	return d, nil, nil
}

var (
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// parseZygomysError converts a zygomys error into EvalErrors, pulling
// out the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
