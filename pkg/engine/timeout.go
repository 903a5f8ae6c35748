package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/pypeline/pkg/doc"
)

// EvalTimeout is the hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	doc    *doc.Document
	errors []EvalError
	err    error
}

// waitWithTimeout waits for ch up to EvalTimeout. A result whose
// generation is no longer current is discarded; a timed-out goroutine may
// keep running, and its late result is dropped the same way.
func waitWithTimeout(ch <-chan evalResult, gen uint64, mu *sync.Mutex, currentGen *uint64) (*doc.Document, []EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()
		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.doc, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
