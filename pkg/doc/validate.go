package doc

import (
	"fmt"

	"github.com/chazu/pypeline/pkg/feature"
)

// ValidationSeverity indicates whether a validation finding blocks
// recompute or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks recompute
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	ID       feature.ID         // which feature has the problem (empty if document-level)
	Label    string             // label of that feature
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Label, e.Message)
}

// Checker is implemented by features with invariants that depend on the
// rest of the document.
type Checker interface {
	Check(d *Document) []ValidationError
}

// ValidationResult bundles blocking errors and advisory warnings from all
// validation tiers.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether no blocking error was found.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks (ownership, labels, links) and
// returns every finding. It never mutates the document.
func Validate(d *Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateOwnership(d)...)
	errs = append(errs, validateLabels(d)...)
	errs = append(errs, validateLinks(d)...)
	return errs
}

// ValidateAll runs every tier (structural, dimensional, feature checks)
// and separates errors from warnings.
func ValidateAll(d *Document) ValidationResult {
	var all []ValidationError
	all = append(all, Validate(d)...)
	all = append(all, validateDimensions(d)...)
	for _, f := range d.Features() {
		if c, ok := f.(Checker); ok {
			all = append(all, c.Check(d)...)
		}
	}
	all = append(all, validateStale(d)...)

	var result ValidationResult
	for _, e := range all {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	return result
}

// Finding builds a validation error for f.
func Finding(f feature.Feature, sev ValidationSeverity, format string, args ...any) ValidationError {
	return ValidationError{
		ID:       f.Base().ID,
		Label:    f.Base().Label,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	}
}

// validateOwnership checks that every child exists, has exactly one
// owner and is not the container itself.
func validateOwnership(d *Document) []ValidationError {
	var errs []ValidationError
	owner := make(map[feature.ID]feature.ID)
	for _, f := range d.Features() {
		c, ok := f.(Container)
		if !ok {
			continue
		}
		for _, cid := range c.Children() {
			switch {
			case cid == f.Base().ID:
				errs = append(errs, Finding(f, SeverityError, "container lists itself as a child"))
			case d.Get(cid) == nil:
				errs = append(errs, Finding(f, SeverityError, "child %s does not exist", cid))
			case owner[cid] != "" && owner[cid] != f.Base().ID:
				other := d.Get(owner[cid])
				errs = append(errs, Finding(f, SeverityError, "child %s is also owned by %s", d.Get(cid).Base().Label, other.Base().Label))
			default:
				owner[cid] = f.Base().ID
			}
		}
	}
	return errs
}

// validateLabels checks that labels are present and unique.
func validateLabels(d *Document) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]feature.ID)
	for _, f := range d.Features() {
		l := f.Base().Label
		if l == "" {
			errs = append(errs, Finding(f, SeverityError, "empty label"))
			continue
		}
		if prev, dup := seen[l]; dup && prev != f.Base().ID {
			errs = append(errs, Finding(f, SeverityError, "duplicate label %q", l))
			continue
		}
		seen[l] = f.Base().ID
	}
	return errs
}

// validateLinks checks that path links resolve and that link lists only
// reference existing features.
func validateLinks(d *Document) []ValidationError {
	var errs []ValidationError
	for _, f := range d.Features() {
		for _, p := range f.Properties() {
			switch p.Kind {
			case feature.KindLink:
				name, _ := p.Value().(string)
				if name == "" {
					continue
				}
				if _, ok := d.Path(name); !ok && d.ByLabel(name) == nil {
					errs = append(errs, Finding(f, SeverityError, "%s links to missing %q", p.Name, name))
				}
			case feature.KindLinkList:
				ids, _ := p.Value().([]feature.ID)
				for _, id := range ids {
					if d.Get(id) == nil {
						errs = append(errs, Finding(f, SeverityError, "%s references missing feature %s", p.Name, id))
					}
				}
			}
		}
	}
	return errs
}

// validateDimensions flags parameters that execute would reject or
// silently correct.
func validateDimensions(d *Document) []ValidationError {
	var errs []ValidationError
	for _, f := range d.Features() {
		switch v := f.(type) {
		case *feature.Pipe:
			errs = append(errs, checkTube(f, v.OD, v.Thk, 2)...)
			if v.Height <= 0 {
				errs = append(errs, Finding(f, SeverityWarning, "zero-length pipe has no shape"))
			}
		case *feature.Elbow:
			errs = append(errs, checkTube(f, v.OD, v.Thk, 2)...)
			if !v.Executable() {
				errs = append(errs, Finding(f, SeverityError, "bend angle %g must be in [0, 180)", v.BendAngle))
			}
		case *feature.Reduct:
			if v.OD <= v.OD2 {
				errs = append(errs, Finding(f, SeverityError, "OD %g must exceed OD2 %g", v.OD, v.OD2))
			}
			errs = append(errs, checkTube(f, v.OD, v.Thk, 2.1)...)
			errs = append(errs, checkTube(f, v.OD2, v.Thk2, 2.1)...)
		case *feature.Cap:
			errs = append(errs, checkTube(f, v.OD, v.Thk, 2.1)...)
		case *feature.Flange:
			if v.Bore >= v.D {
				errs = append(errs, Finding(f, SeverityError, "bore %g must be smaller than D %g", v.Bore, v.D))
			}
			if v.N > 0 && v.Df+v.F > v.D {
				errs = append(errs, Finding(f, SeverityWarning, "bolt holes break out of the flange rim"))
			}
		}
	}
	return errs
}

func checkTube(f feature.Feature, od, thk, limit float64) []ValidationError {
	if od <= 0 {
		return []ValidationError{Finding(f, SeverityError, "outside diameter must be positive, got %g", od)}
	}
	if thk > od/limit {
		return []ValidationError{Finding(f, SeverityWarning, "thickness %g exceeds OD/%g and will be clamped", thk, limit)}
	}
	return nil
}

// validateStale warns about features left touched after a recompute.
func validateStale(d *Document) []ValidationError {
	var errs []ValidationError
	for _, f := range d.Features() {
		if f.Base().Touched() {
			errs = append(errs, Finding(f, SeverityWarning, "not recomputed"))
		}
	}
	return errs
}
