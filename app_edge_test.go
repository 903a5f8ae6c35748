package main

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// 1. Empty editor: empty string -> 0 meshes, 0 errors.
//    (TestE2EEmptySource already exists; this verifies additional invariants.)
// ---------------------------------------------------------------------------

func TestE2EEmptySourceExtended(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes for empty source, got %d", len(result.Meshes))
	}
	if len(result.Warnings) != 0 {
		t.Errorf("expected 0 warnings for empty source, got %d", len(result.Warnings))
	}
	// Ensure slices are non-nil (JSON should serialize as [] not null).
	if result.Meshes == nil {
		t.Error("Meshes should be non-nil empty slice, got nil")
	}
	if result.Errors == nil {
		t.Error("Errors should be non-nil empty slice, got nil")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be non-nil empty slice, got nil")
	}
}

func TestE2ECommentsOnly(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(";; a comment\n; another one\n   \n")
	if len(result.Errors) != 0 || len(result.Meshes) != 0 {
		t.Errorf("comments only: %d errors, %d meshes", len(result.Errors), len(result.Meshes))
	}
}

// ---------------------------------------------------------------------------
// 2. Syntax error mid-expression: unmatched parens -> eval error, 0 meshes.
// ---------------------------------------------------------------------------

func TestE2ESyntaxErrorWithLineInfo(t *testing.T) {
	app := newTestApp(t)

	// Valid code on line 1, broken code on line 2 so line info is meaningful.
	result := app.Evaluate("(pipe \"a\" :h 100)\n(pipe \"b\"")

	if len(result.Errors) == 0 {
		t.Fatal("expected at least one eval error for unmatched parens")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on syntax error, got %d", len(result.Meshes))
	}
	e := result.Errors[0]
	if e.Message == "" {
		t.Error("syntax error should have a non-empty message")
	}
	t.Logf("syntax error: line=%d, col=%d, message=%q", e.Line, e.Col, e.Message)
}

// ---------------------------------------------------------------------------
// 3. Unknown sizes and references: the message names the culprit.
// ---------------------------------------------------------------------------

func TestE2EUnknownSizeAndReference(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"pipe size", `(pipe "p" :size "DN7")`, "DN7"},
		{"flange size", `(flange "f" :size "DN9000")`, "DN9000"},
		{"ubolt size", `(ubolt "u" :size "DN1")`, "DN1"},
		{"reduct size2", `(reduct "r" :size "DN80" :size2 "DN2")`, "DN2"},
		{"unknown feature", `(purge "ghost")`, "ghost"},
		{"unknown property", `(pipe "p") (set-prop "p" :Colour 3)`, "Colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatal("expected an error")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error mentioning %q, got %v", tt.want, result.Errors)
			}
			if len(result.Meshes) != 0 {
				t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
			}
		})
	}
}

// A container on a missing path is reported and added empty; the rest of
// the source still builds.
func TestE2EMissingBaseKeepsDocument(t *testing.T) {
	for _, form := range []string{"pypeline", "branch"} {
		t.Run(form, func(t *testing.T) {
			app := newTestApp(t)
			result := app.Evaluate(`(pipe "P" :size "DN50" :h 100) (` + form + ` "L" :base "nowhere" :size "DN50")`)
			if len(result.Errors) != 0 {
				t.Fatalf("a missing base should not fail the source: %v", result.Errors)
			}
			if len(result.Warnings) == 0 {
				t.Error("expected a warning for the missing base")
			}
			if len(result.Meshes) != 1 || result.Meshes[0].PartName != "P" {
				t.Errorf("meshes = %d, want pipe P only", len(result.Meshes))
			}
			tree, err := app.Tree()
			if err != nil {
				t.Fatal(err)
			}
			if len(tree) != 2 {
				t.Errorf("tree = %+v, want P and L", tree)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// 4. Degenerate dimensions: reported, never a panic.
// ---------------------------------------------------------------------------

func TestE2EZeroLengthPipe(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(pipe "flat" :h 0)`)

	if len(result.Errors) != 0 {
		t.Fatalf("zero-length pipe should only warn, got %v", result.Errors)
	}
	warned := false
	for _, w := range result.Warnings {
		if w.Label == "flat" {
			warned = true
		}
	}
	if !warned {
		t.Errorf("expected a warning for flat, got %v", result.Warnings)
	}
}

func TestE2ENegativeDimension(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(cap "c" :od -10)`)
	if len(result.Errors) == 0 {
		t.Fatal("expected an error for a negative diameter")
	}
}

func TestE2EThickWallClamped(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(pipe "solid" :od 50 :thk 40 :h 100)`)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 {
		t.Fatalf("a clamped pipe still has a shape, got %d meshes", len(result.Meshes))
	}
	rep, err := app.Query("solid")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range rep.Properties {
		switch v.Name {
		case "thk":
			if v.Num != 25 {
				t.Errorf("thk = %g, want clamped to 25", v.Num)
			}
		case "ID":
			if v.Num != 0 {
				t.Errorf("ID = %g, want 0", v.Num)
			}
		}
	}
}

func TestE2EStraightPathHasNoElbows(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`
(def r (path "r" (vec3 0 0 0) (vec3 1000 0 0)))
(pypeline "L" :base r)
`)
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 1 || result.Meshes[0].PType != "Pipe" {
		t.Errorf("meshes = %+v", result.Meshes)
	}
}

// ---------------------------------------------------------------------------
// 5. Rapid evaluation (debounce simulation): no panics, no data races.
//    Run with `go test -race` to detect data races.
// ---------------------------------------------------------------------------

func TestE2ERapidEvaluationAlternating(t *testing.T) {
	// Alternates between valid and invalid sources; each call replaces the
	// current document only when the source ran.
	app := newTestApp(t)

	sources := []string{
		`(pipe "ok" :h 100)`,
		`(pipe "broken"`,
		``,
		`(purge "missing")`,
		`(elbow "e" :angle 45)`,
		`(+ 1 2)`,
		`;; just a comment`,
		`(flange "f")`,
		`(undefined-func 1 2 3)`,
		`(shell "s" :L 100 :W 100 :H 100)`,
	}

	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on source %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}
	tree, err := app.Tree()
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || tree[0].Label != "s" {
		t.Errorf("last good document should be current, tree = %+v", tree)
	}
}

// ---------------------------------------------------------------------------
// 6. Large models: long runs and big diameters mesh without a crash.
// ---------------------------------------------------------------------------

func TestE2ELargeDimensions(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`
(def r (path "r" (vec3 0 0 0) (vec3 50000 0 0) (vec3 50000 30000 0)))
(pypeline "trunk" :base r :size "DN300")
`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors for a large run: %v", result.Errors)
	}
	if len(result.Meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if len(m.Vertices) == 0 {
			t.Errorf("%s: no vertices", m.PartName)
		}
	}
}

// ---------------------------------------------------------------------------
// 7. Several containers in one source: members mesh once each.
// ---------------------------------------------------------------------------

func TestE2EMultipleContainers(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`
(def a (path "a" (vec3 0 0 0) (vec3 800 0 0) (vec3 800 800 0)))
(def b (path "b" (vec3 0 2000 0) (vec3 800 2000 0) (vec3 800 2800 0)))
(pypeline "A" :base a)
(branch "B" :base b :size "DN80")
(add-to "A" (cap "end" :at (vec3 800 800 0)))
`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	// 2 pipes + elbow for each container, plus the cap.
	if len(result.Meshes) != 7 {
		t.Fatalf("expected 7 meshes, got %d", len(result.Meshes))
	}
	seen := map[string]bool{}
	for _, m := range result.Meshes {
		if seen[m.PartName] {
			t.Errorf("part %q meshed twice", m.PartName)
		}
		seen[m.PartName] = true
	}
}

func TestE2EArithmeticInArguments(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`
(def span 1200)
(def rise (/ span 2))
(def r (path "r" (vec3 0 0 0) (vec3 span 0 0) (vec3 span 0 rise)))
(pypeline "L" :base r :radius (* 2 45))
`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	rep, err := app.Query("L")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range rep.Properties {
		if v.Name == "BendRadius" && v.Num != 90 {
			t.Errorf("BendRadius = %g, want 90", v.Num)
		}
	}
}
