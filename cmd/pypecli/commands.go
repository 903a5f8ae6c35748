package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/chazu/pypeline/pkg/doc"
	"github.com/chazu/pypeline/pkg/feature"
	"github.com/chazu/pypeline/pkg/pipeline"
	"github.com/chazu/pypeline/pkg/query"
	"github.com/chazu/pypeline/pkg/store"
	"github.com/chazu/pypeline/pkg/tessellate"
	"github.com/chazu/pypeline/pkg/view"
	"github.com/chazu/pypeline/pkg/workbench"
)

// Intp is the shell state: the workbench holding the current document and
// an optional store.
type Intp struct {
	repl  *readline.Instance
	wb    *workbench.Workbench
	store *store.Store
}

const (
	NOOP int = iota
	QUIT
	HELP
	LOAD
	LIST
	QUERY
	FIND
	SET
	RECOMPUTE
	PURGE
	REDRAW
	DELETE
	BOM
	EXPORT
	SAVE
	OPEN
	DOCS
)

var opMap = map[string]int{
	"quit":      QUIT,
	"exit":      QUIT,
	"help":      HELP,
	"load":      LOAD,
	"list":      LIST,
	"ls":        LIST,
	"query":     QUERY,
	"find":      FIND,
	"set":       SET,
	"recompute": RECOMPUTE,
	"purge":     PURGE,
	"redraw":    REDRAW,
	"delete":    DELETE,
	"bom":       BOM,
	"export":    EXPORT,
	"save":      SAVE,
	"open":      OPEN,
	"docs":      DOCS,
}

// arity is the minimum and maximum argument count per command.
var arity = map[int][2]int{
	QUIT:      {0, 0},
	HELP:      {0, 1},
	LOAD:      {1, 1},
	LIST:      {0, 0},
	QUERY:     {1, 1},
	FIND:      {1, 2},
	SET:       {3, 3},
	RECOMPUTE: {0, 0},
	PURGE:     {1, 1},
	REDRAW:    {1, 1},
	DELETE:    {1, 1},
	BOM:       {0, 1},
	EXPORT:    {2, 2},
	SAVE:      {1, 1},
	OPEN:      {1, 1},
	DOCS:      {0, 0},
}

// Op is one parsed command line.
type Op struct {
	code int
	name string
	args []string
}

func (op *Op) arg(i int) string {
	if i < len(op.args) {
		return op.args[i]
	}
	return ""
}

var errUnknownCommand = errors.New("unknown command, try 'help'")

// parseCommand splits a line into a command word and its arguments.
// Arguments may be double-quoted to include spaces.
func parseCommand(line string) (*Op, error) {
	words, err := splitWords(line)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return &Op{code: NOOP}, nil
	}
	name := strings.ToLower(words[0])
	code, ok := opMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, words[0])
	}
	op := &Op{code: code, name: name, args: words[1:]}
	n := arity[code]
	if len(op.args) < n[0] || len(op.args) > n[1] {
		return nil, fmt.Errorf("%s: wrong number of arguments, try 'help %s'", name, name)
	}
	return op, nil
}

func splitWords(line string) ([]string, error) {
	var words []string
	var cur strings.Builder
	inQuote, hasWord := false, false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasWord = true
		case !inQuote && (r == ' ' || r == '\t'):
			if hasWord {
				words = append(words, cur.String())
				cur.Reset()
				hasWord = false
			}
		default:
			cur.WriteRune(r)
			hasWord = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if hasWord {
		words = append(words, cur.String())
	}
	return words, nil
}

var commandFn map[int]func(*Intp, *Op) (error, bool)

func init() {
	commandFn = map[int]func(*Intp, *Op) (error, bool){
		QUIT:      quitOp,
		HELP:      helpOp,
		LOAD:      loadOp,
		LIST:      listOp,
		QUERY:     queryOp,
		FIND:      findOp,
		SET:       setOp,
		RECOMPUTE: recomputeOp,
		PURGE:     purgeOp,
		REDRAW:    redrawOp,
		DELETE:    deleteOp,
		BOM:       bomOp,
		EXPORT:    exportOp,
		SAVE:      saveOp,
		OPEN:      openOp,
		DOCS:      docsOp,
	}
}

func (intp *Intp) execute(op *Op) (err error, stop bool) {
	if op.code == NOOP {
		return nil, false
	}
	f, ok := commandFn[op.code]
	if !ok {
		pterm.Error.Printf("unknown command code: %d\n", op.code)
		return nil, false
	}
	if err, stop = f(intp, op); err != nil {
		pterm.Error.Println(err)
	}
	return
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	pterm.Info.Println("Good bye!")
	return nil, true
}

// --- Documents --------------------------------------------------------

func loadOp(intp *Intp, op *Op) (error, bool) {
	src, err := os.ReadFile(op.arg(0))
	if err != nil {
		return err, false
	}
	res := intp.wb.Evaluate(string(src))
	printIssues(res)
	if res.Document == nil {
		return errors.New("nothing loaded"), false
	}
	pterm.Success.Printf("%s: %d features, %d meshes\n", op.arg(0), res.Document.Len(), len(res.Meshes))
	return nil, false
}

func printIssues(res workbench.Result) {
	for _, e := range res.Errors {
		pterm.Error.Println(formatIssue(e))
	}
	for _, w := range res.Warnings {
		pterm.Warning.Println(formatIssue(w))
	}
}

func formatIssue(i workbench.Issue) string {
	var sb strings.Builder
	if i.Line > 0 {
		fmt.Fprintf(&sb, "%d:%d: ", i.Line, i.Col)
	}
	if i.Label != "" {
		sb.WriteString(i.Label)
		sb.WriteString(": ")
	}
	sb.WriteString(i.Message)
	return sb.String()
}

func saveOp(intp *Intp, op *Op) (error, bool) {
	if intp.store == nil {
		return errors.New("no document store"), false
	}
	err := intp.wb.Do(func(d *doc.Document) error {
		d.Name = op.arg(0)
		return intp.store.Save(context.Background(), d)
	})
	if err == nil {
		pterm.Success.Printf("saved %s\n", op.arg(0))
	}
	return err, false
}

func openOp(intp *Intp, op *Op) (error, bool) {
	if intp.store == nil {
		return errors.New("no document store"), false
	}
	d, err := intp.store.Load(context.Background(), op.arg(0), intp.wb.Kernel())
	if err != nil {
		return err, false
	}
	printIssues(intp.wb.Adopt(d))
	pterm.Success.Printf("opened %s: %d features\n", d.Name, d.Len())
	return nil, false
}

func docsOp(intp *Intp, op *Op) (error, bool) {
	if intp.store == nil {
		return errors.New("no document store"), false
	}
	list, err := intp.store.List(context.Background())
	if err != nil {
		return err, false
	}
	data := [][]string{{"Name", "Features", "Paths", "Updated"}}
	for _, s := range list {
		data = append(data, []string{s.Name, strconv.Itoa(s.Features), strconv.Itoa(s.Paths), s.UpdatedAt})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render(), false
}

// --- Inspection -------------------------------------------------------

func listOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		root := pterm.TreeNode{Text: d.Name}
		for _, n := range view.Tree(d) {
			root.Children = append(root.Children, treeNode(n))
		}
		return pterm.DefaultTree.WithRoot(root).Render()
	}), false
}

func treeNode(n view.Node) pterm.TreeNode {
	text := fmt.Sprintf("%s (%s)", n.Label, n.PType)
	if n.Touched {
		text += " *"
	}
	t := pterm.TreeNode{Text: text}
	for _, c := range n.Children {
		t.Children = append(t.Children, treeNode(c))
	}
	return t
}

func queryOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		f, err := byLabel(d, op.arg(0))
		if err != nil {
			return err
		}
		pterm.Println(query.Info(d, f).String())
		return nil
	}), false
}

func byLabel(d *doc.Document, label string) (feature.Feature, error) {
	f := d.ByLabel(label)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", doc.ErrNotFound, label)
	}
	return f, nil
}

func partList(d *doc.Document, container string) (*query.Sheet, error) {
	ids, err := query.Scope(d, container)
	if err != nil {
		return nil, err
	}
	return query.PartList(d, ids), nil
}

func bomOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		sheet, err := partList(d, op.arg(0))
		if err != nil {
			return err
		}
		rows := sheet.Rows()
		if len(rows) <= 1 {
			pterm.Info.Println("no parts")
			return nil
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}), false
}

func findOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		sheet, err := partList(d, op.arg(1))
		if err != nil {
			return err
		}
		if addr, ok := query.FindFirst(sheet, op.arg(0)); ok {
			pterm.Printf("%s found at %s\n", op.arg(0), addr)
		} else {
			pterm.Printf("%s not found\n", op.arg(0))
		}
		return nil
	}), false
}

// --- Editing ----------------------------------------------------------

// parseValue converts text to the value type a property expects.
func parseValue(p feature.Property, text string) (any, error) {
	switch p.Kind {
	case feature.KindLength, feature.KindAngle, feature.KindFloat, feature.KindInteger:
		return strconv.ParseFloat(text, 64)
	case feature.KindBool:
		return strconv.ParseBool(text)
	case feature.KindString, feature.KindLink:
		return text, nil
	}
	return nil, fmt.Errorf("%s: %s properties cannot be set from the shell", p.Name, p.Kind)
}

func setOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		f, err := byLabel(d, op.arg(0))
		if err != nil {
			return err
		}
		p, ok := feature.Lookup(f, op.arg(1))
		if !ok {
			return fmt.Errorf("%w: %s.%s", feature.ErrUnknownProperty, f.Base().PType, op.arg(1))
		}
		v, err := parseValue(p, op.arg(2))
		if err != nil {
			return err
		}
		if err := d.Set(f.Base().ID, p.Name, v); err != nil {
			return err
		}
		return recompute(d)
	}), false
}

// recompute rebuilds touched features and prints what failed.
func recompute(d *doc.Document) error {
	failures := d.Recompute()
	for _, f := range failures {
		pterm.Warning.Println(f.Error())
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d features failed to recompute", len(failures))
	}
	return nil
}

func recomputeOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		if err := recompute(d); err != nil {
			return err
		}
		pterm.Success.Println("recomputed")
		return nil
	}), false
}

func purgeOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		f, err := byLabel(d, op.arg(0))
		if err != nil {
			return err
		}
		p, ok := f.(interface{ Purge() })
		if !ok {
			return fmt.Errorf("%s is not a pipeline or branch", op.arg(0))
		}
		p.Purge()
		return nil
	}), false
}

func redrawOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		f, err := byLabel(d, op.arg(0))
		if err != nil {
			return err
		}
		b, ok := f.(*pipeline.Branch)
		if !ok {
			return fmt.Errorf("%s is not a branch", op.arg(0))
		}
		if err := b.Redraw(b.OD, b.Thk, b.BendRadius); err != nil {
			return err
		}
		return recompute(d)
	}), false
}

func deleteOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		f, err := byLabel(d, op.arg(0))
		if err != nil {
			return err
		}
		labels, err := view.DeleteSet(d, f.Base().ID)
		if err != nil {
			return err
		}
		if err := view.OnDelete(d, f.Base().ID); err != nil {
			return err
		}
		pterm.Printf("deleted %s\n", strings.Join(labels, ", "))
		return nil
	}), false
}

func exportOp(intp *Intp, op *Op) (error, bool) {
	return intp.wb.Do(func(d *doc.Document) error {
		if err := tessellate.ExportSTL(d, op.arg(0), op.arg(1)); err != nil {
			return err
		}
		pterm.Success.Printf("wrote %s\n", op.arg(1))
		return nil
	}), false
}
