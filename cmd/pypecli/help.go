package main

import (
	"strings"

	"github.com/pterm/pterm"
)

var helpText = map[string]string{
	"load":      "load <file.pype>          evaluate a DSL file and make it the current document",
	"list":      "list                      show the object tree; touched features are marked *",
	"query":     "query <label>             print position, ports and properties of a feature",
	"find":      "find <text> [container]   address of the first part list cell equal to text",
	"set":       "set <label> <prop> <val>  change a property and recompute",
	"recompute": "recompute                 rebuild every touched feature",
	"purge":     "purge <label>             delete the parts of a pipeline or branch",
	"redraw":    "redraw <label>            rebuild a branch from its base path",
	"delete":    "delete <label>            delete a feature; a branch takes its parts along",
	"bom":       "bom [container]           part list of the document or a container",
	"export":    "export <label> <file.stl> write the solid of a feature as STL",
	"save":      "save <name>               store the current document",
	"open":      "open <name>               load a stored document",
	"docs":      "docs                      list stored documents",
	"quit":      "quit                      leave the shell",
}

var helpOrder = []string{
	"load", "list", "query", "find", "bom", "set", "recompute", "purge",
	"redraw", "delete", "export", "save", "open", "docs", "quit",
}

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg(0))
	return nil, false
}

func help(topic string) {
	if text, ok := helpText[strings.ToLower(topic)]; ok {
		pterm.Println(text)
		return
	}
	pterm.Info.Println("Commands")
	for _, name := range helpOrder {
		pterm.Println("  " + helpText[name])
	}
}
