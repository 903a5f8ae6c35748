// Command pypecli is an interactive shell for piping models: it loads DSL
// files, inspects and edits the resulting document, prints part lists and
// exports solids.
package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/chazu/pypeline/pkg/config"
	"github.com/chazu/pypeline/pkg/store"
	"github.com/chazu/pypeline/pkg/workbench"
)

func main() {
	initDisplay()

	configPath := flag.String("config", "pypeline.yaml", "path to the YAML configuration")
	file := flag.String("file", "", "DSL file to load on start")
	noStore := flag.Bool("no-store", false, "run without a document store")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	wb, err := workbench.New(cfg)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}
	intp := &Intp{wb: wb}
	if !*noStore {
		if intp.store, err = store.Open(cfg.Store.Path); err != nil {
			pterm.Warning.Printf("document store unavailable: %v\n", err)
		} else {
			defer intp.store.Close()
		}
	}

	pterm.Info.Println("Welcome to the pypeline shell, type 'help' for commands")
	intp.repl, err = readline.New("pype > ")
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(3)
	}
	defer intp.repl.Close()

	if *file != "" {
		if err, _ := loadOp(intp, &Op{code: LOAD, args: []string{*file}}); err != nil {
			pterm.Error.Println(err)
		}
	}
	intp.REPL()
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " Info ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error ",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// REPL reads commands until 'quit' or end of input.
func (intp *Intp) REPL() {
	for {
		line, err := intp.repl.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
				break
			}
			pterm.Error.Println(err)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if _, stop := intp.execute(cmd); stop {
			return
		}
	}
	pterm.Info.Println("Good bye!")
}
