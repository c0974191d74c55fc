package main

import (
	"context"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/emojifont/core"
	"github.com/npillmayer/emojifont/core/font/fontregistry"
	"github.com/npillmayer/emojifont/engine/pipeline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "inspect emoji interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := pipeline.Setup(settings(), fontregistry.NewRegistry())
		if err != nil {
			return err
		}
		repl, err := readline.New("emoji > ")
		if err != nil {
			return err
		}
		defer repl.Close()
		intp := &Intp{repl: repl, pipeline: p}
		pterm.Info.Println("Enter emoji or code-points (U+XXXX). Quit with <ctrl>D")
		intp.REPL(cmd.Context())
		return nil
	},
}

// Intp is our interpreter object.
type Intp struct {
	repl     *readline.Instance
	pipeline *pipeline.Pipeline
}

// REPL starts interactive mode. Results are cached between lines.
func (intp *Intp) REPL(ctx context.Context) {
	for {
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		switch line {
		case "quit", ":q":
			pterm.Info.Println("Good bye!")
			return
		case "help":
			pterm.Info.Println("Enter an emoji, e.g. 😀, or code-points, e.g. U+1F1FA U+1F1F8")
			continue
		case "stats":
			pterm.Info.Printfln("%d cached results", intp.pipeline.Cache().Len())
			continue
		}
		r, err := render(ctx, intp.pipeline, strings.Fields(line))
		if err != nil {
			pterm.Error.Println(core.UserMessage(err))
			tracer().Errorf("%v", err)
			continue
		}
		if err := printDiagnostics(r); err != nil {
			tracer().Errorf("%v", err)
		}
	}
	pterm.Info.Println("Good bye!")
}
