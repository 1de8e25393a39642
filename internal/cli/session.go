package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	pos "github.com/jas0n325/captone-ui-sub006"
	"github.com/jas0n325/captone-ui-sub006/internal/presentation/tui"
	"github.com/jas0n325/captone-ui-sub006/pkg/runner"
)

// RunOptions contains the configuration of the run command.
type RunOptions struct {
	JSON  bool
	Plain bool
	Style string

	In  io.Reader
	Out io.Writer
}

// RunSession runs the operator console against a freshly built stack until EOF or a signal.
func RunSession(stack *Stack, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	interactive := !opts.JSON && isTerminal(opts.Out)

	if interactive {
		tui.PrintBanner(opts.Out, pos.Version, stack.Config.Terminal.ID)
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	if err := stack.Start(sigCtx); err != nil && !opts.JSON {
		printSystemMessage(opts.Out, "Terminal unavailable: %v", err)
	}

	r := runner.New(stack.Engine,
		runner.WithLogger(stack.Logger),
		runner.WithInputHandler(newHandler(opts, interactive)),
	)
	runErr := r.Run(sigCtx)

	if !opts.JSON {
		if sigCtx.Signal() != nil {
			fmt.Fprintln(opts.Out)
			printSystemMessage(opts.Out, "Interrupted.")
		}
		tui.PrintStatus(opts.Out, stack.Engine.InteractionState())
	}
	return handleExecutionError(runErr)
}

func newHandler(opts RunOptions, interactive bool) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.In, opts.Out)
	}
	var handlerOpts []runner.TextHandlerOption
	if interactive && !opts.Plain {
		handlerOpts = append(handlerOpts, runner.WithTextHandlerRenderer(tui.NewRenderer(opts.Style, terminalWidth(opts.Out))))
	}
	return runner.NewTextHandler(opts.In, opts.Out, handlerOpts...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
