package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/summary"
	"github.com/matzehuels/flowform/pkg/visibility"
)

// isTerminal reports whether f is an interactive terminal; tests replace it.
var isTerminal = func(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type fillOpts struct {
	compileFlags
	json bool
}

// fillCommand creates the fill command.
func (c *CLI) fillCommand() *cobra.Command {
	var opts fillOpts

	cmd := &cobra.Command{
		Use:   "fill <form.json|diagram>",
		Short: "Fill in a form interactively",
		Long: `Walk through a form in the terminal. Questions appear and disappear as
you answer, and the summary with its recommendations is printed at the end.

fill needs a terminal. When the diagram comes from stdin ("-"), keys are read
from the controlling terminal instead. Use simulate for scripted answers.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeForm,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFill(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the summary as JSON")

	return cmd
}

func (c *CLI) runFill(ctx context.Context, input string, opts fillOpts) error {
	logger := loggerFromContext(ctx)

	var progOpts []tea.ProgramOption
	switch {
	case !isTerminal(os.Stdout):
		return errors.New(errors.ErrCodeUnsupported, "fill needs a terminal, use simulate to answer from a script")
	case input == "-":
		progOpts = append(progOpts, tea.WithInputTTY())
	case !isTerminal(os.Stdin):
		return errors.New(errors.ErrCodeUnsupported, "fill needs a terminal on stdin, use simulate to answer from a script")
	}

	spec, err := c.loadForm(ctx, input, opts.compileFlags)
	if err != nil {
		return err
	}
	engine := visibility.NewEngine(c.Config.Visibility.MaxIterations, logger)

	final, err := tea.NewProgram(NewFillModel(spec, engine), progOpts...).Run()
	if err != nil {
		return fmt.Errorf("run form: %w", err)
	}
	m, ok := final.(FillModel)
	if !ok {
		return fmt.Errorf("unexpected model %T", final)
	}
	if !m.Done {
		printWarning("Form not finished")
	}
	if len(m.Cleared) > 0 {
		logger.Debug("answers cleared while filling", "questions", m.Cleared)
	}

	s := summary.Build(spec, m.State)
	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	printStyledSummary(s)
	return nil
}
