package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/pipeline"
	"github.com/matzehuels/flowform/pkg/source"
)

// formSuffix is appended to the diagram's base name for compiled forms.
const formSuffix = ".form.json"

type compileOpts struct {
	compileFlags
	output string
}

// compileCommand creates the compile command.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile <diagram>",
		Short: "Compile a flowchart into a form spec",
		Long: `Compile a Mermaid flowchart into a JSON form spec.

The diagram may be a file, an http(s) URL, or "-" for stdin. Problems in
the diagram (dangling edges, cycles, questions outside any section) are
reported as warnings and kept in the spec's diagnostics.`,
		Example: `  flowform compile plan.mmd
  flowform compile plan.mmd -o - | jq .sections
  cat plan.mmd | flowform compile - -o plan.form.json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDiagram,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default: <diagram>"+formSuffix+")")

	return cmd
}

func (c *CLI) runCompile(ctx context.Context, input string, opts compileOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	src, err := readDiagram(ctx, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.options(src, opts.compileFlags)
	popts.Formats = []string{pipeline.FormatJSON}
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		if input == "-" {
			output = "-"
		} else {
			output = basePath("", input) + formSuffix
		}
	}
	if err := writeOutput(output, res.Artifacts[pipeline.FormatJSON]); err != nil {
		return err
	}
	if output == "-" {
		return nil
	}

	prog.done(fmt.Sprintf("Compiled %s", input))
	printSuccess("Compiled %s", formName(res.Spec.Title, input))
	printStats(res.Stats.Sections, res.Stats.Questions, res.Stats.Answers, res.CacheInfo.CompileHit)
	printDiagnostics(res.Diagnostics)
	printFile(output)
	printNextStep("Try it", fmt.Sprintf("%s fill %s", appName, output))
	return nil
}

func formName(title, input string) string {
	if title != "" {
		return title
	}
	return input
}

// stdin backs the "-" reference; tests replace it.
var stdin io.Reader = os.Stdin

// readDiagram reads diagram text from a file, an http(s) URL, or stdin for "-".
func readDiagram(ctx context.Context, ref string) (string, error) {
	l := source.New()
	l.Stdin = stdin
	return l.Load(ctx, ref)
}

// writeOutput writes data to path, or to stdout for "-".
func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
