package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/pipeline"
	"github.com/matzehuels/flowform/pkg/source"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	compileFlags
	formats  string
	output   string
	detailed bool
	watch    bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <diagram>",
		Short: "Render a flowchart as DOT, SVG, PDF or PNG",
		Long: `Render the question graph of a Mermaid flowchart.

Each requested format is written next to the diagram (or to the -o base
path) with the format as extension. json writes the compiled form, like
compile. svg, pdf and png are drawn with Graphviz; pdf and png need
rsvg-convert on PATH. With --watch the outputs are rewritten every time the
diagram file is saved.`,
		Example: `  flowform render plan.mmd
  flowform render plan.mmd -f dot,svg,png --detailed
  flowform render plan.mmd -f pdf -o out/plan
  flowform render plan.mmd --watch`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDiagram,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "comma-separated formats: "+strings.Join(pipeline.SupportedFormats, ", ")+" (default svg)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: diagram path without extension)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with their ids")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-render when the diagram file changes")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	if opts.watch && (input == source.Stdin || source.IsURL(input)) {
		return errors.New(errors.ErrCodeInvalidInput, "--watch needs a local diagram file")
	}
	if err := c.renderOnce(ctx, input, opts); err != nil || !opts.watch {
		return err
	}
	printInfo("Watching %s (ctrl+c to stop)", input)
	return watchFile(ctx, input, watchDebounce, func() error {
		return c.renderOnce(ctx, input, opts)
	})
}

func (c *CLI) renderOnce(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	src, err := readDiagram(ctx, input)
	if err != nil {
		return err
	}

	popts := c.options(src, opts.compileFlags)
	popts.Formats = parseFormats(opts.formats)
	popts.Detailed = opts.detailed
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(popts.Formats, ", ")))
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	logger.Debug("rendered", "run", res.RunID, "compile", res.Stats.CompileTime, "render", res.Stats.RenderTime)

	base := basePath(opts.output, input)
	if input == "-" && opts.output == "" {
		base = "flow"
	}

	printSuccess("Rendered %s", formName(res.Spec.Title, input))
	printStats(res.Stats.Sections, res.Stats.Questions, res.Stats.Answers, res.CacheInfo.RenderHit)
	printDiagnostics(res.Diagnostics)
	for _, format := range popts.Formats {
		path := base + "." + format
		if format == pipeline.FormatJSON {
			path = base + formSuffix
		}
		if err := writeOutput(path, res.Artifacts[format]); err != nil {
			return err
		}
		logger.Debugf("Wrote %s: %d bytes", path, len(res.Artifacts[format]))
		printFile(path)
	}
	return nil
}
