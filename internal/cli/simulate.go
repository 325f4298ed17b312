package cli

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowform/pkg/errors"
	"github.com/matzehuels/flowform/pkg/form"
	specio "github.com/matzehuels/flowform/pkg/io"
	"github.com/matzehuels/flowform/pkg/observability"
	"github.com/matzehuels/flowform/pkg/summary"
	"github.com/matzehuels/flowform/pkg/visibility"
)

type simulateOpts struct {
	compileFlags
	answers []string
	json    bool
}

type simulateResult struct {
	Visible   []string             `json:"visible"`
	Hidden    []string             `json:"hidden"`
	Cleared   []string             `json:"cleared"`
	Skipped   []string             `json:"skipped"`
	Selection visibility.Selection `json:"selection"`
	Summary   summary.Summary      `json:"summary"`
}

// simulateCommand creates the simulate command.
func (c *CLI) simulateCommand() *cobra.Command {
	var opts simulateOpts

	cmd := &cobra.Command{
		Use:   "simulate <form.json|diagram>",
		Short: "Apply answers to a form and show what stays visible",
		Long: `Apply answers to a form one at a time, recomputing visibility after each,
and print the resulting questions and summary.

Answers are given as QUESTION=ANSWER. Answers to questions that are hidden
at that point are skipped with a warning. Free-text questions take any
value.`,
		Example: `  flowform simulate plan.form.json -a B=No -a D=Weekly
  flowform simulate plan.mmd -a B=Yes --json`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeForm,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSimulate(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.answers, "answer", "a", nil, "answer as QUESTION=ANSWER (repeatable)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")

	return cmd
}

func (c *CLI) runSimulate(ctx context.Context, input string, opts simulateOpts) error {
	logger := loggerFromContext(ctx)

	spec, err := c.loadForm(ctx, input, opts.compileFlags)
	if err != nil {
		return err
	}

	st := visibility.FromSpec(spec)
	engine := visibility.NewEngine(c.Config.Visibility.MaxIterations, logger)
	update := func() visibility.Result {
		res := engine.Update(st)
		observability.Visibility().OnUpdate(ctx, len(st.Questions()), res.Iterations, res.Converged)
		return res
	}
	update()

	out := simulateResult{Cleared: []string{}, Skipped: []string{}}
	for _, a := range opts.answers {
		id, answer, err := errors.ParseAnswerFlag(a)
		if err != nil {
			return err
		}
		if _, _, ok := spec.Question(id); !ok {
			return errors.New(errors.ErrCodeQuestionNotFound, "unknown question %s", id)
		}
		if st.Hidden(id) {
			out.Skipped = append(out.Skipped, id)
			if !opts.json {
				printWarning("%s is hidden, ignoring %q", id, answer)
			}
			continue
		}
		if err := st.Input(id, answer); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidAnswer, err, "question %s", id)
		}
		res := update()
		logger.Debug("answered", "question", id, "answer", answer,
			"shown", res.Shown, "hidden", res.Hidden, "iterations", res.Iterations)
		out.Cleared = append(out.Cleared, res.Cleared...)
	}

	out.Visible = orEmpty(st.VisibleQuestions())
	out.Hidden = orEmpty(st.HiddenQuestions())
	out.Selection = visibility.Collect(st)
	out.Summary = summary.Build(spec, st)

	if opts.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printVisibility(spec, st)
	if len(out.Cleared) > 0 {
		printInfo("Cleared answers of %s", strings.Join(out.Cleared, ", "))
	}
	printNewline()
	printStyledSummary(out.Summary)
	return nil
}

// loadForm reads a compiled form from a .json file, or compiles any other
// input as a diagram.
func (c *CLI) loadForm(ctx context.Context, input string, flags compileFlags) (*form.Spec, error) {
	src, err := readDiagram(ctx, input)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(path.Ext(input), ".json") {
		spec, err := specio.ReadSpec(strings.NewReader(src))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read form %s", input)
		}
		return spec, nil
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	res, err := runner.Compile(ctx, c.options(src, flags))
	if err != nil {
		return nil, err
	}
	printDiagnostics(res.Spec.Diagnostics)
	return res.Spec, nil
}

// printStyledSummary prints the summary with a highlighted title and
// recommendations.
func printStyledSummary(s summary.Summary) {
	if s.Empty() {
		printInfo("No answers given")
		return
	}
	if s.Title != "" {
		printKeyValue("Summary", StyleTitle.Render(s.Title))
	}
	for _, sec := range s.Sections {
		printInfo("%s", StyleTitle.Render(sec.Title))
		for _, r := range sec.Recommendations {
			printSuccess("%s", StyleHighlight.Render(r))
		}
		for _, e := range sec.Entries {
			printDetail("%s %s", e.Question, strings.Join(e.Answers, ", "))
		}
	}
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
