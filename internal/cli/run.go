package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tagproxy/internal/script"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Trace bool // print each scenario's canonical trace
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name" cbor:"name"`
	Pass   bool     `json:"pass" cbor:"pass"`
	Errors []string `json:"errors,omitempty" cbor:"errors,omitempty"`
	Trace  string   `json:"trace,omitempty" cbor:"trace,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios" cbor:"scenarios"`
	Passed    int              `json:"passed" cbor:"passed"`
	Failed    int              `json:"failed" cbor:"failed"`
	Total     int              `json:"total" cbor:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario>...",
		Short: "Run proxy scenarios",
		Long: `Run YAML proxy scenarios and report their expectations.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable scenario, missing header, etc.)

Examples:
  tagproxy run scenarios/*.yaml
  tagproxy run deps-cursor.yaml --trace`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "include the canonical trace")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}

	runner := script.NewRunner(opts.logger)
	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(paths)),
		Total:     len(paths),
	}
	for _, path := range paths {
		sr, err := runScenario(runner, path, opts.Trace)
		if err != nil {
			return err
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	out := opts.formatter(cmd)
	if out.Structured() {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, result)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", result.Failed, result.Total))
	}
	return nil
}

func runScenario(runner *script.Runner, path string, withTrace bool) (ScenarioResult, error) {
	s, err := script.LoadScenario(path)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", path), err)
	}
	res, err := runner.Run(s)
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError, fmt.Sprintf("failed to run %s", s.Name), err)
	}

	sr := ScenarioResult{Name: s.Name, Pass: res.Pass}
	if !res.Pass {
		sr.Errors = res.Errors
	}
	if withTrace {
		data, err := script.Snapshot(s.Name, res)
		if err != nil {
			return ScenarioResult{}, fmt.Errorf("snapshot %s: %w", s.Name, err)
		}
		sr.Trace = string(data)
	}
	return sr, nil
}

func outputRunText(cmd *cobra.Command, result RunResult) {
	w := cmd.OutOrStdout()
	for _, sr := range result.Scenarios {
		if sr.Pass {
			fmt.Fprintf(w, "✓ %s\n", sr.Name)
		} else {
			fmt.Fprintf(w, "✗ %s\n", sr.Name)
			for _, e := range sr.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		if sr.Trace != "" {
			fmt.Fprintf(w, "  %s\n", sr.Trace)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
