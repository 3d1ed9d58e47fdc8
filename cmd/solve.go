package cmd

import (
	"github.com/cottand/tyinfer/frontend/ilerr"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var SolveCmd = &cobra.Command{
	Use:          "solve file.yaml|file.toml",
	Short:        "Infer the variables of a problem file",
	RunE:         runSolve,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
}

func init() {
	addCommonFlags(SolveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	p, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	sol := p.Solve()
	out := cmd.OutOrStdout()

	for _, inferErr := range sol.Errors() {
		pterm.Error.WithWriter(out).Println(ilerr.FormatWithCode(inferErr))
	}

	data := pterm.TableData{{"variable", "position", "value"}}
	for i, b := range p.Bindings(sol) {
		value := "<unconstrained>"
		if b.Snd != nil {
			value = b.Snd.String()
		}
		data = append(data, []string{b.Fst.Name, p.Variables[i].Position.String(), value})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render(); err != nil {
		return errors.Wrap(err, "could not render solution")
	}

	if !sol.IsSuccessful() {
		return errors.Errorf("inference failed with %d errors", len(sol.Errors()))
	}
	pterm.Success.WithWriter(out).Printfln("inferred %d variables", len(p.Variables))
	return nil
}
