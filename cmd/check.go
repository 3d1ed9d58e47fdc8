package cmd

import (
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check file.yaml|file.toml SUB SUP",
	Short:        "Check whether SUB is a subtype of SUP in the hierarchy of a problem file",
	RunE:         runCheck,
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
}

func init() {
	addCommonFlags(CheckCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	p, err := loadProblem(args[0])
	if err != nil {
		return err
	}
	sub, sup := args[1], args[2]
	ok, err := p.Check(sub, sup)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("%s is not a subtype of %s", sub, sup)
	}
	pterm.Success.WithWriter(cmd.OutOrStdout()).Printfln("%s <: %s", sub, sup)
	return nil
}
