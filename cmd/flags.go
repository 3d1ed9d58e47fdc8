package cmd

import (
	"github.com/cottand/tyinfer/frontend/problem"
	"github.com/cottand/tyinfer/internal/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"log/slog"
)

var (
	logLevel   int
	formatFlag string
)

func addCommonFlags(c *cobra.Command) {
	c.Flags().IntVarP(&logLevel, "log-level", "l", int(slog.LevelError), "log level")
	c.Flags().StringVarP(&formatFlag, "format", "f", "", "problem file format (yaml or toml), guessed from the extension by default")
}

// loadProblem applies the common flags and loads the problem file at path
func loadProblem(path string) (*problem.Problem, error) {
	log.SetLevel(slog.Level(logLevel))

	var format problem.Format
	if formatFlag != "" {
		var err error
		if format, err = problem.ParseFormat(formatFlag); err != nil {
			return nil, err
		}
	}
	f, err := problem.Load(path, format)
	if err != nil {
		return nil, err
	}
	p, err := problem.Build(f)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid problem %s", path)
	}
	return p, nil
}
