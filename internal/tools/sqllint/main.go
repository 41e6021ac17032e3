// Command sqllint checks that every inline SQL constant starts with a unique
// --sql <uuid> marker.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "sqllint [paths...]",
		Short:         "Check inline SQL audit markers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			l := newLinter()
			for _, target := range args {
				if err := l.lintPath(target); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "sqllint: %v\n", err)
					return err
				}
			}
			if len(l.violations) == 0 {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "sqllint: invalid SQL audit markers")
			for _, v := range l.violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s:%d %s (%s)\n", v.file, v.line, v.message, v.name)
			}
			return fmt.Errorf("%d violation(s)", len(l.violations))
		},
	}
}
