package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediagen/internal/domain"
	"mediagen/internal/jobs"
	"mediagen/internal/providers/krea"
)

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List generation models and aspect ratio presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models := krea.Models("")
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{m.Key, m.Name, m.Provider, string(m.Media), strconv.Itoa(m.MaxAttempts)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Key", "Name", "Provider", "Media", "Max polls"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))

			presets := domain.AspectPresets()
			rows = rows[:0]
			for _, p := range presets {
				rows = append(rows, []string{p.Ratio, p.Label, strconv.Itoa(p.Width), strconv.Itoa(p.Height)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Ratio", "Label", "Width", "Height"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newCountCommand() *cobra.Command {
	var delimiter string
	cmd := &cobra.Command{
		Use:   "count <prompts>",
		Short: "Show how many prompts a list splits into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), len(jobs.SplitPrompts(args[0], delimiter)))
			return nil
		},
	}
	cmd.Flags().StringVar(&delimiter, "delimiter", jobs.DefaultDelimiter, "Prompt separator")
	return cmd
}
