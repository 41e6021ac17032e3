package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mediagen/internal/i18n"
	"mediagen/internal/infra"
	"mediagen/internal/infra/credentials"
)

func newKeyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API token",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <token>",
		Short: "Store the API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHolder(cmd.Context(), ctx.logger(cmd.ErrOrStderr()), func(_ *infra.Config, h *credentials.Holder) error {
				if err := h.Save(cmd.Context(), args[0]); err != nil {
					return localizedError{msg: ctx.translator().Error(err), err: err}
				}
				fmt.Fprintln(cmd.OutOrStdout(), ctx.translator().Sprintf(i18n.MsgTokenSaved))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHolder(cmd.Context(), ctx.logger(cmd.ErrOrStderr()), func(_ *infra.Config, h *credentials.Holder) error {
				if err := h.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ctx.translator().Sprintf(i18n.MsgTokenCleared))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether an API token is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHolder(cmd.Context(), ctx.logger(cmd.ErrOrStderr()), func(_ *infra.Config, h *credentials.Holder) error {
				status := h.Status()
				fmt.Fprintf(cmd.OutOrStdout(), "configured: %s\nsource: %s\nbackend: %s\n", yesNo(status.Configured), status.Source, status.Backend)
				return nil
			})
		},
	})
	return cmd
}

// localizedError prints msg while keeping err available to errors.Is.
type localizedError struct {
	msg string
	err error
}

func (e localizedError) Error() string { return e.msg }
func (e localizedError) Unwrap() error { return e.err }

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
