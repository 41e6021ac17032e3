package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mediagen/internal/infra"
	"mediagen/internal/runs"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	var in runs.ImageInput
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate an image from a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.execute(cmd, func(r *runs.Runner, token string) (runs.Plan, error) {
				return r.PlanImage(in, token)
			})
		},
	}
	cmd.Flags().StringVarP(&in.Prompt, "prompt", "p", "", "Text prompt")
	cmd.Flags().IntVarP(&in.NumImages, "num-images", "n", 1, "Number of images (1-10)")
	cmd.Flags().StringVar(&in.Resolution, "resolution", "1K", "Resolution: 1K, 2K or 4K")
	return cmd
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	var in runs.VideoInput
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Generate a video from a prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.execute(cmd, func(r *runs.Runner, token string) (runs.Plan, error) {
				return r.PlanVideo(in, token)
			})
		},
	}
	cmd.Flags().StringVarP(&in.Prompt, "prompt", "p", "", "Text prompt")
	cmd.Flags().StringVarP(&in.Model, "model", "m", "", "Video model key (see `mediagen models`)")
	cmd.Flags().StringVar(&in.AspectRatio, "aspect-ratio", "16:9", "Aspect ratio: 16:9, 9:16, 1:1 or 4:3")
	cmd.Flags().IntVar(&in.Duration, "duration", 5, "Duration in seconds (1-10)")
	cmd.Flags().StringVar(&in.Resolution, "resolution", "720p", "Resolution: 720p or 1080p")
	return cmd
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var in runs.BatchInput
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate one image per prompt in a delimited list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.execute(cmd, func(r *runs.Runner, token string) (runs.Plan, error) {
				return r.PlanBatch(in, token)
			})
		},
	}
	cmd.Flags().StringVar(&in.Prompts, "prompts", "", "Prompt list, e.g. \"a cat, a dog\"")
	cmd.Flags().StringVar(&in.Delimiter, "delimiter", ",", "Prompt separator")
	cmd.Flags().StringVar(&in.Resolution, "resolution", "1K", "Resolution: 1K, 2K or 4K")
	cmd.Flags().StringVar(&in.AspectRatio, "aspect-ratio", "1:1", "Preset 1:1, 4:3, 16:9, 9:16 or custom")
	cmd.Flags().IntVar(&in.Width, "width", 1024, "Width in pixels when --aspect-ratio=custom")
	cmd.Flags().IntVar(&in.Height, "height", 1024, "Height in pixels when --aspect-ratio=custom")
	return cmd
}

// execute plans a run with the stored credential, streams its progress and
// prints the result. Plan errors are returned before any request is sent.
func (c *commandContext) execute(cmd *cobra.Command, plan func(*runs.Runner, string) (runs.Plan, error)) error {
	logger := c.logger(cmd.ErrOrStderr())
	return c.withRunner(cmd.Context(), logger, func(runner *runs.Runner, token string) error {
		p, err := plan(runner, token)
		if err != nil {
			return localizedError{msg: c.translator().Error(err), err: err}
		}
		return c.run(cmd, runner, p, logger)
	})
}

func (c *commandContext) run(cmd *cobra.Command, runner *runs.Runner, plan runs.Plan, logger *infra.Logger) error {
	printer := newProgressPrinter(cmd.OutOrStdout())
	view := runs.NewView(uuid.NewString(), plan.Kind, plan.Endpoint.Key, c.translator().Locale())
	final := runner.Execute(cmd.Context(), plan, view, printer.publish)
	logger.Debug().Str("state", string(final.State)).Msg("run finished")
	if err := cmd.Context().Err(); err != nil {
		return err
	}
	return finish(cmd.OutOrStdout(), final)
}
