package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/scribe/content"
	"github.com/petal-labs/scribe/media/filestore"
)

func (a *App) newBlocksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "Work with saved content blocks",
	}
	cmd.AddCommand(a.newBlocksRenderCommand())
	return cmd
}

func (a *App) newBlocksRenderCommand() *cobra.Command {
	var mediaDir, mediaURL string

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render saved content blocks as markup",
		Long: `Render a JSON array of content blocks, as saved by generate --blocks, to
block-editor markup. Use - to read from stdin.

Blocks that cannot be decoded are reported and skipped; the rest are still
rendered. The command exits non-zero when any block was skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.readInput(args[0])
			if err != nil {
				return a.invalid(err)
			}

			blocks, decodeErr := content.UnmarshalBlocks(data)
			if blocks == nil && decodeErr != nil {
				return a.invalid(decodeErr)
			}

			store, err := filestore.New(
				firstNonEmpty(mediaDir, a.cfg.Media.Dir),
				firstNonEmpty(mediaURL, a.cfg.Media.BaseURL),
				filestore.WithLogger(a.logger),
			)
			if err != nil {
				return a.invalid(fmt.Errorf("media store: %w", err))
			}

			if out := content.RenderAll(cmd.Context(), blocks, store); out != "" {
				fmt.Fprintln(a.stdout, out)
			}

			if decodeErr != nil {
				skipped := 0
				for _, err := range unwrapJoined(decodeErr) {
					var be *content.BlockError
					if errors.As(err, &be) {
						skipped++
					}
					fmt.Fprintf(a.stderr, "skipped %v\n", err)
				}
				return exitWithCode(ExitValidation, fmt.Errorf("%d of %d blocks could not be decoded", skipped, len(blocks)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory for saved images (default from config)")
	cmd.Flags().StringVar(&mediaURL, "media-url", "", "public base URL of the media directory")

	return cmd
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
