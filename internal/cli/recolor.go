package cli

import (
	"fmt"
	"os"

	"github.com/opencode-ai/illo/internal/lottie"
	"github.com/opencode-ai/illo/internal/source"
	"github.com/spf13/cobra"
)

var (
	recolorScheme string
	recolorOutput string
)

func init() {
	rootCmd.AddCommand(recolorCmd)
	recolorCmd.Flags().StringVar(&recolorScheme, "scheme", "", "color scheme to apply (default from config)")
	recolorCmd.Flags().StringVarP(&recolorOutput, "output", "o", "", "write the recolored animation to this file (default stdout)")
}

var recolorCmd = &cobra.Command{
	Use:   "recolor <source>",
	Short: "Write an animation recolored for a scheme",
	Long:  "Resolve every color token in an animation against the active palette and write the recolored animation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		theme, err := loadTheme(cfg, recolorScheme)
		if err != nil {
			return err
		}

		asset, err := source.NewDefaultLoader().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		doc, err := lottie.Parse(asset.Data)
		if err != nil {
			return err
		}

		idx := lottie.BuildIndex(doc, tokenSet(cfg))
		if idx.Len() == 0 {
			fmt.Fprintf(os.Stderr, "warning: no color tokens found in %s\n", args[0])
		}

		stats, err := lottie.Recolor(doc, idx, theme)
		if err != nil {
			return err
		}

		data, err := doc.MarshalJSON()
		if err != nil {
			return err
		}

		if recolorOutput == "" {
			_, err := os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(recolorOutput, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", recolorOutput, err)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, stats)
		}
		fmt.Fprintf(os.Stdout, "Recolored %s with the %s scheme: %d tokens, %d shapes, %d gradients, %d skipped\n",
			args[0], theme.Scheme(), stats.Tokens, stats.Shapes, stats.Gradients, stats.Skipped)
		return nil
	},
}
