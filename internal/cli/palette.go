package cli

import (
	"fmt"
	"os"

	"github.com/opencode-ai/illo/internal/palette"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	paletteScheme string
	paletteOutput string
)

func init() {
	rootCmd.AddCommand(paletteCmd)
	paletteCmd.AddCommand(paletteExportCmd)
	paletteCmd.Flags().StringVar(&paletteScheme, "scheme", "", "scheme to show (default from config)")
	paletteExportCmd.Flags().StringVarP(&paletteOutput, "output", "o", "", "write to this file instead of stdout")
}

// paletteFile is the on-disk palette layout read by palette.LoadFile.
type paletteFile struct {
	Schemes map[string]map[string]string `yaml:"schemes"`
}

var paletteExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the resolved palettes as an editable palette file",
	Long: `Write every scheme, with palette file overrides applied, in the YAML layout
accepted by palette.file. Edit the result and point palette.file at it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, err := loadTheme(GetConfig(), "")
		if err != nil {
			return err
		}
		data, err := exportPalettes(theme)
		if err != nil {
			return err
		}
		if paletteOutput == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(paletteOutput, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", paletteOutput, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d schemes to %s\n", len(theme.Schemes()), paletteOutput)
		return nil
	},
}

func exportPalettes(theme *palette.Theme) ([]byte, error) {
	file := paletteFile{Schemes: make(map[string]map[string]string)}
	for _, scheme := range theme.Schemes() {
		colors, ok := theme.Palette(scheme)
		if !ok {
			continue
		}
		file.Schemes[scheme] = map[string]string(colors)
	}
	return yaml.Marshal(file)
}

// PaletteResult is the payload returned by `illo palette`.
type PaletteResult struct {
	Scheme  string            `json:"scheme"`
	Schemes []string          `json:"schemes"`
	Colors  map[string]string `json:"colors"`
}

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Show the resolved token colors",
	Long:  "Show the color every token resolves to under a scheme, including palette file overrides.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		theme, err := loadTheme(GetConfig(), paletteScheme)
		if err != nil {
			return err
		}
		colors, _ := theme.Palette(theme.Scheme())

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, PaletteResult{
				Scheme:  theme.Scheme(),
				Schemes: theme.Schemes(),
				Colors:  colors,
			})
		}

		if IsInteractive() {
			fmt.Fprintf(os.Stdout, "Scheme: %s\n\n", theme.Scheme())
			fmt.Fprint(os.Stdout, palette.Swatches(colors))
			return nil
		}

		rows := make([][]string, 0, len(colors))
		for _, name := range colors.Variables() {
			rows = append(rows, []string{name, colors[name]})
		}
		return writeTable(os.Stdout, []string{"VARIABLE", "COLOR"}, rows)
	},
}
