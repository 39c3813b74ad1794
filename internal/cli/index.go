package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/opencode-ai/illo/internal/lottie"
	"github.com/opencode-ai/illo/internal/source"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

// IndexResult is the payload returned by `illo index`.
type IndexResult struct {
	Source    string       `json:"source"`
	Digest    string       `json:"digest"`
	Tokens    []IndexEntry `json:"tokens"`
	Shapes    int          `json:"shapes"`
	Gradients int          `json:"gradients"`
}

// IndexEntry describes one token found in an animation.
type IndexEntry struct {
	Token     string `json:"token"`
	Variable  string `json:"variable"`
	Shapes    int    `json:"shapes"`
	Gradients int    `json:"gradients"`
}

var indexCmd = &cobra.Command{
	Use:   "index <source>",
	Short: "List the color tokens an animation references",
	Long:  "Load an animation and list every known color token it references with the number of shapes and gradients bound to it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step := startProgress(os.Stderr, "Loading "+args[0])
		asset, err := source.NewDefaultLoader().Load(cmd.Context(), args[0])
		if err != nil {
			step.Fail(err)
			return err
		}
		doc, err := lottie.Parse(asset.Data)
		if err != nil {
			step.Fail(err)
			return err
		}
		step.Done(fmt.Sprintf("%d nodes", doc.Len()))

		idx := lottie.BuildIndex(doc, tokenSet(GetConfig()))
		result := buildIndexResult(asset, idx)

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, result)
		}

		if len(result.Tokens) == 0 {
			fmt.Fprintln(os.Stdout, "No color tokens found. The animation renders with its bundled colors.")
			return nil
		}

		rows := make([][]string, 0, len(result.Tokens))
		for _, entry := range result.Tokens {
			rows = append(rows, []string{
				entry.Token,
				entry.Variable,
				strconv.Itoa(entry.Shapes),
				strconv.Itoa(entry.Gradients),
			})
		}
		return writeTable(os.Stdout, []string{"TOKEN", "VARIABLE", "SHAPES", "GRADIENTS"}, rows)
	},
}

func buildIndexResult(asset *source.Asset, idx *lottie.Index) IndexResult {
	result := IndexResult{Source: asset.URL, Digest: asset.Digest, Tokens: []IndexEntry{}}
	for _, token := range idx.Tokens() {
		color, _ := idx.Get(token)
		result.Tokens = append(result.Tokens, IndexEntry{
			Token:     string(token),
			Variable:  color.CSSVar,
			Shapes:    len(color.Shapes),
			Gradients: len(color.Gradients),
		})
	}
	result.Shapes, result.Gradients = idx.Elements()
	return result
}
