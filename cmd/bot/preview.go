package main

import (
	"fmt"
	"strings"

	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/catalog"
	"github.com/Dmitry77701/saudi-football-bot-advanced/internal/content"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"

	"github.com/spf13/cobra"
)

var (
	flagPreviewSeed    int64
	flagPreviewCount   int
	flagPreviewHTML    bool
	flagPreviewCatalog string
)

var previewCmd = &cobra.Command{
	Use:   "preview <kind>",
	Short: "Print generated posts without storing or sending them",
	Long: `Generate posts of one kind from the catalog and print them.

Kinds: ` + strings.Join(kindNames(), ", ") + `.
Nothing is written to the database and nothing is sent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := content.ParseKind(args[0])
		if err != nil {
			return err
		}
		cat, err := catalog.New(flagPreviewCatalog, logx.NewConsole("warn"))
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		gen := content.NewSeeded(flagPreviewSeed)
		seed := content.SeedFromCatalog(cat.Snapshot())

		out := cmd.OutOrStdout()
		for i, c := range gen.Batch(kind, seed, max(1, flagPreviewCount)) {
			if i > 0 {
				fmt.Fprintln(out, strings.Repeat("-", 40))
			}
			if flagPreviewHTML {
				fmt.Fprintln(out, content.FormatPost(c))
			} else {
				fmt.Fprintln(out, content.PlainText(c))
				fmt.Fprintf(out, "\nsummary: %s\ntags: %s\n", c.Summary, strings.Join(c.Tags, ", "))
			}
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().Int64Var(&flagPreviewSeed, "seed", 0, "random seed (0 = time based)")
	previewCmd.Flags().IntVarP(&flagPreviewCount, "count", "n", 1, "number of posts")
	previewCmd.Flags().BoolVar(&flagPreviewHTML, "html", false, "print the Telegram HTML rendering")
	previewCmd.Flags().StringVar(&flagPreviewCatalog, "catalog", "", "catalog YAML file (default: built-in)")
}

func kindNames() []string {
	out := make([]string, 0, len(content.Kinds()))
	for _, k := range content.Kinds() {
		out = append(out, string(k))
	}
	return out
}
