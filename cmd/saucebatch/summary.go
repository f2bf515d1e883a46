package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"saucebatch/internal/batch"
	"saucebatch/internal/results"
)

func renderRunSummary(summary batch.Summary, acc *results.Accumulator, outputDir string) string {
	pixiv, twitter, danbooruCount := acc.Counts()

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRows([]table.Row{
		{"Run ID", summary.RunID},
		{"Files processed", strconv.Itoa(summary.Processed)},
		{"Completed", strconv.Itoa(summary.Completed)},
		{"No results", strconv.Itoa(summary.NoResults)},
		{"Failed", strconv.Itoa(summary.Failed)},
		{"Pixiv IDs", strconv.Itoa(pixiv)},
		{"Twitter URLs", strconv.Itoa(twitter)},
		{"Danbooru IDs", strconv.Itoa(danbooruCount)},
		{"Output directory", outputDir},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}
