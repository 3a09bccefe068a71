package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/envisage-news/envisage-cli/internal/llm"
	"github.com/envisage-news/envisage-cli/internal/sources"
)

var sourcesCategories []string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Recompute the seed sources file for a set of categories",
	Long: "Asks the language model for reputable, scrapeable news sources per " +
		"category and rewrites the sources file. One-shot; the pipeline itself " +
		"never changes the file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if len(sourcesCategories) == 0 {
			return eris.New("at least one --categories entry is required")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		client, err := llm.New(ctx, cfg.LLM)
		if err != nil {
			return err
		}

		prompt := fmt.Sprintf(
			"For each of these news categories, list 3-5 reputable news "+
				"websites whose section front pages link directly to dated "+
				"articles: %s.\nRespond with a JSON object mapping category "+
				"name to a list of section URLs.",
			strings.Join(sourcesCategories, ", "),
		)
		resp, err := client.Generate(ctx, llm.Request{
			System:    "You curate news source lists. Respond with strict JSON only.",
			Prompt:    prompt,
			MaxTokens: 2048,
		})
		if err != nil {
			return err
		}

		var groups sources.Groups
		if err := json.Unmarshal([]byte(llm.CleanJSON(resp)), &groups); err != nil {
			return eris.Wrap(err, "parse source list")
		}
		if err := sources.Save(cfg.Sources.Path, groups); err != nil {
			return err
		}
		fmt.Printf("wrote %d groups to %s\n", len(groups), cfg.Sources.Path)
		return nil
	},
}

func init() {
	sourcesCmd.Flags().StringSliceVar(&sourcesCategories, "categories", nil, "categories to build sources for")
	rootCmd.AddCommand(sourcesCmd)
}
