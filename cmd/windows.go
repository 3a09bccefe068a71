package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/envisage-news/envisage-cli/internal/docstore"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List the windows present in the document store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := docstore.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		windows, err := store.ListWindows(ctx, docstore.CollectionPipeline)
		if err != nil {
			return err
		}
		if len(windows) == 0 {
			fmt.Println("no windows found")
			return nil
		}
		for _, w := range windows {
			ok, err := store.Exists(ctx, docstore.CollectionWeb, docstore.WebKey(w))
			if err != nil {
				return err
			}
			status := "pipeline only"
			if ok {
				status = "published"
			}
			fmt.Printf("%s  %s\n", w, status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(windowsCmd)
}
