package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellumkit/vellum/pkg/core"
)

var (
	listJSON       bool
	filterCategory string
	filterKeyword  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all posts in the site",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		service, _, _, err := openService()
		if err != nil {
			fatal("Failed to open site", err)
		}

		posts, err := service.ListPosts(context.Background())
		if err != nil {
			fatal("Failed to list posts", err)
		}

		var filtered []core.Post
		for _, post := range posts {
			if filterCategory != "" && post.Metadata.Category() != filterCategory {
				continue
			}
			if filterKeyword != "" && !hasKeyword(post, filterKeyword) {
				continue
			}
			filtered = append(filtered, post)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, post := range filtered {
			title := post.Metadata.Title()
			if title != "" {
				fmt.Printf("%s - %s\n", post.Slug, title)
			} else {
				fmt.Println(post.Slug)
			}
		}
	},
}

func hasKeyword(post core.Post, keyword string) bool {
	for _, k := range post.Metadata.Keywords() {
		if k == keyword {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&filterCategory, "category", "", "Filter posts by category")
	listCmd.Flags().StringVar(&filterKeyword, "keyword", "", "Filter posts by keyword")
}
