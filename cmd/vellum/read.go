package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	readJSON bool
	readMeta bool
)

var readCmd = &cobra.Command{
	Use:   "read [slug]",
	Short: "Read a post",
	Long: `Read a post by its slug. Outputs the raw body by default, the whole
post as JSON with --json, or just the front-matter as JSON with --meta.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slug := args[0]

		service, _, _, err := openService()
		if err != nil {
			fatal("Failed to open site", err)
		}

		post, err := service.GetPost(context.Background(), slug)
		if err != nil {
			fatal("Failed to read post", err)
		}

		switch {
		case readJSON:
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(post); err != nil {
				fatal("Failed to encode JSON", err)
			}
		case readMeta:
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(post.Metadata); err != nil {
				fatal("Failed to encode JSON", err)
			}
		default:
			fmt.Print(post.Body)
		}
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output the whole post as JSON")
	readCmd.Flags().BoolVar(&readMeta, "meta", false, "Output only the front-matter as JSON")
	readCmd.MarkFlagsMutuallyExclusive("json", "meta")
}
