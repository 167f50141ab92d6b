package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [slug]",
	Short: "Delete a post from the site",
	Long:  `Delete permanently removes a post and commits the deletion to git.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slug := args[0]

		service, _, _, err := openService()
		if err != nil {
			fatal("Failed to open site", err)
		}

		if err := service.DeletePost(context.Background(), slug); err != nil {
			fatal("Failed to delete post", err)
		}

		fmt.Printf("Post deleted: %s\n", slug)
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
