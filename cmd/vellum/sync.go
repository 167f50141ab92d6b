package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellumkit/vellum"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the site with its remote",
	Long: `Synchronize the local site with the configured remote repository.
It integrates remote changes and pushes local changes.`,
	Run: func(cmd *cobra.Command, args []string) {
		root, manifest, err := resolveSite()
		if err != nil {
			fatal("Failed to open site", err)
		}

		fmt.Println("Syncing...")
		if err := vellum.Sync(contentDir(root, manifest),
			vellum.WithLogger(slog.Default()),
		); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Sync failed: %v\n", err)
			fmt.Println("Tip: Ensure you have a remote configured ('git remote add origin <url>') and you are online.")
			fmt.Println("If there are merge conflicts, you may need to resolve them manually in the repository.")
			os.Exit(1)
		}

		fmt.Println("Sync completed successfully.")
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
