package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/pkg/core"
)

var (
	writeBody    string
	writeFile    string
	writeTitle   string
	changeReason string
	writeType    string
	writeScope   string
)

// writeCmd represents the write command
var writeCmd = &cobra.Command{
	Use:   "write [slug]",
	Short: "Create or update a post",
	Long: `Create or update a post with the given slug. The body comes from
--body, or from --file ('-' reads stdin). Updating keeps the existing
front-matter unless overridden.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		slug := args[0]

		body, err := resolveBody()
		if err != nil {
			fatal("Failed to read body", err)
		}

		service, _, _, err := openService()
		if err != nil {
			fatal("Failed to open site", err)
		}

		ctx := context.Background()

		// Updating keeps the existing front-matter.
		meta := core.Metadata{}
		if existing, err := service.GetPost(ctx, slug); err == nil {
			meta = existing.Metadata
		} else if !errors.Is(err, core.ErrNotFound) {
			fatal("Failed to read existing post", err)
		}
		if writeTitle != "" {
			meta["title"] = writeTitle
		}

		var finalMsg string
		if writeType != "" {
			if changeReason == "" {
				changeReason = fmt.Sprintf("update %s", slug)
			}
			finalMsg = vellum.FormatChangeReason(writeType, writeScope, changeReason, "")
		} else if changeReason != "" {
			finalMsg = vellum.AppendFooter(changeReason)
		} else {
			scope := "posts"
			if writeScope != "" {
				scope = writeScope
			}
			finalMsg = vellum.FormatChangeReason(vellum.CommitTypeDocs, scope, fmt.Sprintf("update %s", slug), "")
		}

		// The commit message travels via context (adapter contract).
		ctx = context.WithValue(ctx, core.ChangeReasonKey, finalMsg)

		if err := service.SavePost(ctx, slug, body, meta); err != nil {
			fatal("Failed to save post", err)
		}

		fmt.Printf("Post '%s' saved.\n", slug)
	},
}

func resolveBody() (string, error) {
	if writeFile == "" {
		return writeBody, nil
	}
	if writeFile == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := os.ReadFile(writeFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringVar(&writeBody, "body", "", "Post body")
	writeCmd.Flags().StringVar(&writeFile, "file", "", "Read the body from a file ('-' for stdin)")
	writeCmd.Flags().StringVar(&writeTitle, "title", "", "Post title")
	writeCmd.Flags().StringVarP(&changeReason, "message", "m", "", "Change reason (audit note)")
	writeCmd.Flags().StringVarP(&writeType, "type", "t", "", "Change type (feat, fix, etc)")
	writeCmd.Flags().StringVarP(&writeScope, "scope", "s", "", "Commit scope")
	writeCmd.MarkFlagsMutuallyExclusive("body", "file")
}
