package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shayne-snap/llmroof/internal/fetch"
	"github.com/shayne-snap/llmroof/internal/models"
)

// DefaultListURL is the URL for update-list (canonical list: data/models.json).
const DefaultListURL = "https://raw.githubusercontent.com/shayne-snap/llmroof/main/data/models.json"

var updateListURL string

var updateListCmd = &cobra.Command{
	Use:   "update-list",
	Short: "Download the latest model list and save to user cache",
	Long:  "Fetches the curated model list from the project URL and writes it to the user cache. Does not require reinstall.",
	Args:  cobra.NoArgs,
	RunE:  runUpdateList,
}

func init() {
	updateListCmd.Flags().StringVar(&updateListURL, "url", DefaultListURL, "Model list URL")
}

func runUpdateList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	body, err := fetch.FetchModelList(ctx, updateListURL)
	if err != nil {
		return fmt.Errorf("update-list: %w", err)
	}
	entries, err := models.ParseModelList(body)
	if err != nil {
		return fmt.Errorf("could not update list: invalid JSON from server: %w", err)
	}
	if err := models.WriteCacheFile(body); err != nil {
		return fmt.Errorf("could not write cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated model list (%d models) in user cache.\n", len(entries))
	return nil
}
