package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/memory"
	"github.com/rcliao/memory-engine/internal/model"
)

func init() {
	recall := &cobra.Command{
		Use:   "recall [query]",
		Short: "Recall memories by keyword and recency",
		Long:  "Keyword matches come first, then the most important recent memories fill the remaining slots. Recalled memories are marked as accessed.",
		Run:   runRecall,
	}
	recall.Flags().StringP("workspace", "w", "", "Workspace (global memories are always included)")
	recall.Flags().String("types", "", "Comma-separated memory types to keep")
	recall.Flags().IntP("limit", "l", 0, "Max results (default from config)")
	RootCmd.AddCommand(recall)
}

func runRecall(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")
	typesStr, _ := cmd.Flags().GetString("types")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit == 0 {
		limit = cfg.Recall.Limit
	}

	var types []model.MemoryType
	for _, t := range splitList(typesStr) {
		types = append(types, model.MemoryType(t))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	chunks := newService(s).RecallMemories(cmd.Context(), memory.RecallParams{
		Query:     strings.Join(args, " "),
		Workspace: workspace,
		Types:     types,
		Limit:     limit,
	})
	if chunks == nil {
		chunks = []model.MemoryChunk{}
	}
	printJSON(chunks)
}
