package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories by importance and recency",
		Long:  "List stored memories without marking them as accessed.",
		Run:   runList,
	}

	cmd.Flags().StringP("workspace", "w", "", "Workspace (global memories are always included)")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	chunks, err := s.GetMemoriesByWorkspace(cmd.Context(), workspace, limit)
	if err != nil {
		exitErr("list", err)
	}
	if chunks == nil {
		chunks = []model.MemoryChunk{}
	}
	printJSON(chunks)
}
