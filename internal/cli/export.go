package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export memories as JSON",
		Run:   runExport,
	}

	cmd.Flags().StringP("workspace", "w", "", "Export only this workspace (default: everything)")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	chunks, err := s.ExportChunks(cmd.Context(), workspace)
	if err != nil {
		exitErr("export", err)
	}
	if chunks == nil {
		chunks = []model.MemoryChunk{}
	}
	printJSON(chunks)
}
