package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/memory"
	"github.com/rcliao/memory-engine/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory and database statistics",
		Run:   runStats,
	}
	cmd.Flags().StringP("workspace", "w", "", "Workspace for the project count")
	RootCmd.AddCommand(cmd)

	wsCmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces with memory counts",
		Run:   runWorkspaces,
	}
	RootCmd.AddCommand(wsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	info, err := s.Info(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	printJSON(struct {
		Memory   memory.Stats `json:"memory"`
		Database *store.Info  `json:"database"`
	}{
		Memory:   newService(s).GetMemoryStats(cmd.Context(), workspace),
		Database: info,
	})
}

func runWorkspaces(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	rows, err := s.ListWorkspaces(cmd.Context())
	if err != nil {
		exitErr("list workspaces", err)
	}
	if rows == nil {
		rows = []store.WorkspaceStats{}
	}
	printJSON(rows)
}
