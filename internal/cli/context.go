package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context [query]",
		Short: "Build the memory context block for a prompt",
		Long:  "Print profile entries and recalled memories formatted for prompt injection, truncated to the memory share of the token budget. Prints nothing when there is no memory.",
		Run:   runContext,
	}

	cmd.Flags().StringP("workspace", "w", "", "Workspace")
	cmd.Flags().IntP("tokens", "b", 0, "Total context window in tokens (default from config)")

	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")
	tokens, _ := cmd.Flags().GetInt("tokens")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	out, ok := newService(s).BuildMemoryContext(cmd.Context(), memory.ContextParams{
		Query:       strings.Join(args, " "),
		Workspace:   workspace,
		TotalTokens: tokens,
	})
	if !ok {
		return
	}
	fmt.Println(out)
}
