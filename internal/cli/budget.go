package cli

import (
	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/budget"
)

func init() {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Show how a context window is divided",
		Long:  "Run the budget allocator: constitution first, then skills, then the memory share, with the rest left for conversation. Unset flags use the config.",
		Run:   runBudget,
	}

	cmd.Flags().Int("total", 0, "Total tokens")
	cmd.Flags().Int("constitution", 0, "Constitution tokens")
	cmd.Flags().Int("skills", 0, "Skills token cap")
	cmd.Flags().Float64("memory-percent", 0, "Memory share of the total, 0-1")

	RootCmd.AddCommand(cmd)
}

func runBudget(cmd *cobra.Command, args []string) {
	bc := cfg.Budget
	if cmd.Flags().Changed("total") {
		bc.TotalTokens, _ = cmd.Flags().GetInt("total")
	}
	if cmd.Flags().Changed("constitution") {
		bc.ConstitutionTokens, _ = cmd.Flags().GetInt("constitution")
	}
	if cmd.Flags().Changed("skills") {
		bc.SkillsMaxTokens, _ = cmd.Flags().GetInt("skills")
	}
	if cmd.Flags().Changed("memory-percent") {
		bc.MemoryMaxPercent, _ = cmd.Flags().GetFloat64("memory-percent")
	}

	printJSON(struct {
		Config     budget.Config     `json:"config"`
		Allocation budget.Allocation `json:"allocation"`
	}{bc, budget.Allocate(bc)})
}
