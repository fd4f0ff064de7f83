package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Learned user preferences",
	}

	setCmd := &cobra.Command{
		Use:   "set <category> <key> <value>",
		Short: "Learn a preference (overwrites an existing category/key)",
		Args:  cobra.ExactArgs(3),
		Run:   runProfileSet,
	}
	setCmd.Flags().Float64("confidence", 0.5, "Confidence 0-1")

	getCmd := &cobra.Command{
		Use:   "get <category> <key>",
		Short: "Show one preference value",
		Args:  cobra.ExactArgs(2),
		Run:   runProfileGet,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all preferences grouped by category",
		Run:   runProfileList,
	}

	profileCmd.AddCommand(setCmd, getCmd, listCmd)
	RootCmd.AddCommand(profileCmd)
}

func runProfileSet(cmd *cobra.Command, args []string) {
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err := newService(s).LearnPreference(cmd.Context(), args[0], args[1], args[2], confidence); err != nil {
		exitErr("profile set", err)
	}
	fmt.Println(`{"ok":true}`)
}

func runProfileGet(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	value, ok := newService(s).GetProfileValue(cmd.Context(), args[0], args[1])
	if !ok {
		exitErr("profile get", fmt.Errorf("%s/%s not found", args[0], args[1]))
	}
	printJSON(map[string]string{"category": args[0], "key": args[1], "value": value})
}

func runProfileList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	groups := newService(s).GetFormattedProfile(cmd.Context())
	if groups == nil {
		fmt.Println("[]")
		return
	}
	printJSON(groups)
}
