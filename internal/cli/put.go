package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/memory"
	"github.com/rcliao/memory-engine/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "put [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin. It is redacted and chunked before storage.",
		Run:   runPut,
	}

	cmd.Flags().StringP("workspace", "w", "", "Workspace (default: global)")
	cmd.Flags().String("type", string(model.TypeFact), "Type: fact, decision, lesson, session_summary, correction")
	cmd.Flags().String("source", string(model.SourceUser), "Source: user or auto")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().IntP("importance", "i", model.ImportanceUserFact, "Importance 1-9")
	cmd.Flags().String("conversation", "", "Originating conversation id")

	RootCmd.AddCommand(cmd)

	correct := &cobra.Command{
		Use:   "correct [content]",
		Short: "Store a user correction",
		Long:  "Store a correction at the highest importance so it outranks ordinary facts at recall.",
		Run:   runCorrect,
	}
	correct.Flags().StringP("workspace", "w", "", "Workspace (default: global)")
	correct.Flags().String("conversation", "", "Originating conversation id")

	RootCmd.AddCommand(correct)
}

func runPut(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")
	typ, _ := cmd.Flags().GetString("type")
	source, _ := cmd.Flags().GetString("source")
	tagsStr, _ := cmd.Flags().GetString("tags")
	importance, _ := cmd.Flags().GetInt("importance")
	conversation, _ := cmd.Flags().GetString("conversation")

	content := readContent(args)
	if strings.TrimSpace(content) == "" {
		exitErr("put", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ids := newService(s).StoreMemory(cmd.Context(), memory.StoreParams{
		Content:        content,
		Type:           model.MemoryType(typ),
		Workspace:      workspace,
		ConversationID: conversation,
		Source:         model.Source(source),
		Tags:           splitList(tagsStr),
		Importance:     importance,
	})
	printJSON(map[string]interface{}{"ids": nonNil(ids)})
}

func runCorrect(cmd *cobra.Command, args []string) {
	workspace, _ := cmd.Flags().GetString("workspace")
	conversation, _ := cmd.Flags().GetString("conversation")

	content := readContent(args)
	if strings.TrimSpace(content) == "" {
		exitErr("correct", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ids := newService(s).StoreCorrection(cmd.Context(), memory.CorrectionParams{
		Content:        content,
		Workspace:      workspace,
		ConversationID: conversation,
	})
	printJSON(map[string]interface{}{"ids": nonNil(ids)})
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
