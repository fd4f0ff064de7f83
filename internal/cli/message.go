package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/memory-engine/internal/extract"
	"github.com/rcliao/memory-engine/internal/model"
	"github.com/rcliao/memory-engine/internal/store"
)

func init() {
	msgCmd := &cobra.Command{
		Use:   "message [content]",
		Short: "Append a message to a conversation transcript",
		Long:  "Record a conversation message for later session extraction. The conversation is created on first use.",
		Run:   runMessage,
	}
	msgCmd.Flags().String("conversation", "", "Conversation id (required)")
	msgCmd.Flags().String("name", "", "Conversation name")
	msgCmd.Flags().StringP("workspace", "w", "", "Conversation workspace")
	msgCmd.Flags().String("role", "user", "Role: user or assistant")
	msgCmd.MarkFlagRequired("conversation")
	RootCmd.AddCommand(msgCmd)

	extractCmd := &cobra.Command{
		Use:   "extract <conversation-id>",
		Short: "Extract session memories from a conversation",
		Long:  "Summarize the recent window of a conversation with an OpenAI-compatible model and store the summary, decisions, lessons and preferences.",
		Args:  cobra.ExactArgs(1),
		Run:   runExtract,
	}
	RootCmd.AddCommand(extractCmd)
}

func runMessage(cmd *cobra.Command, args []string) {
	convID, _ := cmd.Flags().GetString("conversation")
	name, _ := cmd.Flags().GetString("name")
	workspace, _ := cmd.Flags().GetString("workspace")
	role, _ := cmd.Flags().GetString("role")

	position := model.PositionLeft
	switch role {
	case "user":
		position = model.PositionRight
	case "assistant":
	default:
		exitErr("message", fmt.Errorf("unknown role %q", role))
	}

	content := readContent(args)
	if strings.TrimSpace(content) == "" {
		exitErr("message", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	conv, err := s.GetConversation(ctx, convID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		conv = &model.Conversation{ID: convID}
	case err != nil:
		exitErr("get conversation", err)
	}
	if conv.CreatedAt.IsZero() || name != "" || workspace != "" {
		if name != "" {
			conv.Name = name
		}
		if workspace != "" {
			conv.Workspace = workspace
		}
		if err := s.UpsertConversation(ctx, *conv); err != nil {
			exitErr("save conversation", err)
		}
	}

	msg, err := s.AddMessage(ctx, model.Message{
		ConversationID: convID,
		Position:       position,
		Content:        content,
	})
	if err != nil {
		exitErr("add message", err)
	}
	printJSON(msg)
}

func runExtract(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ex, err := extract.NewOpenAIExtractor(cfg.APIKey(), cfg.Extraction.BaseURL, cfg.Extraction.Model)
	if err != nil {
		exitErr("extractor", fmt.Errorf("%w (set $%s)", err, cfg.Extraction.APIKeyEnv))
	}

	se := extract.NewSessionExtractor(newService(s), s, ex, extract.Options{
		Timeout:       cfg.Extraction.Timeout,
		MessageWindow: cfg.Extraction.MessageWindow,
	})
	outcome := se.ExtractSessionMemories(cmd.Context(), args[0])
	printJSON(map[string]string{"conversation": args[0], "outcome": string(outcome)})
}
