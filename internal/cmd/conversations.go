package cmd

import (
	"github.com/spf13/cobra"
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"conv"},
	Short:   "List, create and show conversations",
	RunE:    runConversationsList,
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List conversations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runConversationsList,
}

var conversationsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty conversation",
	Args:  cobra.NoArgs,
	RunE:  runConversationsNew,
}

var conversationsShowCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show a conversation with all of its messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runConversationsShow,
}

func init() {
	rootCmd.AddCommand(conversationsCmd)
	conversationsCmd.AddCommand(conversationsListCmd)
	conversationsCmd.AddCommand(conversationsNewCmd)
	conversationsCmd.AddCommand(conversationsShowCmd)
}

func runConversationsList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.syncer.RefreshSummaries(cmd.Context()); err != nil {
		return err
	}
	a.printer.Summaries(a.store.Summaries(), "")
	return nil
}

func runConversationsNew(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.syncer.Create(cmd.Context())
	if err != nil {
		return err
	}
	a.printer.Success("Created conversation %s", sum.ID)
	return nil
}

func runConversationsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.syncer.Open(cmd.Context(), args[0]); err != nil {
		return err
	}
	conv, _ := a.store.Loaded()
	a.printer.Conversation(conv)
	return nil
}
