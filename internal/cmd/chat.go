package cmd

import (
	"fmt"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/render"
	"github.com/0fflineDocs/Cipher/internal/selection"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [conversation-id] <message>",
	Short: "Ask the council a question",
	Long: `Send a message to the council and follow the three stages as they
stream in: individual responses, anonymous peer rankings and the chairman's
final answer.

The council comes from the config file unless --preset or --member is given.
Use --new to start a fresh conversation instead of naming one.`,
	Example: `  cipher chat --new "How should we respond to a ransomware incident?"
  cipher chat 3f2a... "And what about backups?" --member "Security Architect" --member "Strategic Advisory"`,
	Args: chatArgs,
	RunE: runChat,
}

var (
	chatNew      bool
	chatMembers  []string
	chatChairman string
	chatPreset   string
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "start a new conversation")
	chatCmd.Flags().StringArrayVarP(&chatMembers, "member", "m", nil, "council member (repeatable)")
	chatCmd.Flags().StringVar(&chatChairman, "chairman", "", "chairman persona")
	chatCmd.Flags().StringVarP(&chatPreset, "preset", "p", "", "load the council from a saved preset")
}

func chatArgs(cmd *cobra.Command, args []string) error {
	if chatNew {
		return cobra.ExactArgs(1)(cmd, args)
	}
	if len(args) != 2 {
		return fmt.Errorf("requires a conversation id and a message, or --new and a message")
	}
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := applyCouncilFlags(a, chatPreset, chatMembers, chatChairman); err != nil {
		return err
	}

	var conversationID, message string
	if chatNew {
		message = args[0]
	} else {
		conversationID, message = args[0], args[1]
	}

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	conversationID, err = a.openConversation(ctx, conversationID)
	if err != nil {
		return err
	}

	chat := pipeline.NewChatController(a.client, a.syncer, a.controllerOptions()...)
	detach := render.NewLive(a.printer, a.store, nil).Attach(a.bus)
	defer detach()

	a.printer.Message(conversation.UserMessage{Content: message})
	a.printer.Rule()
	if err := chat.Send(ctx, conversationID, message, a.council.Members(), a.council.Chairman()); err != nil {
		return a.fail(err)
	}
	a.printer.Rule()
	a.printer.Success("Conversation %s", conversationID)
	return nil
}

// applyCouncilFlags adjusts the configured council: a preset replaces it,
// then explicit members and chairman override.
func applyCouncilFlags(a *app, preset string, members []string, chairman string) error {
	if preset != "" {
		p, err := a.presets.Load(preset)
		if err != nil {
			return fmt.Errorf("load preset %s: %w", preset, err)
		}
		if err := p.Apply(a.council); err != nil {
			return fmt.Errorf("apply preset %s: %w", preset, err)
		}
	}
	if len(members) > 0 {
		if err := a.council.Set(members, ""); err != nil {
			return err
		}
	}
	if chairman != "" {
		a.council.SetChairman(chairman)
	}
	return nil
}

// councilSummary is one line describing the council selection.
func councilSummary(c *selection.Council) string {
	return fmt.Sprintf("%d members, chaired by %s", len(c.Members()), c.Chairman())
}
