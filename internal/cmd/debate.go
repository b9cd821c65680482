package cmd

import (
	"fmt"

	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/render"
	"github.com/0fflineDocs/Cipher/internal/selection"
	"github.com/spf13/cobra"
)

var debateCmd = &cobra.Command{
	Use:   "debate <topic>",
	Short: "Stage a debate between two personas",
	Long: `Start a debate on a topic in a new conversation. Two debaters give
opening statements and then trade rebuttals for the configured number of
rounds. If a moderator is set, the debate ends with a verdict.

Debaters are chosen by id and must be in the backend's catalog; run
'cipher personas --debate' to list them.`,
	Example: `  cipher debate "Passwords should be abolished" --for hawk --against dove --rounds 2`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDebate,
}

var (
	debateFor       string
	debateAgainst   string
	debateModerator string
	debateRounds    int
)

func init() {
	rootCmd.AddCommand(debateCmd)
	debateCmd.Flags().StringVar(&debateFor, "for", "", "debater arguing for the topic (persona id)")
	debateCmd.Flags().StringVar(&debateAgainst, "against", "", "debater arguing against the topic (persona id)")
	debateCmd.Flags().StringVar(&debateModerator, "moderator", "", "moderator giving the verdict (default from config)")
	debateCmd.Flags().IntVarP(&debateRounds, "rounds", "r", 0, "rebuttal rounds (default from config)")
	_ = debateCmd.MarkFlagRequired("for")
	_ = debateCmd.MarkFlagRequired("against")
}

func runDebate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg, err := debateConfig(a, cmd)
	if err != nil {
		return err
	}
	topic := args[0]

	ctx, cancel := interruptContext(cmd)
	defer cancel()

	catalog, err := a.client.DebatePersonas(ctx)
	if err != nil {
		return err
	}
	if err := catalog.Check(cfg); err != nil {
		return err
	}

	conversationID, err := a.openConversation(ctx, "")
	if err != nil {
		return err
	}

	debate := pipeline.NewDebateController(a.client, a.syncer, a.controllerOptions()...)
	detach := render.NewLive(a.printer, a.store, debate).Attach(a.bus)
	defer detach()

	a.printer.DebateProgress(pipeline.DebateState{Topic: topic})
	a.printer.Rule()
	err = debate.Send(ctx, conversationID, topic, cfg)
	debate.Discard()
	if err != nil {
		return a.fail(err)
	}
	a.printer.Rule()
	a.printer.Success("Conversation %s", conversationID)
	return nil
}

// debateConfig builds the debate setup from flags and config defaults.
func debateConfig(a *app, cmd *cobra.Command) (selection.DebateConfig, error) {
	d := selection.NewDebate()
	if err := d.SetFor(debateFor); err != nil {
		return selection.DebateConfig{}, err
	}
	if err := d.SetAgainst(debateAgainst); err != nil {
		return selection.DebateConfig{}, err
	}

	moderator := a.cfg.Debate.Moderator
	if cmd.Flags().Changed("moderator") {
		moderator = debateModerator
	}
	d.SetModerator(moderator)

	rounds := a.cfg.Debate.NumRounds
	if cmd.Flags().Changed("rounds") {
		rounds = debateRounds
	}
	if rounds > a.cfg.Debate.MaxRounds {
		return selection.DebateConfig{}, errors.NewValidationError(
			fmt.Sprintf("rounds must be at most %d", a.cfg.Debate.MaxRounds)).
			WithField("num_rounds").WithValue(rounds).WithCause(errors.ErrInvalidRounds)
	}
	if err := d.SetRounds(rounds); err != nil {
		return selection.DebateConfig{}, err
	}

	if !d.Ready() {
		return selection.DebateConfig{}, errors.NewValidationError("both debaters are required").WithField("debaters")
	}
	return d.Config(), nil
}
