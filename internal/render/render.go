// Package render prints conversations, debate progress and catalogs to a
// terminal.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/errors"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/selection"
)

// ColorMode selects when output is colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

const (
	defaultWidth  = 100
	maxRuleWidth  = 72
	maxTitleWidth = 48
	minWrapWidth  = 20
	indent        = "  "
)

// Printer writes styled output to w.
type Printer struct {
	w     io.Writer
	s     styles
	width int
}

// New creates a Printer. In auto mode, color is used only when w is a
// terminal.
func New(w io.Writer, mode ColorMode) *Printer {
	r := lipgloss.NewRenderer(w)
	tty, width := terminal(w)
	switch mode {
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	case ColorAlways:
		r.SetColorProfile(termenv.TrueColor)
	default:
		if !tty {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	return &Printer{w: w, s: newStyles(r), width: width}
}

// terminal reports whether w is a terminal and its width.
func terminal(w io.Writer) (bool, int) {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, defaultWidth
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return true, width
	}
	return true, defaultWidth
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) line(depth int, text string) {
	p.printf("%s%s\n", strings.Repeat(indent, depth), text)
}

// block prints multi-line text indented to depth, word-wrapped to the
// terminal width.
func (p *Printer) block(depth int, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		p.line(depth, p.s.muted.Render("(empty)"))
		return
	}
	if limit := p.width - depth*len(indent); limit >= minWrapWidth {
		text = ansi.Wordwrap(text, limit, "")
	}
	for _, l := range strings.Split(text, "\n") {
		if l == "" {
			p.printf("\n")
			continue
		}
		p.line(depth, l)
	}
}

// Summaries prints the conversation list. loadedID is marked.
func (p *Printer) Summaries(list []conversation.Summary, loadedID string) {
	if len(list) == 0 {
		p.line(0, p.s.muted.Render("No conversations yet"))
		return
	}
	for _, s := range list {
		marker := "  "
		title := truncate(s.DisplayTitle(), maxTitleWidth)
		if s.ID == loadedID {
			marker = p.s.selected.Render("* ")
			title = p.s.selected.Render(title)
		}
		p.printf("%s%s %s\n", marker, title,
			p.s.muted.Render(fmt.Sprintf("(%d messages, %s) %s", s.MessageCount, s.CreatedAt, s.ID)))
	}
}

// truncate shortens s to width visible columns, keeping escape sequences
// intact.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "...")
}

// Conversation prints a whole conversation.
func (p *Printer) Conversation(conv conversation.Conversation) {
	title := conversation.UntitledLabel
	if conv.Title != nil && *conv.Title != "" {
		title = *conv.Title
	}
	p.line(0, p.s.title.Render(title))
	p.line(0, p.s.subtitle.Render(fmt.Sprintf("%s · %s", conv.ID, conv.CreatedAt)))
	if len(conv.Messages) == 0 {
		p.printf("\n")
		p.line(0, p.s.muted.Render("No messages yet"))
		return
	}
	for _, m := range conv.Messages {
		p.printf("\n")
		p.Message(m)
	}
}

// Message prints one message.
func (p *Printer) Message(m conversation.Message) {
	switch msg := m.(type) {
	case conversation.UserMessage:
		p.line(0, p.s.user.Render("You"))
		p.block(1, msg.Content)
	case conversation.ChatMessage:
		p.line(0, p.s.assistant.Render("Council"))
		p.Stage1(msg)
		p.Stage2(msg)
		p.Stage3(msg)
	case conversation.DebateMessage:
		p.line(0, p.s.assistant.Render("Debate"))
		p.Openings(msg.Openings)
		for i, round := range msg.Rounds {
			p.Round(i+1, round)
		}
		if msg.Verdict != nil {
			p.Verdict(*msg.Verdict)
		}
	}
}

func (p *Printer) stageHeading(n int, label string, loading bool) {
	heading := p.s.heading.Render(fmt.Sprintf("Stage %d · %s", n, label))
	if loading {
		heading += " " + p.s.warning.Render("running...")
	}
	p.line(1, heading)
}

// Stage1 prints the individual responses, or a loading marker.
func (p *Printer) Stage1(m conversation.ChatMessage) {
	if m.Stage1 == nil {
		if m.Loading.Stage1 {
			p.stageHeading(1, "Individual responses", true)
		}
		return
	}
	p.stageHeading(1, "Individual responses", false)
	for _, r := range m.Stage1 {
		p.line(2, p.persona(r.Name, r.Model))
		p.block(3, r.Response)
	}
}

// Stage2 prints the peer rankings with the aggregate table, or a loading
// marker.
func (p *Printer) Stage2(m conversation.ChatMessage) {
	if m.Stage2 == nil {
		if m.Loading.Stage2 {
			p.stageHeading(2, "Peer rankings", true)
		}
		return
	}
	p.stageHeading(2, "Peer rankings", false)
	if m.Metadata != nil && len(m.Metadata.AggregateRankings) > 0 {
		p.line(2, p.s.heading.Render("Aggregate ranking"))
		for i, a := range m.Metadata.AggregateRankings {
			p.line(3, fmt.Sprintf("%d. %s %s", i+1, p.persona(a.Name, a.Model),
				p.s.muted.Render(fmt.Sprintf("avg %.2f (%d votes)", a.AverageRank, a.RankingsCount))))
		}
	}
	for _, r := range m.Stage2 {
		p.line(2, p.persona(r.Name, r.Model))
		if len(r.ParsedRanking) > 0 {
			p.line(3, strings.Join(r.ParsedRanking, " > "))
		} else {
			p.block(3, r.Ranking)
		}
	}
}

// Stage3 prints the chairman's answer, or a loading marker.
func (p *Printer) Stage3(m conversation.ChatMessage) {
	if m.Stage3 == nil {
		if m.Loading.Stage3 {
			p.stageHeading(3, "Final answer", true)
		}
		return
	}
	label := "Final answer"
	if m.Stage3.Name != "" {
		label += " (" + m.Stage3.Name + ")"
	}
	p.stageHeading(3, label, false)
	p.block(2, m.Stage3.Response)
}

func (p *Printer) persona(name, model string) string {
	out := p.s.name.Render(name)
	if model != "" {
		out += " " + p.s.muted.Render("("+model+")")
	}
	return out
}

// Openings prints the opening statements.
func (p *Printer) Openings(statements []conversation.Statement) {
	if statements == nil {
		return
	}
	p.line(1, p.s.heading.Render("Opening statements"))
	p.statements(statements)
}

// Round prints one completed rebuttal round.
func (p *Printer) Round(n int, statements []conversation.Statement) {
	p.line(1, p.s.heading.Render(fmt.Sprintf("Round %d", n)))
	p.statements(statements)
}

// Verdict prints the moderator's verdict.
func (p *Printer) Verdict(v conversation.Verdict) {
	p.line(1, p.s.heading.Render("Verdict · "+v.Moderator))
	p.block(2, v.Content)
}

func (p *Printer) statements(statements []conversation.Statement) {
	for _, st := range statements {
		side := p.s.sideFor.Render("[FOR]")
		if st.Side == conversation.SideAgainst {
			side = p.s.against.Render("[AGAINST]")
		}
		who := p.s.name.Render(st.Persona)
		if st.Title != "" {
			who += " " + p.s.muted.Render(st.Title)
		}
		p.line(2, side+" "+who)
		p.block(3, st.Content)
	}
}

// DebateProgress prints the ephemeral state of a debate send.
func (p *Printer) DebateProgress(state pipeline.DebateState) {
	p.line(0, p.s.title.Render("Debate: "+state.Topic))
	p.Openings(state.Openings)
	for i, round := range state.Rounds {
		p.Round(i+1, round)
	}
	if state.Verdict != nil {
		p.Verdict(*state.Verdict)
	}
	if status := DebateStatus(state); status != "" {
		p.line(1, p.s.warning.Render(status))
	}
	if state.Err != "" {
		p.line(1, p.s.err.Render("Debate failed: "+state.Err))
	}
}

// DebateStatus describes the step a debate is waiting on, or "" when none.
func DebateStatus(state pipeline.DebateState) string {
	switch {
	case state.Phase == pipeline.PhaseOpenings && state.Openings == nil:
		return "Opening statements in progress..."
	case state.RoundInProgress():
		return fmt.Sprintf("Round %d in progress...", state.Round)
	case state.Phase == pipeline.PhaseVerdict && state.Verdict == nil:
		return "Verdict in progress..."
	}
	return ""
}

// Catalog prints the council personas by category and the chairmen.
func (p *Printer) Catalog(c selection.Catalog, council *selection.Council) {
	for _, category := range c.Categories() {
		p.line(0, p.s.title.Render(category))
		for _, persona := range c.Personas[category] {
			p.personaLine(persona.Name, persona, council != nil && council.Contains(persona.Name))
		}
	}
	p.line(0, p.s.title.Render("chairmen"))
	for _, persona := range c.Chairmen {
		p.personaLine(persona.Name, persona, council != nil && council.Chairman() == persona.Name)
	}
}

// DebateCatalog prints the debaters and moderators.
func (p *Printer) DebateCatalog(c selection.DebateCatalog) {
	p.line(0, p.s.title.Render("debaters"))
	for _, persona := range c.Debaters {
		p.personaLine(persona.ID, persona, false)
	}
	p.line(0, p.s.title.Render("moderators"))
	for _, persona := range c.Moderators {
		p.personaLine(persona.Name, persona, false)
	}
}

func (p *Printer) personaLine(key string, persona selection.Persona, selected bool) {
	marker := "  "
	if selected {
		marker = p.s.selected.Render("* ")
	}
	text := marker + p.s.name.Render(key)
	if key != persona.Name {
		text += " " + persona.Name
	}
	var details []string
	for _, d := range []string{persona.Title, persona.Style, persona.Model} {
		if d != "" {
			details = append(details, d)
		}
	}
	if len(details) > 0 {
		text += " " + p.s.muted.Render("("+strings.Join(details, ", ")+")")
	}
	if persona.Personality != "" {
		text += " " + p.s.subtitle.Render(persona.Personality)
	}
	p.line(1, text)
}

// Error prints err with what it means for the conversation.
func (p *Printer) Error(err error) {
	if err == nil {
		return
	}
	var streamErr *errors.StreamError
	switch {
	case errors.As(err, &streamErr):
		p.line(0, p.s.err.Render("Error: "+streamErr.Message))
		p.line(0, p.s.muted.Render(fmt.Sprintf("%d %s completed and kept", streamErr.CompletedStages, unitName(streamErr.Pipeline))))
	case errors.IsRollback(err):
		p.line(0, p.s.err.Render("Error: "+err.Error()))
		p.line(0, p.s.muted.Render("The message was not sent."))
	default:
		p.line(0, p.s.err.Render("Error: "+err.Error()))
	}
}

func unitName(pipelineName string) string {
	if pipelineName == pipeline.PipelineDebate {
		return "phase(s)"
	}
	return "stage(s)"
}

// Rule prints a horizontal separator.
func (p *Printer) Rule() {
	p.printf("%s\n", p.s.muted.Render(strings.Repeat("─", min(p.width, maxRuleWidth))))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.line(0, p.s.success.Render(fmt.Sprintf(format, args...)))
}
