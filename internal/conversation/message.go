package conversation

// Role is the persisted role of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation's log. It is a closed set of value
// types: UserMessage, ChatMessage and DebateMessage. Values are never mutated
// in place; updaters return a new value.
type Message interface {
	// MessageID is the local stable identifier. It is assigned by the Store
	// and never persisted.
	MessageID() string
	Role() Role

	withID(id string) Message
}

// UserMessage is the user's prompt or debate topic.
type UserMessage struct {
	ID      string
	Content string
}

func (m UserMessage) MessageID() string { return m.ID }
func (m UserMessage) Role() Role        { return RoleUser }

func (m UserMessage) withID(id string) Message {
	m.ID = id
	return m
}

// StageLoading tracks which council stage is currently running.
type StageLoading struct {
	Stage1 bool `json:"stage1"`
	Stage2 bool `json:"stage2"`
	Stage3 bool `json:"stage3"`
}

// Any reports whether any stage is loading.
func (l StageLoading) Any() bool {
	return l.Stage1 || l.Stage2 || l.Stage3
}

// ChatMessage is the council's answer. Nil fields are stages that have not
// completed.
type ChatMessage struct {
	ID       string
	Stage1   []Stage1Result
	Stage2   []Stage2Result
	Stage3   *Stage3Result
	Metadata *RankingMetadata
	Loading  StageLoading
}

func (m ChatMessage) MessageID() string { return m.ID }
func (m ChatMessage) Role() Role        { return RoleAssistant }

func (m ChatMessage) withID(id string) Message {
	m.ID = id
	return m
}

// CompletedStages counts the stages whose results are present.
func (m ChatMessage) CompletedStages() int {
	n := 0
	if m.Stage1 != nil {
		n++
	}
	if m.Stage2 != nil {
		n++
	}
	if m.Stage3 != nil {
		n++
	}
	return n
}

// DebateMessage is the persisted outcome of a debate.
type DebateMessage struct {
	ID       string
	Openings []Statement
	Rounds   [][]Statement
	Verdict  *Verdict
}

func (m DebateMessage) MessageID() string { return m.ID }
func (m DebateMessage) Role() Role        { return RoleAssistant }

func (m DebateMessage) withID(id string) Message {
	m.ID = id
	return m
}

// Side is the position a debater argues.
type Side string

const (
	SideFor     Side = "for"
	SideAgainst Side = "against"
)

// Statement is one debater's contribution to an opening or a round.
type Statement struct {
	Persona   string `json:"persona"`
	PersonaID string `json:"persona_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Side      Side   `json:"side"`
	Model     string `json:"model,omitempty"`
	Content   string `json:"content"`
	Icon      string `json:"icon,omitempty"`
}

// Verdict is the moderator's closing evaluation.
type Verdict struct {
	Moderator string `json:"moderator"`
	Model     string `json:"model,omitempty"`
	Content   string `json:"content"`
}

// Stage1Result is one council member's individual response.
type Stage1Result struct {
	Name        string `json:"name"`
	Model       string `json:"model,omitempty"`
	Personality string `json:"personality,omitempty"`
	Response    string `json:"response"`
}

// Stage2Result is one council member's ranking of the anonymized responses.
type Stage2Result struct {
	Name          string   `json:"name"`
	Model         string   `json:"model,omitempty"`
	Personality   string   `json:"personality,omitempty"`
	Ranking       string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking"`
}

// Stage3Result is the chairman's synthesis.
type Stage3Result struct {
	Name        string `json:"name,omitempty"`
	Model       string `json:"model,omitempty"`
	Personality string `json:"personality,omitempty"`
	Response    string `json:"response"`
}

// LabelInfo identifies the member behind an anonymized label ("Response A").
type LabelInfo struct {
	Name        string `json:"name"`
	Model       string `json:"model"`
	Personality string `json:"personality,omitempty"`
}

// AggregateRanking is a member's average position across all peer rankings.
type AggregateRanking struct {
	Name          string  `json:"name"`
	Model         string  `json:"model"`
	Personality   string  `json:"personality,omitempty"`
	AverageRank   float64 `json:"average_rank"`
	RankingsCount int     `json:"rankings_count"`
}

// RankingMetadata accompanies stage 2.
type RankingMetadata struct {
	LabelToModel      map[string]LabelInfo `json:"label_to_model"`
	AggregateRankings []AggregateRanking   `json:"aggregate_rankings"`
}
