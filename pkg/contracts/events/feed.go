package events

// FeedMessage é o envelope emitido pelo WebSocket do fornecedor: snapshots
// durante o jogo e um result no encerramento.
type FeedMessage struct {
	Type     string         `json:"type"` // "snapshot" | "result"
	Snapshot *MatchSnapshot `json:"snapshot,omitempty"`
	Result   *MatchResult   `json:"result,omitempty"`
}

const (
	FeedTypeSnapshot = "snapshot"
	FeedTypeResult   = "result"
)
