package ingest

import "time"

type Kind uint8

const (
	KindMessage Kind = iota
	KindReactionGiven
	KindReactionReceived
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindReactionGiven:
		return "reaction_given"
	case KindReactionReceived:
		return "reaction_received"
	default:
		return "unknown"
	}
}

// Event is one accepted, already-filtered XP event waiting for the accrual
// worker.
type Event struct {
	Kind      Kind
	UserID    string
	GuildID   string
	Timestamp time.Time
}
