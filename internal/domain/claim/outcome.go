package claim

import "github.com/cardcaptor-bot/cardcaptor/internal/domain/cards"

type Outcome int

const (
	Success Outcome = iota
	AlreadyClaimed
	UserAlreadyOwns
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AlreadyClaimed:
		return "already_claimed"
	case UserAlreadyOwns:
		return "user_owns"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	// Record is set only on Success.
	Record *cards.OwnershipRecord
	Unit   cards.SpawnedUnit
}
