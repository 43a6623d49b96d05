package dialog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Step names the field a dialog expects next.
type Step int

const (
	StepDate Step = iota + 1
	StepAmount
	StepCategory
	StepWallet
	StepNote
)

func (s Step) String() string {
	switch s {
	case StepDate:
		return "date"
	case StepAmount:
		return "amount"
	case StepCategory:
		return "category"
	case StepWallet:
		return "wallet"
	case StepNote:
		return "note"
	default:
		return "unknown"
	}
}

// State is one step of the dialog together with the fields collected so far.
// Each variant carries exactly the fields known at that step.
type State interface {
	Step() Step
}

// AwaitingDate is the initial state.
type AwaitingDate struct{}

// AwaitingAmount has a date.
type AwaitingAmount struct {
	Date string
}

// AwaitingCategory has a date and amount.
type AwaitingCategory struct {
	Date   string
	Amount decimal.Decimal
}

// AwaitingWallet has a date, amount and category.
type AwaitingWallet struct {
	Date     string
	Amount   decimal.Decimal
	Category string
}

// AwaitingNote has everything but the note.
type AwaitingNote struct {
	Date     string
	Amount   decimal.Decimal
	Category string
	Wallet   string
}

func (AwaitingDate) Step() Step     { return StepDate }
func (AwaitingAmount) Step() Step   { return StepAmount }
func (AwaitingCategory) Step() Step { return StepCategory }
func (AwaitingWallet) Step() Step   { return StepWallet }
func (AwaitingNote) Step() Step     { return StepNote }

// Session is a user's uncommitted dialog. Categories and Wallets are the
// snapshots taken when the dialog started; they are not refreshed mid-dialog.
type Session struct {
	ID         uuid.UUID
	State      State
	Categories []string
	Wallets    []string
	StartedAt  time.Time
}
