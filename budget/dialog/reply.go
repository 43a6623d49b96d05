package dialog

// Keyboard tells the transport what to do with the reply keyboard.
type Keyboard int

const (
	// KeyboardKeep leaves whatever keyboard is shown.
	KeyboardKeep Keyboard = iota
	// KeyboardOptions shows Reply.Options as quick-choice buttons plus a cancel button.
	KeyboardOptions
	// KeyboardRemove hides the keyboard.
	KeyboardRemove
	// KeyboardMenu shows the main menu.
	KeyboardMenu
)

// Reply is one outbound message.
type Reply struct {
	Text     string
	Keyboard Keyboard
	Options  []string
}

// Cancellation signals recognized at every step.
const (
	CancelCommand = "/cancel"
	CancelLabel   = "❌ Cancel"
)

// User-facing texts.
const (
	TextStarting        = "Starting a new transaction..."
	TextAskDate         = "Enter the date (DD.MM.YYYY):"
	TextBadDate         = "Invalid date, try again (DD.MM.YYYY)."
	TextAskAmount       = "Enter the amount:"
	TextBadAmount       = "Invalid amount, try again (e.g. 123.45)."
	TextAskCategory     = "Choose a category:"
	TextBadCategory     = "Please choose a category from the list."
	TextAskWallet       = "Choose a wallet:"
	TextBadWallet       = "Please choose a wallet from the list."
	TextAskNote         = "Enter a note (or send '-' for none):"
	TextSaved           = "✅ Transaction added to the sheet!"
	TextSaveFailed      = "❌ Failed to add the transaction. Please start again with /add."
	TextStartFailed     = "❌ Could not load categories and wallets. Try again later."
	TextNothingToChoose = "❌ The sheet has no categories or wallets to choose from."
	TextCancelled       = "❌ Operation cancelled."
	TextWhatNext        = "What's next?"
)

// EmptyNote is the note input that stands for "no note".
const EmptyNote = "-"

func say(text string) Reply { return Reply{Text: text} }

func menu(text string) Reply { return Reply{Text: text, Keyboard: KeyboardMenu} }

func choose(text string, options []string) Reply {
	return Reply{Text: text, Keyboard: KeyboardOptions, Options: options}
}
