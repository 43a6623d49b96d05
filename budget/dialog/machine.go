// Package dialog drives the add-transaction conversation: it collects a
// date, amount, category, wallet and note one message at a time and
// appends the finished record to the store exactly once.
package dialog

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/budgetbot/budget/model"
	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/core/telegram/state"
)

// Store is the spreadsheet as seen by the dialog.
type Store interface {
	Categories(ctx context.Context) ([]string, error)
	Wallets(ctx context.Context) ([]string, error)
	AppendTransaction(ctx context.Context, tx model.Transaction) error
}

// Options configures a Machine.
type Options struct {
	Store    Store
	Sessions *state.Store[Session]
	Now      func() time.Time
}

// Machine advances per-user dialogs. All access to one user's session is
// serialized through the session store.
type Machine struct {
	store    Store
	sessions *state.Store[Session]
	now      func() time.Time
}

// NewMachine constructs a Machine. A nil Sessions gets a store without eviction.
func NewMachine(opts Options) *Machine {
	m := &Machine{store: opts.Store, sessions: opts.Sessions, now: opts.Now}
	if m.sessions == nil {
		m.sessions = state.NewStore[Session](state.Options{})
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Active reports whether userID has a dialog in progress.
func (m *Machine) Active(userID int64) bool {
	return m.sessions.Has(userID)
}

// Session returns a copy of userID's session.
func (m *Machine) Session(userID int64) (Session, bool) {
	return m.sessions.Get(userID)
}

// Start fetches fresh category and wallet snapshots and begins a dialog,
// replacing any dialog already in progress. If either snapshot cannot be
// loaded or is empty, no dialog is started.
func (m *Machine) Start(ctx context.Context, userID int64) []Reply {
	start := time.Now()
	var categories, wallets []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = m.store.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		wallets, err = m.store.Wallets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		m.sessions.Delete(userID)
		logger.LogEvent(ctx, logger.Dialog, slog.LevelError, "dialog.start",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.Duration("duration", logger.Took(start)),
		)
		return []Reply{menu(TextStartFailed)}
	}
	if len(categories) == 0 || len(wallets) == 0 {
		m.sessions.Delete(userID)
		logger.LogEvent(ctx, logger.Dialog, slog.LevelWarn, "dialog.start",
			slog.String("status", "skip"),
			slog.Int("categories", len(categories)),
			slog.Int("wallets", len(wallets)),
		)
		return []Reply{menu(TextNothingToChoose)}
	}

	sess := Session{
		ID:         uuid.New(),
		State:      AwaitingDate{},
		Categories: categories,
		Wallets:    wallets,
		StartedAt:  m.now(),
	}
	replaced := false
	m.sessions.With(userID, func(tx *state.Tx[Session]) {
		_, replaced = tx.Get()
		tx.Set(sess)
	})

	logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "dialog.start",
		slog.String("status", "ok"),
		slog.String("dialog_id", sess.ID.String()),
		slog.Int("categories", len(categories)),
		slog.Int("wallets", len(wallets)),
		slog.Bool("replaced", replaced),
		slog.Duration("duration", logger.Took(start)),
	)
	return []Reply{
		{Text: TextStarting, Keyboard: KeyboardRemove},
		say(TextAskDate),
	}
}

// Handle feeds one inbound text to userID's dialog. Cancellation signals
// win over step parsing; other command-prefixed text and empty text are
// ignored, as is input from users without a dialog.
func (m *Machine) Handle(ctx context.Context, userID int64, text string) []Reply {
	text = strings.TrimSpace(text)
	if IsCancel(text) {
		return m.Cancel(ctx, userID)
	}
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	var out []Reply
	m.sessions.With(userID, func(tx *state.Tx[Session]) {
		sess, ok := tx.Get()
		if !ok {
			return
		}
		next, replies, record := advance(sess, text, m.now())
		if record == nil {
			from := sess.State.Step()
			sess.State = next
			tx.Set(sess)
			out = replies
			logger.LogEvent(ctx, logger.Dialog, slog.LevelDebug, "dialog.step",
				slog.String("dialog_id", sess.ID.String()),
				slog.String("from", from.String()),
				slog.String("to", next.Step().String()),
			)
			return
		}
		// The session ends here whether or not the append succeeds.
		tx.Delete()
		out = m.commit(ctx, sess, *record)
	})
	return out
}

// Cancel discards userID's dialog, if any, without touching the store.
func (m *Machine) Cancel(ctx context.Context, userID int64) []Reply {
	m.sessions.With(userID, func(tx *state.Tx[Session]) {
		sess, ok := tx.Get()
		tx.Delete()
		attrs := []slog.Attr{slog.Bool("active", ok)}
		if ok {
			attrs = append(attrs,
				slog.String("dialog_id", sess.ID.String()),
				slog.String("step", sess.State.Step().String()),
			)
		}
		logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "dialog.cancel", attrs...)
	})
	return []Reply{menu(TextCancelled)}
}

// IsCancel reports whether text is a cancellation signal.
func IsCancel(text string) bool {
	text = strings.TrimSpace(text)
	return text == CancelCommand || text == CancelLabel
}

func (m *Machine) commit(ctx context.Context, sess Session, record model.Transaction) []Reply {
	start := time.Now()
	err := m.store.AppendTransaction(ctx, record)
	attrs := []slog.Attr{
		slog.String("dialog_id", sess.ID.String()),
		slog.String("status", logger.Status(err)),
		slog.String("date", record.Date),
		slog.String("amount", record.Amount.String()),
		slog.String("category", logger.SanitizeLimit(record.Category, 64)),
		slog.String("wallet", logger.SanitizeLimit(record.Wallet, 64)),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		logger.LogEvent(ctx, logger.Dialog, slog.LevelError, "dialog.commit", attrs...)
		return []Reply{say(TextSaveFailed), menu(TextWhatNext)}
	}
	logger.LogEvent(ctx, logger.Dialog, slog.LevelInfo, "dialog.commit", attrs...)
	return []Reply{say(TextSaved), menu(TextWhatNext)}
}

// advance applies one input to a session. It returns the next state and
// the replies, or a completed record when the note step is done.
func advance(sess Session, text string, now time.Time) (State, []Reply, *model.Transaction) {
	switch st := sess.State.(type) {
	case AwaitingDate:
		d, ok := ParseDate(text, now)
		if !ok {
			return st, []Reply{say(TextBadDate)}, nil
		}
		return AwaitingAmount{Date: FormatDate(d)}, []Reply{say(TextAskAmount)}, nil

	case AwaitingAmount:
		amount, ok := ParseAmount(text)
		if !ok {
			return st, []Reply{say(TextBadAmount)}, nil
		}
		next := AwaitingCategory{Date: st.Date, Amount: amount}
		return next, []Reply{choose(TextAskCategory, sess.Categories)}, nil

	case AwaitingCategory:
		if !slices.Contains(sess.Categories, text) {
			return st, []Reply{choose(TextBadCategory, sess.Categories)}, nil
		}
		next := AwaitingWallet{Date: st.Date, Amount: st.Amount, Category: text}
		return next, []Reply{choose(TextAskWallet, sess.Wallets)}, nil

	case AwaitingWallet:
		if !slices.Contains(sess.Wallets, text) {
			return st, []Reply{choose(TextBadWallet, sess.Wallets)}, nil
		}
		next := AwaitingNote{Date: st.Date, Amount: st.Amount, Category: st.Category, Wallet: text}
		return next, []Reply{{Text: TextAskNote, Keyboard: KeyboardRemove}}, nil

	case AwaitingNote:
		note := text
		if note == EmptyNote {
			note = ""
		}
		return nil, nil, &model.Transaction{
			Date:     st.Date,
			Amount:   st.Amount,
			Category: st.Category,
			Wallet:   st.Wallet,
			Note:     note,
		}

	default:
		return AwaitingDate{}, []Reply{say(TextAskDate)}, nil
	}
}
