package router

import (
	"log/slog"
	"strings"

	"github.com/m3rciful/budgetbot/core/logger"
	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/budgetbot/core/telegram/helpers"
	"github.com/m3rciful/budgetbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Intent is the router's classification of an inbound text.
type Intent int

const (
	// IntentIgnore drops the update without a reply.
	IntentIgnore Intent = iota
	// IntentCommand runs a registered command.
	IntentCommand
	// IntentCancel runs the cancel command.
	IntentCancel
	// IntentDialogInput feeds the text to the caller's dialog.
	IntentDialogInput
)

func (i Intent) String() string {
	switch i {
	case IntentCommand:
		return "command"
	case IntentCancel:
		return "cancel"
	case IntentDialogInput:
		return "dialog_input"
	default:
		return "ignore"
	}
}

// Dialog is the conversation the router feeds plain text into.
type Dialog interface {
	Active(userID int64) bool
	HandleInput(c tele.Context) error
}

// Options configures a Router.
type Options struct {
	Registry *tg.Registry
	Dialog   Dialog
	Access   middleware.AccessOptions
}

// Router classifies inbound text and dispatches it.
type Router struct {
	reg    *tg.Registry
	dialog Dialog
	access middleware.AccessOptions
}

// New constructs a Router.
func New(opts Options) *Router {
	reg := opts.Registry
	if reg == nil {
		reg = tg.NewRegistry()
	}
	return &Router{reg: reg, dialog: opts.Dialog, access: opts.Access}
}

// Classify decides what an inbound text means for the given sender.
// Registered commands and their aliases win over dialog input; unknown
// slash commands are never treated as dialog input.
func (r *Router) Classify(userID int64, text string) (Intent, string, commands.Command) {
	if key, cmd, ok := r.reg.LookupCommand(text); ok {
		if cmd.Kind == commands.KindCancel {
			return IntentCancel, key, cmd
		}
		return IntentCommand, key, cmd
	}
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return IntentIgnore, "", commands.Command{}
	}
	if r.dialog != nil && r.dialog.Active(userID) {
		return IntentDialogInput, "", commands.Command{}
	}
	return IntentIgnore, "", commands.Command{}
}

// Handle is the entry point for every text update.
func (r *Router) Handle(c tele.Context) error {
	intent, key, cmd := r.Classify(tghelpers.SenderID(c), c.Text())

	switch intent {
	case IntentCommand, IntentCancel:
		return runLogged(c, handlerName(key), intent, middleware.WithAccess(r.access, cmd.Handler))
	case IntentDialogInput:
		return runLogged(c, "dialog", intent, middleware.WithAccess(r.access, r.dialog.HandleInput))
	default:
		logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "update.ignored",
			slog.String("intent", intent.String()),
			slog.String("payload", logger.SanitizeLimit(c.Text(), 64)),
		)
		return nil
	}
}

// Routes binds every registered command and all other text to Handle.
func (r *Router) Routes() []tg.Route {
	routes := make([]tg.Route, 0, len(r.reg.Commands())+1)
	for name := range r.reg.Commands() {
		routes = append(routes, tg.Route{Endpoint: name, Handler: r.Handle})
	}
	routes = append(routes, tg.Route{Endpoint: tele.OnText, Handler: r.Handle})

	logger.TWire.Info("routes.complete",
		slog.Int("commands", len(r.reg.Commands())),
		slog.Int("routes", len(routes)),
	)
	return routes
}
