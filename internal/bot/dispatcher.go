// ABOUTME: State machine over inbound activity kinds
// ABOUTME: Orchestrates provider routing and outbound delivery; always lets the webhook ack fast

package bot

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/grepton/freshbot/internal/activity"
	"github.com/grepton/freshbot/internal/config"
	"github.com/grepton/freshbot/internal/provider"
)

// WelcomeMessage is delivered when the bot itself joins a conversation.
const WelcomeMessage = "Szia! Én vagyok a Fresh Bot! 👋 Írj bármit és segíteni fogok!"

// Responder generates reply text for a user message. Satisfied by
// *provider.Router.
type Responder interface {
	Respond(ctx context.Context, providerName, conversationID, userMessage string) string
}

// Sender delivers an activity to a conversation. Satisfied by *Delivery.
type Sender interface {
	Send(ctx context.Context, serviceURL, conversationID string, act *activity.Activity) bool
}

// Dispatcher consumes parsed inbound activities and drives the reply flow:
// provider call, history update (inside the router), outbound delivery.
type Dispatcher struct {
	cfg      *config.Store
	router   Responder
	delivery Sender
	logger   *slog.Logger
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(cfg *config.Store, router Responder, delivery Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:      cfg,
		router:   router,
		delivery: delivery,
		logger:   logger.With("component", "dispatcher"),
	}
}

// Dispatch handles one inbound activity. It never returns an error: the
// channel only needs a timely acknowledgment of receipt, so provider and
// delivery failures end in the log, not in the webhook response.
func (d *Dispatcher) Dispatch(ctx context.Context, act *activity.Activity) {
	switch act.Type {
	case activity.TypeMessage:
		d.handleMessage(ctx, act)
	case activity.TypeConversationUpdate:
		d.handleConversationUpdate(ctx, act)
	default:
		d.logger.Debug("unhandled activity type", "type", act.Type)
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, act *activity.Activity) {
	snap := d.cfg.Snapshot()

	d.logger.Info("message received",
		"conversation_id", act.Conversation.ID,
		"user", act.From.Name,
		"tenant_id", act.TenantID())

	reply := d.router.Respond(ctx, snap.LLM.Provider, act.Conversation.ID, act.Text)

	out := activity.NewMessage(reply, d.botAccount(snap))
	out.ID = uuid.New().String()

	if !d.delivery.Send(ctx, act.ServiceURL, act.Conversation.ID, out) {
		d.logger.Error("failed to deliver reply", "conversation_id", act.Conversation.ID)
	}
}

// handleConversationUpdate greets the conversation once when the bot's own
// identity appears in the added-members list. The greeting goes out through
// the connector like any other reply; roster changes that don't involve the
// bot are ignored.
func (d *Dispatcher) handleConversationUpdate(ctx context.Context, act *activity.Activity) {
	snap := d.cfg.Snapshot()

	if !act.MemberAdded(snap.Bot.AppID) {
		d.logger.Debug("conversation update without bot", "members_added", len(act.MembersAdded))
		return
	}

	d.logger.Info("bot added to conversation", "conversation_id", act.Conversation.ID)

	welcome := activity.NewMessage(WelcomeMessage, d.botAccount(snap))
	welcome.ID = uuid.New().String()

	if !d.delivery.Send(ctx, act.ServiceURL, act.Conversation.ID, welcome) {
		d.logger.Error("failed to deliver welcome", "conversation_id", act.Conversation.ID)
	}
}

func (d *Dispatcher) botAccount(snap *config.Config) activity.Account {
	return activity.Account{ID: snap.Bot.AppID, Name: snap.Bot.Name}
}

// interface guards
var (
	_ Responder = (*provider.Router)(nil)
	_ Sender    = (*Delivery)(nil)
)
