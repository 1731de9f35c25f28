package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"mesaYaCore/internal/modules/restaurant/domain"
	"mesaYaCore/internal/shared/auth"
)

// Command is an inbound request already deserialized by the transport.
type Command struct {
	Name    string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ReplyError is the structured error surface of a failed command.
type ReplyError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Reply is what travels back through the client's send channel.
type Reply struct {
	Command   string      `json:"command"`
	Status    string      `json:"status"`
	Data      any         `json:"data,omitempty"`
	Error     *ReplyError `json:"error,omitempty"`
	Warning   string      `json:"warning,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Handler executes one command for a resolved identity.
type Handler func(ctx context.Context, actor auth.Identity, payload json.RawMessage) (any, error)

// Router is the stateless dispatch table from command identifier to a handler
// bound to one of the lifecycle managers. It classifies and delegates; it
// never holds domain state.
type Router struct {
	handlers map[string]Handler
	touch    func()
}

// NewRouter builds a router; touch is invoked on every routed command so the
// idle watchdog sees activity (nil is allowed).
func NewRouter(touch func()) *Router {
	return &Router{handlers: make(map[string]Handler), touch: touch}
}

// Register binds a command name to its handler. Called once at startup.
func (r *Router) Register(name string, h Handler) {
	key := normalizeCommand(name)
	if key == "" || h == nil {
		return
	}
	r.handlers[key] = h
}

// Route dispatches the command and shapes the outcome into a Reply. An
// applied mutation whose write-through failed comes back as a success with a
// warning so staff can reconcile, never as a rollback.
func (r *Router) Route(ctx context.Context, actor auth.Identity, cmd Command) *Reply {
	if r.touch != nil {
		r.touch()
	}
	now := time.Now().UTC()
	name := normalizeCommand(cmd.Name)

	handler, ok := r.handlers[name]
	if !ok {
		slog.Warn("unknown command", slog.String("command", cmd.Name), slog.String("userId", actor.UserID))
		return &Reply{
			Command:   cmd.Name,
			Status:    "error",
			Error:     &ReplyError{Kind: string(domain.KindUnknownCommand), Message: "unknown command " + cmd.Name},
			Timestamp: now,
		}
	}

	data, err := handler(ctx, actor, cmd.Payload)
	switch {
	case err == nil:
		return &Reply{Command: name, Status: "ok", Data: data, Timestamp: now}
	case domain.IsKind(err, domain.KindPersistence):
		// State is applied in memory; surface the write-through failure.
		return &Reply{Command: name, Status: "ok", Data: data, Warning: err.Error(), Timestamp: now}
	default:
		kind := domain.KindOf(err)
		if kind == "" {
			kind = domain.KindValidation
		}
		slog.Debug("command rejected", slog.String("command", name), slog.String("kind", string(kind)), slog.String("userId", actor.UserID))
		return &Reply{
			Command:   name,
			Status:    "error",
			Error:     &ReplyError{Kind: string(kind), Message: messageOf(err)},
			Timestamp: now,
		}
	}
}

func messageOf(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func normalizeCommand(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
