package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountLinked fires when a federated identity is attached to a user.
type AccountLinked struct {
	UserID     uuid.UUID
	Provider   string
	OccurredAt time.Time
}

func (AccountLinked) Type() string { return "auth.account_linked" }

// AccountLinkedHandler reacts to AccountLinked events.
type AccountLinkedHandler interface {
	Execute(ctx context.Context, event AccountLinked) error
}

// EventDispatcher fans AccountLinked events out to registered handlers,
// synchronously and in registration order. The first handler error
// aborts the dispatch.
type EventDispatcher struct {
	handlers []AccountLinkedHandler
	logger   Logger
}

func NewEventDispatcher(logger Logger) *EventDispatcher {
	if logger == nil {
		logger = defLogger{}
	}
	return &EventDispatcher{logger: logger}
}

func (d *EventDispatcher) OnAccountLinked(handler AccountLinkedHandler) *EventDispatcher {
	if handler != nil {
		d.handlers = append(d.handlers, handler)
	}
	return d
}

func (d *EventDispatcher) Dispatch(ctx context.Context, event AccountLinked) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	for _, handler := range d.handlers {
		if err := handler.Execute(ctx, event); err != nil {
			d.logger.Error("account linked handler failed: %v", err)
			return err
		}
	}

	return nil
}

// MarkVerifiedOnLink stamps the user's email as verified when a
// federated account gets attached: the provider already confirmed the
// address, so a separate verification mail would be noise.
type MarkVerifiedOnLink struct {
	repo RepositoryManager
}

var _ AccountLinkedHandler = (*MarkVerifiedOnLink)(nil)

func NewMarkVerifiedOnLink(repo RepositoryManager) *MarkVerifiedOnLink {
	return &MarkVerifiedOnLink{repo: repo}
}

func (h *MarkVerifiedOnLink) Execute(ctx context.Context, event AccountLinked) error {
	return h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByID(ctx, event.UserID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user for link event")
		}

		if user.Verified() {
			return nil
		}

		return h.repo.Users().MarkEmailVerifiedTx(ctx, tx, user.ID, user.Email)
	})
}
