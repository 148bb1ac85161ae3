// Package sqlmanager implements the per-domain command handlers. Each
// manager maps a command name to one operation, validates parameters
// before touching storage, runs its hand-written SQL (transactionally for
// writes) and translates every failure into the closed error taxonomy.
// Managers are stateless and constructed per request, bound to the
// worker's live connection for exactly one Execute call.
package sqlmanager

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
	"github.com/stockroomhq/stockroom/internal/domain/event"
	"github.com/stockroomhq/stockroom/internal/port/outbound/messaging"
)

// ActingUser supplies the acting-user id stamped on every write. The
// session manager satisfies it.
type ActingUser interface {
	UserID() int64
}

// Deps bundles the collaborators shared by all managers.
type Deps struct {
	Logger    *zap.Logger
	Session   ActingUser
	Publisher messaging.EventPublisher
	Now       func() time.Time
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Session == nil {
		d.Session = anonymousUser{}
	}
	if d.Publisher == nil {
		d.Publisher = messaging.NopPublisher{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// anonymousUser is the acting user before anyone signs in.
type anonymousUser struct{}

func (anonymousUser) UserID() int64 { return 0 }

// operation runs one command and returns its outcome payload. Failures are
// reported as *dberror.Error; anything else is folded under CodeUnknown at
// the dispatch boundary.
type operation func(ctx context.Context, req dispatch.QueryRequest) (dispatch.Outcome, error)

// execute is the single dispatch boundary shared by every manager: exact
// command lookup, operation invocation, and conversion of the raised error
// into result fields. No error ever escapes past it.
func execute(ctx context.Context, req dispatch.QueryRequest, ops map[string]operation) dispatch.QueryResult {
	op, ok := ops[req.Command]
	if !ok {
		return dispatch.FailureResult(req, dberror.CommandNotFound(req.Command))
	}

	outcome, err := op(ctx, req)
	if err != nil {
		return dispatch.FailureResult(req, dberror.As(err))
	}
	return dispatch.SuccessResult(req, outcome)
}

// insertNote inserts an optional note row and returns its id, or nil when
// the note text is blank so the referencing column stays NULL.
func insertNote(ctx context.Context, tx pgx.Tx, deps Deps, note string, failCode dberror.Code) (any, error) {
	if strings.TrimSpace(note) == "" {
		return nil, nil
	}

	var noteID int64
	err := tx.QueryRow(ctx,
		`INSERT INTO note (note, created, last_edited, user_id)
		 VALUES ($1, $2, $2, $3)
		 RETURNING id`,
		note, deps.Now(), deps.Session.UserID(),
	).Scan(&noteID)
	if err != nil {
		return nil, dberror.New(failCode, err.Error(), "Failed to insert note.")
	}
	return noteID, nil
}

// publish sends a domain event after a successful commit. Publishing is
// best-effort: a failure is logged and never surfaced to the caller.
func publish(ctx context.Context, deps Deps, evt event.Event) {
	if err := deps.Publisher.Publish(ctx, evt); err != nil {
		deps.Logger.Warn("failed to publish domain event",
			zap.String("event_type", evt.EventType()),
			zap.Error(err),
		)
	}
}
