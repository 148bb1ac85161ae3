package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/stockroomhq/stockroom/internal/domain/dberror"
)

// Manager executes one request against the live connection. Managers are
// stateless: the worker constructs a fresh one per request and discards it
// afterwards. Execute never returns a raw error; every failure is folded
// into the result's error fields.
type Manager interface {
	Execute(ctx context.Context, req QueryRequest) QueryResult
}

// ManagerFactory binds a manager to the worker's connection for the
// duration of a single request. Implementations must not retain the
// connection beyond the Execute call.
type ManagerFactory func(conn *pgx.Conn) Manager

// Worker serializes all database access through one exclusively-owned
// connection while presenting a non-blocking submit/subscribe contract.
// Exactly one goroutine (Run) dequeues, dispatches and broadcasts; no two
// managers ever execute concurrently.
type Worker struct {
	conn      *pgx.Conn
	connErr   error
	factories map[Domain]ManagerFactory
	logger    *zap.Logger

	queue *fifo[QueryRequest]

	mu      sync.Mutex
	subs    map[int]*fifo[QueryResult]
	nextSub int

	done chan struct{}
}

// Options configures a worker.
type Options struct {
	Logger *zap.Logger
}

// New creates a worker bound to an open connection. Register the manager
// factories before calling Run.
func New(conn *pgx.Conn, opts Options) *Worker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		conn:      conn,
		factories: make(map[Domain]ManagerFactory),
		logger:    logger,
		queue:     newFIFO[QueryRequest](),
		subs:      make(map[int]*fifo[QueryResult]),
		done:      make(chan struct{}),
	}
}

// NewUnavailable creates a worker in the permanently-failed state entered
// when the connection could not be opened at startup. Every submitted
// request yields a connection-unavailable result; nothing is silently
// dropped.
func NewUnavailable(connErr error, opts Options) *Worker {
	w := New(nil, opts)
	if connErr == nil {
		connErr = fmt.Errorf("database connection unavailable")
	}
	w.connErr = connErr
	return w
}

// Register installs the manager factory for a domain. Not safe to call
// after Run has started.
func (w *Worker) Register(domain Domain, factory ManagerFactory) {
	w.factories[domain] = factory
}

// Submit enqueues a request and returns immediately. Requests submitted by
// one caller are processed in submission order. Submissions after Stop are
// dropped and reported as false.
func (w *Worker) Submit(req QueryRequest) bool {
	return w.queue.Push(req)
}

// Subscribe registers a result listener. Every completed result is
// delivered to every subscriber in publish order; each subscriber filters
// by comparing the result's origin to its own. The cancel func detaches
// the subscription and closes the channel.
func (w *Worker) Subscribe() (<-chan QueryResult, func()) {
	buf := newFIFO[QueryResult]()

	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = buf
	w.mu.Unlock()

	cancel := func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
		buf.Close()
	}
	return buf.C(), cancel
}

// Run is the processing loop. It blocks until Stop closes the queue or the
// context is cancelled. Call it from exactly one goroutine.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-w.queue.C():
			if !ok {
				return nil
			}
			res := w.process(ctx, req)
			w.broadcast(res)
		}
	}
}

// Stop closes the request queue, waits for any in-flight request to finish
// and closes the connection. Pending requests are discarded.
func (w *Worker) Stop(ctx context.Context) error {
	w.queue.Close()

	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if w.conn != nil {
		if err := w.conn.Close(ctx); err != nil {
			return fmt.Errorf("failed to close connection: %w", err)
		}
	}
	return nil
}

func (w *Worker) process(ctx context.Context, req QueryRequest) QueryResult {
	logger := w.logger.With(
		zap.String("domain", req.Domain.String()),
		zap.String("command", req.Command),
	)

	if w.connErr != nil {
		logger.Warn("rejecting request: connection unavailable", zap.Error(w.connErr))
		return FailureResult(req, dberror.New(
			dberror.CodeConnectionFailed,
			w.connErr.Error(),
			"The database is unavailable.",
		))
	}

	if req.Command == "" {
		return FailureResult(req, dberror.CommandNotFound(""))
	}

	factory, ok := w.factories[req.Domain]
	if !ok {
		logger.Warn("no manager registered for domain")
		return FailureResult(req, dberror.Newf(
			dberror.CodeCommandNotFound,
			"The requested operation is not recognized.",
			"no manager registered for domain %q", req.Domain,
		))
	}

	logger.Debug("dispatching request")
	res := factory(w.conn).Execute(ctx, req)
	if !res.Successful {
		logger.Warn("request failed",
			zap.Int("error_code", int(res.ErrorCode)),
			zap.String("error_message", res.ErrorMessage),
		)
	}
	return res
}

func (w *Worker) broadcast(res QueryResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sub := range w.subs {
		sub.Push(res)
	}
}
