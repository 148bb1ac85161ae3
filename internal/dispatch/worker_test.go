package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/stockroomhq/stockroom/internal/dispatch"
	"github.com/stockroomhq/stockroom/internal/domain/dberror"
)

// fakeManager lets worker tests script handler behavior without a
// database.
type fakeManager struct {
	fn func(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult
}

func (m fakeManager) Execute(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
	return m.fn(ctx, req)
}

func fakeFactory(fn func(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult) dispatch.ManagerFactory {
	return func(conn *pgx.Conn) dispatch.Manager {
		return fakeManager{fn: fn}
	}
}

func echoFactory() dispatch.ManagerFactory {
	return fakeFactory(func(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
		return dispatch.SuccessResult(req, dispatch.Outcome{"command": req.Command})
	})
}

func startWorker(t *testing.T, w *dispatch.Worker) {
	t.Helper()

	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background())
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.Stop(ctx); err != nil {
			t.Errorf("stop failed: %v", err)
		}
		if err := <-done; err != nil {
			t.Errorf("run returned error: %v", err)
		}
	})
}

func awaitResult(t *testing.T, results <-chan dispatch.QueryResult) dispatch.QueryResult {
	t.Helper()

	select {
	case res, ok := <-results:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for result")
		return dispatch.QueryResult{}
	}
}

func TestWorker_Correlation(t *testing.T) {
	w := dispatch.New(nil, dispatch.Options{})
	w.Register(dispatch.DomainStock, echoFactory())
	startWorker(t, w)

	results, cancel := w.Subscribe()
	defer cancel()

	originA := dispatch.NewOrigin()
	originB := dispatch.NewOrigin()

	w.Submit(dispatch.NewQueryRequest(originA, dispatch.DomainStock, "view_stock_items", nil))
	w.Submit(dispatch.NewQueryRequest(originB, dispatch.DomainStock, "view_stock_categories", nil))

	var forA, forB int
	for i := 0; i < 2; i++ {
		res := awaitResult(t, results)
		switch {
		case res.OriginatedFrom(originA):
			forA++
			if res.Request.Command != "view_stock_items" {
				t.Errorf("origin A received foreign command %q", res.Request.Command)
			}
		case res.OriginatedFrom(originB):
			forB++
			if res.Request.Command != "view_stock_categories" {
				t.Errorf("origin B received foreign command %q", res.Request.Command)
			}
		default:
			t.Errorf("result matched neither origin")
		}
	}

	if forA != 1 || forB != 1 {
		t.Errorf("expected one result per origin, got A=%d B=%d", forA, forB)
	}
}

func TestWorker_FIFOOrdering(t *testing.T) {
	w := dispatch.New(nil, dispatch.Options{})
	w.Register(dispatch.DomainStock, echoFactory())
	startWorker(t, w)

	results, cancel := w.Subscribe()
	defer cancel()

	origin := dispatch.NewOrigin()
	const n = 50
	for i := 0; i < n; i++ {
		w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainStock, fmt.Sprintf("cmd-%d", i), nil))
	}

	for i := 0; i < n; i++ {
		res := awaitResult(t, results)
		want := fmt.Sprintf("cmd-%d", i)
		if res.Request.Command != want {
			t.Fatalf("result %d: expected %q, got %q", i, want, res.Request.Command)
		}
	}
}

func TestWorker_SequentialExecution(t *testing.T) {
	var active, maxActive int32

	w := dispatch.New(nil, dispatch.Options{})
	w.Register(dispatch.DomainStock, fakeFactory(func(ctx context.Context, req dispatch.QueryRequest) dispatch.QueryResult {
		cur := atomic.AddInt32(&active, 1)
		if cur > atomic.LoadInt32(&maxActive) {
			atomic.StoreInt32(&maxActive, cur)
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return dispatch.SuccessResult(req, nil)
	}))
	startWorker(t, w)

	results, cancel := w.Subscribe()
	defer cancel()

	origin := dispatch.NewOrigin()
	const n = 20
	for i := 0; i < n; i++ {
		w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainStock, "op", nil))
	}
	for i := 0; i < n; i++ {
		awaitResult(t, results)
	}

	if got := atomic.LoadInt32(&maxActive); got != 1 {
		t.Errorf("expected at most one concurrent execution, observed %d", got)
	}
}

func TestWorker_BroadcastToAllSubscribers(t *testing.T) {
	w := dispatch.New(nil, dispatch.Options{})
	w.Register(dispatch.DomainStock, echoFactory())
	startWorker(t, w)

	first, cancelFirst := w.Subscribe()
	defer cancelFirst()
	second, cancelSecond := w.Subscribe()
	defer cancelSecond()

	origin := dispatch.NewOrigin()
	w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainStock, "view_stock_items", nil))

	for name, ch := range map[string]<-chan dispatch.QueryResult{"first": first, "second": second} {
		res := awaitResult(t, ch)
		if !res.OriginatedFrom(origin) {
			t.Errorf("%s subscriber received result with wrong origin", name)
		}
	}
}

func TestWorker_UnknownDomain(t *testing.T) {
	w := dispatch.New(nil, dispatch.Options{})
	startWorker(t, w)

	results, cancel := w.Subscribe()
	defer cancel()

	origin := dispatch.NewOrigin()
	w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainIncome, "view_income_report", nil))

	res := awaitResult(t, results)
	if res.Successful {
		t.Fatal("expected failure for unregistered domain")
	}
	if res.ErrorCode != dberror.CodeCommandNotFound {
		t.Errorf("expected CodeCommandNotFound, got %v", res.ErrorCode)
	}
	if res.Outcome != nil {
		t.Errorf("expected no outcome on failure, got %v", res.Outcome)
	}
}

func TestWorker_ConnectionUnavailable(t *testing.T) {
	connErr := errors.New("connection refused")
	w := dispatch.NewUnavailable(connErr, dispatch.Options{})
	w.Register(dispatch.DomainStock, echoFactory())
	startWorker(t, w)

	results, cancel := w.Subscribe()
	defer cancel()

	origin := dispatch.NewOrigin()
	w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainStock, "view_stock_items", nil))
	w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainStock, "view_stock_categories", nil))

	for i := 0; i < 2; i++ {
		res := awaitResult(t, results)
		if res.Successful {
			t.Fatal("expected failure from unavailable worker")
		}
		if res.ErrorCode != dberror.CodeConnectionFailed {
			t.Errorf("expected CodeConnectionFailed, got %v", res.ErrorCode)
		}
		if res.ErrorMessage != connErr.Error() {
			t.Errorf("expected diagnostic %q, got %q", connErr.Error(), res.ErrorMessage)
		}
	}
}

func TestWorker_SubmitAfterStop(t *testing.T) {
	w := dispatch.New(nil, dispatch.Options{})
	w.Register(dispatch.DomainStock, echoFactory())

	done := make(chan error, 1)
	go func() {
		done <- w.Run(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	origin := dispatch.NewOrigin()
	if w.Submit(dispatch.NewQueryRequest(origin, dispatch.DomainStock, "view_stock_items", nil)) {
		t.Error("expected submit after stop to be rejected")
	}
}
