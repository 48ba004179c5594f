package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"

	"github.com/doclite/doclite.go/pkg/constants"
	"github.com/doclite/doclite.go/pkg/logger"
)

// WorkerConnection funnels every statement through a single worker
// goroutine. Callers enqueue a request and suspend on a per-request
// response channel instead of blocking inside the driver, which makes
// it the natural choice when many goroutines share one handle.
//
// Statements from concurrent callers may interleave between logical
// operations in either order; only each individual statement is
// atomic. The caller's context is honored up to the point a statement
// is handed to the worker. Once issued, a statement runs to
// completion.
type WorkerConnection struct {
	inner  *DirectConnection
	logger logger.Logger

	mu       sync.Mutex
	started  bool
	closed   bool
	requests chan request
	wg       sync.WaitGroup

	responseChannelsLock sync.RWMutex
	responseChannels     map[string]chan response
}

type request struct {
	id  string
	run func() response
}

type response struct {
	affected int64
	rows     [][]byte
	err      error
}

// NewWorker builds a WorkerConnection for the given SQLite database
// name. The worker goroutine starts lazily with the first statement.
func NewWorker(dsn string, log logger.Logger) *WorkerConnection {
	return &WorkerConnection{
		inner:            NewDirect(dsn, log),
		logger:           log,
		responseChannels: make(map[string]chan response),
	}
}

func (c *WorkerConnection) Connect(ctx context.Context) error {
	_, err := c.dispatch(ctx, func() response {
		return response{err: c.inner.Connect(context.WithoutCancel(ctx))}
	})
	return err
}

func (c *WorkerConnection) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.dispatch(ctx, func() response {
		n, execErr := c.inner.Exec(context.WithoutCancel(ctx), query, args...)
		return response{affected: n, err: execErr}
	})
	if err != nil {
		return 0, err
	}
	return res.affected, nil
}

func (c *WorkerConnection) Query(ctx context.Context, query string, args ...any) ([][]byte, error) {
	res, err := c.dispatch(ctx, func() response {
		rows, queryErr := c.inner.Query(context.WithoutCancel(ctx), query, args...)
		return response{rows: rows, err: queryErr}
	})
	if err != nil {
		return nil, err
	}
	return res.rows, nil
}

func (c *WorkerConnection) Begin(ctx context.Context) error {
	_, err := c.dispatch(ctx, func() response {
		return response{err: c.inner.Begin(context.WithoutCancel(ctx))}
	})
	return err
}

func (c *WorkerConnection) Commit(ctx context.Context) error {
	_, err := c.dispatch(ctx, func() response {
		return response{err: c.inner.Commit(context.WithoutCancel(ctx))}
	})
	return err
}

// Close stops the worker after in-flight requests finish and releases
// the underlying connection. A later statement restarts the worker and
// reopens the database.
func (c *WorkerConnection) Close() error {
	c.mu.Lock()
	if c.started && !c.closed {
		c.closed = true
		close(c.requests)
	}
	c.mu.Unlock()
	c.wg.Wait()
	return c.inner.Close()
}

// dispatch hands run to the worker goroutine and waits for its
// response. ctx is consulted only until the request is enqueued.
func (c *WorkerConnection) dispatch(ctx context.Context, run func() response) (response, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return response{}, err
	}

	ch, err := c.createResponseChannel(id.String())
	if err != nil {
		return response{}, err
	}
	defer c.removeResponseChannel(id.String())

	if err := c.enqueue(ctx, request{id: id.String(), run: run}); err != nil {
		return response{}, err
	}

	res := <-ch
	return res, res.err
}

func (c *WorkerConnection) enqueue(ctx context.Context, req request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		// A closed connection reopens on next use.
		c.started = false
		c.closed = false
	}
	if !c.started {
		c.requests = make(chan request)
		c.started = true
		c.wg.Add(1)
		go c.work(c.requests)
	}
	// The send blocks until the worker accepts the request, so requests
	// enter the engine in enqueue order.
	c.requests <- req
	return nil
}

func (c *WorkerConnection) work(requests <-chan request) {
	defer c.wg.Done()
	for req := range requests {
		res := req.run()
		if ch, ok := c.getResponseChannel(req.id); ok {
			ch <- res
		}
	}
}

func (c *WorkerConnection) createResponseChannel(id string) (chan response, error) {
	c.responseChannelsLock.Lock()
	defer c.responseChannelsLock.Unlock()

	if _, ok := c.responseChannels[id]; ok {
		return nil, fmt.Errorf("%w: %v", constants.ErrIDInUse, id)
	}

	ch := make(chan response, 1)
	c.responseChannels[id] = ch

	return ch, nil
}

func (c *WorkerConnection) getResponseChannel(id string) (chan response, bool) {
	c.responseChannelsLock.RLock()
	defer c.responseChannelsLock.RUnlock()
	ch, ok := c.responseChannels[id]
	return ch, ok
}

func (c *WorkerConnection) removeResponseChannel(id string) {
	c.responseChannelsLock.Lock()
	defer c.responseChannelsLock.Unlock()
	delete(c.responseChannels, id)
}
