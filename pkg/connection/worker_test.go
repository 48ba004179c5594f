package connection_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclite/doclite.go/pkg/connection"
)

func TestWorkerExecAndQuery(t *testing.T) {
	ctx := context.Background()
	c := connection.NewWorker(":memory:", testLogger())
	defer c.Close()

	_, err := c.Exec(ctx, "CREATE TABLE docs (data TEXT)")
	require.NoError(t, err)

	n, err := c.Exec(ctx, "INSERT INTO docs (data) VALUES (?)", `{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := c.Query(ctx, "SELECT data FROM docs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWorkerSerializesConcurrentStatements(t *testing.T) {
	ctx := context.Background()
	c := connection.NewWorker(":memory:", testLogger())
	defer c.Close()

	_, err := c.Exec(ctx, "CREATE TABLE docs (data TEXT)")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, execErr := c.Exec(ctx, "INSERT INTO docs (data) VALUES (?)", fmt.Sprintf(`{"n":%d}`, i))
			errs <- execErr
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := c.Query(ctx, "SELECT data FROM docs")
	require.NoError(t, err)
	assert.Len(t, rows, n)
}

func TestWorkerHonorsContextBeforeDispatch(t *testing.T) {
	c := connection.NewWorker(":memory:", testLogger())
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Exec(ctx, "CREATE TABLE docs (data TEXT)")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerCloseThenReuse(t *testing.T) {
	ctx := context.Background()
	c := connection.NewWorker(":memory:", testLogger())

	_, err := c.Exec(ctx, "CREATE TABLE docs (data TEXT)")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	// The worker restarts and the database reopens on next use. The
	// in-memory database starts fresh, so the table is gone.
	_, err = c.Exec(ctx, "CREATE TABLE docs (data TEXT)")
	require.NoError(t, err)
	require.NoError(t, c.Close())
}
