// Package federation executes one query across a primary tenant store and
// a set of temporarily attached secondary stores.
//
// Per call: pin one connection from the primary's handle, ATTACH each
// secondary under a generated alias, run the query, DETACH everything in
// reverse order. Attachment state never outlives the call, on any exit
// path. Attach state is connection-scoped in SQLite, so calls sharing a
// primary serialize.
package federation

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/burrowcms/burrow/config"
	"github.com/burrowcms/burrow/errors"
	"github.com/burrowcms/burrow/tenant"
)

// HandleSource hands out the live handle for a tenant. Satisfied by
// *pool.Manager.
type HandleSource interface {
	Get(ctx context.Context, id string) (*sql.DB, error)
}

// Resolver maps tenant ids to descriptors. Satisfied by *tenant.Registry.
type Resolver interface {
	Resolve(id string) (*tenant.Descriptor, error)
}

// Request describes one federated query.
type Request struct {
	// Primary is the tenant whose handle runs the query
	Primary string
	// Secondaries are attached for the duration of the call, in order.
	// Duplicates, and the primary itself, are rejected.
	Secondaries []string
	// Template is the query text with {{primary}} / {{sN}} placeholders
	Template string
}

// Result carries the rows of a federated query.
type Result struct {
	Columns []string
	Rows    [][]any
	// Warnings records detach failures after a successful query. A warning
	// means alias state may have leaked on the primary connection and the
	// operator should look at it.
	Warnings []string
}

// AttachError reports the secondary that could not be attached. The whole
// call is rolled back; no partial attachment survives.
type AttachError struct {
	Tenant string
	Cause  error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach failed for tenant %q: %v", e.Tenant, e.Cause)
}

func (e *AttachError) Unwrap() error { return e.Cause }

// Engine runs federated queries over handles borrowed from the pool.
type Engine struct {
	registry  Resolver
	pool      HandleSource
	logger    *zap.SugaredLogger
	maxAttach int

	// aliasSeq feeds generated aliases; raw tenant ids never become aliases.
	aliasSeq atomic.Uint64

	mu        sync.Mutex
	primaries map[string]*sync.Mutex
}

// NewEngine creates a federation engine over the given registry and pool.
func NewEngine(registry Resolver, pool HandleSource, cfg *config.Config, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	maxAttach := 8
	if cfg != nil {
		maxAttach = cfg.MaxSecondaries()
	}
	return &Engine{
		registry:  registry,
		pool:      pool,
		logger:    logger.Named("federation"),
		maxAttach: maxAttach,
		primaries: make(map[string]*sync.Mutex),
	}
}

// Federate executes one federated query.
//
// With zero secondaries this degrades to a plain query on the primary
// handle: no attach, no detach, no serialization against other calls.
func (e *Engine) Federate(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if len(req.Secondaries) > e.maxAttach {
		return nil, errors.Newf("too many secondaries: %d (max %d)",
			len(req.Secondaries), e.maxAttach)
	}

	callID := uuid.NewString()
	start := time.Now()

	primaryDesc, err := e.registry.Resolve(req.Primary)
	if err != nil {
		return nil, err
	}

	handle, err := e.pool.Get(ctx, req.Primary)
	if err != nil {
		return nil, err
	}

	if len(req.Secondaries) == 0 {
		query, err := substitute(req.Template, nil)
		if err != nil {
			return nil, err
		}
		return runQuery(ctx, handle, query)
	}

	// Attach state lives on the connection, so SQLite is mandatory once
	// secondaries are involved.
	if primaryDesc.Kind != tenant.KindEmbedded {
		return nil, &AttachError{Tenant: req.Primary,
			Cause: errors.Newf("primary is %s; federation requires an embedded store", primaryDesc.Kind)}
	}

	// One federation call at a time per primary connection.
	lock := e.primaryLock(req.Primary)
	lock.Lock()
	defer lock.Unlock()

	// Attach state is per connection, not per handle: pin one connection
	// for the whole attach -> query -> detach sequence.
	conn, err := handle.Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "pin primary connection")
	}
	defer conn.Close()

	aliases, err := e.attachAll(conn, req.Secondaries)
	if err != nil {
		return nil, err
	}

	query, substErr := substitute(req.Template, aliases)

	var result *Result
	queryErr := substErr
	if queryErr == nil {
		result, queryErr = runQuery(ctx, conn, query)
	}

	// Detach runs on every exit path, including caller cancellation
	// during the query.
	detachWarnings := e.detachAll(conn, aliases, queryErr)

	if queryErr != nil {
		return nil, queryErr
	}

	result.Warnings = detachWarnings
	e.logger.Infow("Federated query complete",
		"call_id", callID,
		"primary", req.Primary,
		"secondaries", len(req.Secondaries),
		"rows", len(result.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

// validateRequest rejects duplicate secondaries and self-federation.
func validateRequest(req Request) error {
	seen := make(map[string]struct{}, len(req.Secondaries))
	for _, id := range req.Secondaries {
		if id == req.Primary {
			return errors.Newf("secondary %q duplicates the primary", id)
		}
		if _, dup := seen[id]; dup {
			return errors.Newf("duplicate secondary %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// primaryLock returns the serialization lock for one primary tenant.
func (e *Engine) primaryLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.primaries[id]
	if !ok {
		lock = &sync.Mutex{}
		e.primaries[id] = lock
	}
	return lock
}

// attachAll attaches every secondary under a fresh alias. On failure it
// detaches whatever was already attached, in reverse order, and returns an
// AttachError naming the offending tenant.
//
// Attach and detach run on context.Background(): cleanup is not optional,
// and a caller cancellation must not strand half-attached state.
func (e *Engine) attachAll(conn *sql.Conn, secondaries []string) ([]string, error) {
	aliases := make([]string, 0, len(secondaries))

	fail := func(id string, cause error) ([]string, error) {
		e.detachAll(conn, aliases, cause)
		return nil, &AttachError{Tenant: id, Cause: cause}
	}

	for _, id := range secondaries {
		desc, err := e.registry.Resolve(id)
		if err != nil {
			return fail(id, err)
		}
		if desc.Kind != tenant.KindEmbedded {
			return fail(id, errors.Newf("secondary is %s; federation requires an embedded store", desc.Kind))
		}

		alias := fmt.Sprintf("fed_%d", e.aliasSeq.Add(1))
		// The alias is an engine-generated token; the locator rides a bind
		// parameter. Tenant text never lands in the statement.
		if _, err := conn.ExecContext(context.Background(), "ATTACH DATABASE ? AS "+alias, desc.Locator); err != nil {
			return fail(id, err)
		}
		aliases = append(aliases, alias)
	}

	return aliases, nil
}

// detachAll detaches aliases in reverse attach order. Detach failures are
// logged and reported but never override queryErr; a leaked alias after a
// successful query is surfaced to the caller as a warning.
func (e *Engine) detachAll(conn *sql.Conn, aliases []string, queryErr error) []string {
	var warnings []string
	for i := len(aliases) - 1; i >= 0; i-- {
		if _, err := conn.ExecContext(context.Background(), "DETACH DATABASE "+aliases[i]); err != nil {
			e.logger.Warnw("Detach failed; alias may have leaked on the primary connection",
				"alias", aliases[i],
				"error", err.Error(),
			)
			if queryErr == nil {
				warnings = append(warnings, fmt.Sprintf("detach %s: %v", aliases[i], err))
			}
		}
	}
	return warnings
}

// querier is the common query surface of *sql.DB and *sql.Conn.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// runQuery executes the substituted query and materializes the rows.
func runQuery(ctx context.Context, q querier, query string) (*Result, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "execute federated query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "read columns")
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan row")
		}
		// Copy driver-owned byte slices before the next cursor move.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate rows")
	}

	return result, nil
}
