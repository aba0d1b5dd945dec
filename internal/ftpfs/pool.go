package ftpfs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kumarlokesh/ftpkit/internal/config"
)

// ErrPoolClosed is returned when acquiring from a pool that was never opened
// or has been closed.
var ErrPoolClosed = errors.New("ftp connection pool is closed")

// Pool manages a fixed-size set of authenticated FTP connections that are
// reused across concurrent operations. Pooling avoids the handshake and login
// cost of opening a fresh session per command.
type Pool struct {
	cfg  *config.Config
	dial DialFunc

	mu     sync.Mutex
	conns  chan Conn
	closed bool
}

// PoolOption configures a Pool
type PoolOption func(*Pool)

// WithDialFunc overrides how the pool opens connections. Used by tests to
// inject fakes.
func WithDialFunc(dial DialFunc) PoolOption {
	return func(p *Pool) {
		p.dial = dial
	}
}

// NewPool creates a new pool for the given configuration. The pool is not
// usable until Open succeeds.
func NewPool(cfg *config.Config, opts ...PoolOption) *Pool {
	p := &Pool{
		cfg:    cfg,
		dial:   dialFTP,
		closed: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open dials MaxConnections connections concurrently and populates the pool.
// Opening an already-open pool is a no-op.
func (p *Pool) Open(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		return nil
	}

	conns := make(chan Conn, p.cfg.MaxConnections)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.MaxConnections; i++ {
		g.Go(func() error {
			conn, err := p.dial(ctx, p.cfg)
			if err != nil {
				return err
			}
			conns <- conn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Tear down whatever was established before the failure.
		close(conns)
		for conn := range conns {
			_ = conn.Quit()
		}
		return fmt.Errorf("failed to initialize ftp connection pool: %w", err)
	}

	p.conns = conns
	p.closed = false

	log.Debug().Int("connections", p.cfg.MaxConnections).Msg("ftp connection pool initialized")
	return nil
}

// Get acquires a connection from the pool, blocking until one is available
// or the context is done.
func (p *Pool) Get(ctx context.Context) (Conn, error) {
	p.mu.Lock()
	conns := p.conns
	closed := p.closed
	p.mu.Unlock()

	if closed || conns == nil {
		return nil, ErrPoolClosed
	}

	select {
	case conn := <-conns:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Put returns a connection to the pool for reuse. Connections handed back
// after the pool is closed are quit instead.
func (p *Pool) Put(conn Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.conns == nil {
		_ = conn.Quit()
		return
	}

	select {
	case p.conns <- conn:
	default:
		// More connections returned than the pool holds; drop the extra one.
		_ = conn.Quit()
	}
}

// Close quits every pooled connection and marks the pool closed. Connections
// currently checked out are quit when they are returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.conns == nil {
		return nil
	}
	p.closed = true

	var errs []error
	for {
		select {
		case conn := <-p.conns:
			if err := conn.Quit(); err != nil {
				errs = append(errs, err)
			}
		default:
			log.Debug().Msg("ftp connection pool closed")
			return errors.Join(errs...)
		}
	}
}
