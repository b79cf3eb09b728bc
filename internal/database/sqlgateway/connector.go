package sqlgateway

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/internal/retry"
)

const (
	DefaultConnectionAttempts    = 100
	DefaultConnectionTimeout     = 60 * time.Second
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		MaxTimeout:  DefaultConnectionTimeout,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

// RetryingConnector obtains a single connection from the pool with
// incremental backoff and keeps handing out that same connection until
// it is closed. Everything the runner does goes through one connection.
type RetryingConnector struct {
	options *ConnectOptions
	db      *sqlx.DB
	conn    *sqlx.Conn
}

func MakeRetryingConnector(db *sqlx.DB, options *ConnectOptions) *RetryingConnector {
	return &RetryingConnector{db: db, options: options}
}

func (c *RetryingConnector) Timeout() time.Duration {
	return c.options.MaxTimeout
}

func (c *RetryingConnector) Connect(ctx context.Context) (*sqlx.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	var conn *sqlx.Conn
	if err := retry.Incremental(ctx, c.options.RetryStep, c.options.MaxAttempts, func(attempt int) error {
		var err error
		conn, err = c.db.Connx(ctx)
		if err != nil {
			return retry.Error(errors.Wrap(err, "could not obtain DB connection"), attempt)
		}

		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return errors.Wrap(err, "db ping failed")
		}

		return nil
	}); err != nil {
		return nil, err
	}

	c.conn = conn

	return c.conn, nil
}

func (c *RetryingConnector) Close() error {
	if c.conn == nil {
		return nil
	}

	conn := c.conn
	c.conn = nil

	if err := conn.Close(); err != nil {
		return errors.Wrap(err, "connector could not release the db connection")
	}

	return nil
}
