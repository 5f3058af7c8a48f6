// internal/repository/repository.go
package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

const DefaultQueryTimeout = 5 * time.Second

// DriverReader loads driver snapshots.
type DriverReader interface {
	ListActiveDrivers(ctx context.Context) ([]models.Driver, error)
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
}

// LoadReader loads load snapshots.
type LoadReader interface {
	ListPendingLoads(ctx context.Context) ([]models.Load, error)
	GetLoad(ctx context.Context, id string) (*models.Load, error)
}

// Postgres reads candidate pools from the fleet and load tables. It never
// writes; the schema is owned by the services that post loads and manage
// fleets.
type Postgres struct {
	db           *sql.DB
	queryTimeout time.Duration
}

type Option func(*Postgres)

func WithQueryTimeout(d time.Duration) Option {
	return func(p *Postgres) {
		if d > 0 {
			p.queryTimeout = d
		}
	}
}

func NewPostgres(db *sql.DB, opts ...Option) *Postgres {
	p := &Postgres{db: db, queryTimeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Postgres) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.queryTimeout)
}

// queryError maps driver errors onto the job error codes.
func queryError(queryType string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(queryType)
	}
	var netErr net.Error
	if stderrors.Is(err, driver.ErrBadConn) || stderrors.Is(err, sql.ErrConnDone) || stderrors.As(err, &netErr) {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return errors.NewQueryExecutionFailedError(queryType, err)
}
