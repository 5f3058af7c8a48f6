// internal/repository/loads.go
package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"

	"github.com/lib/pq"
)

const loadColumns = `
	id, owner_id, origin, destination, cargo, trailer_type,
	required_qualifications, status, weight, price`

func scanLoad(row rowScanner) (models.Load, error) {
	var (
		l           models.Load
		ownerID     sql.NullString
		cargo       sql.NullString
		trailerType sql.NullString
		required    pq.StringArray
		status      string
	)

	err := row.Scan(
		&l.ID, &ownerID, &l.Origin, &l.Destination, &cargo, &trailerType,
		&required, &status, &l.Weight, &l.Price,
	)
	if err != nil {
		return models.Load{}, err
	}

	l.OwnerID = ownerID.String
	l.Cargo = cargo.String
	l.TrailerType = trailerType.String
	l.RequiredQualifications = []string(required)
	l.Status = models.LoadStatus(status)
	return l, nil
}

// ListPendingLoads returns loads still waiting for a driver, oldest first.
func (p *Postgres) ListPendingLoads(ctx context.Context) ([]models.Load, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `SELECT`+loadColumns+`
		FROM loads
		WHERE status = $1
		ORDER BY created_at, id`, string(models.LoadStatusPending))
	if err != nil {
		return nil, queryError("list_pending_loads", err)
	}
	defer rows.Close()

	loads := make([]models.Load, 0)
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, queryError("list_pending_loads", err)
		}
		loads = append(loads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list_pending_loads", err)
	}
	return loads, nil
}

func (p *Postgres) GetLoad(ctx context.Context, id string) (*models.Load, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `SELECT`+loadColumns+`
		FROM loads
		WHERE id = $1`, id)

	l, err := scanLoad(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewLoadNotFoundError(id)
	}
	if err != nil {
		return nil, queryError("get_load", err)
	}
	return &l, nil
}
