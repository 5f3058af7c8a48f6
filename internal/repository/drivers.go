// internal/repository/drivers.go
package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"

	"github.com/lib/pq"
)

const driverColumns = `
	id, owner_id, name, location, trailer_types, vehicle_type, certifications,
	rating, availability, is_active, cdl_expiry, medical_card_expiry, insurance_expiry`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDriver(row rowScanner) (models.Driver, error) {
	var (
		d              models.Driver
		ownerID        sql.NullString
		vehicleType    sql.NullString
		trailerTypes   pq.StringArray
		certifications pq.StringArray
		rating         sql.NullFloat64
		availability   string
		cdl            sql.NullTime
		medical        sql.NullTime
		insurance      sql.NullTime
	)

	err := row.Scan(
		&d.ID, &ownerID, &d.Name, &d.Location,
		&trailerTypes, &vehicleType, &certifications,
		&rating, &availability, &d.IsActive,
		&cdl, &medical, &insurance,
	)
	if err != nil {
		return models.Driver{}, err
	}

	d.OwnerID = ownerID.String
	d.VehicleType = vehicleType.String
	d.TrailerTypes = []string(trailerTypes)
	d.Certifications = []string(certifications)
	d.Availability = models.Availability(availability)
	if rating.Valid {
		r := rating.Float64
		d.Rating = &r
	}
	d.CDLExpiry = nullTime(cdl)
	d.MedicalCardExpiry = nullTime(medical)
	d.InsuranceExpiry = nullTime(insurance)
	return d, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// ListActiveDrivers returns every active driver. Availability and
// compliance are left to the ranker's eligibility options.
func (p *Postgres) ListActiveDrivers(ctx context.Context) ([]models.Driver, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.db.QueryContext(ctx, `SELECT`+driverColumns+`
		FROM drivers
		WHERE is_active = true
		ORDER BY id`)
	if err != nil {
		return nil, queryError("list_active_drivers", err)
	}
	defer rows.Close()

	drivers := make([]models.Driver, 0)
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, queryError("list_active_drivers", err)
		}
		drivers = append(drivers, d)
	}
	if err := rows.Err(); err != nil {
		return nil, queryError("list_active_drivers", err)
	}
	return drivers, nil
}

func (p *Postgres) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	row := p.db.QueryRowContext(ctx, `SELECT`+driverColumns+`
		FROM drivers
		WHERE id = $1`, id)

	d, err := scanDriver(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewDriverNotFoundError(id)
	}
	if err != nil {
		return nil, queryError("get_driver", err)
	}
	return &d, nil
}
