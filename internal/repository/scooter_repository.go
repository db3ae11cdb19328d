package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/voltride-support/internal/model"
)

// ScooterRepo reads the catalog and adjusts stock inside order transactions.
type ScooterRepo struct {
	db *sql.DB
}

// NewScooterRepo returns a ScooterRepo bound to db.
func NewScooterRepo(db *sql.DB) *ScooterRepo { return &ScooterRepo{db: db} }

// DB exposes the handle so handlers can open transactions spanning several
// repositories.
func (r *ScooterRepo) DB() *sql.DB { return r.db }

const scooterCols = `id, name, model, description, price, max_speed, range_km, battery_capacity,
	weight_kg, max_load_kg, image_url, stock_quantity, is_available, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScooter(rs rowScanner) (model.Scooter, error) {
	var (
		s                          model.Scooter
		desc, battery, image       sql.NullString
		maxSpeed, rangeKM, maxLoad sql.NullInt64
		weight                     sql.NullFloat64
	)
	err := rs.Scan(&s.ID, &s.Name, &s.Model, &desc, &s.Price, &maxSpeed, &rangeKM, &battery,
		&weight, &maxLoad, &image, &s.StockQuantity, &s.IsAvailable, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Scooter{}, err
	}
	s.Description = strPtr(desc)
	s.BatteryCapacity = strPtr(battery)
	s.ImageURL = strPtr(image)
	s.MaxSpeed = intPtr(maxSpeed)
	s.RangeKM = intPtr(rangeKM)
	s.MaxLoadKG = intPtr(maxLoad)
	s.WeightKG = floatPtr(weight)
	return s, nil
}

// ListAvailable returns the scooters currently for sale, cheapest first.
func (r *ScooterRepo) ListAvailable(ctx context.Context) ([]model.Scooter, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+scooterCols+" FROM scooters WHERE is_available = 1 ORDER BY price ASC, name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Scooter{}
	for rows.Next() {
		s, err := scanScooter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetByID returns a scooter regardless of availability.
func (r *ScooterRepo) GetByID(ctx context.Context, id string) (model.Scooter, error) {
	s, err := scanScooter(r.db.QueryRowContext(ctx, "SELECT "+scooterCols+" FROM scooters WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scooter{}, ErrNotFound
	}
	return s, err
}

// GetForUpdateTx locks the scooter row until the transaction ends so
// concurrent orders cannot oversell the stock.
func (r *ScooterRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Scooter, error) {
	s, err := scanScooter(tx.QueryRowContext(ctx, "SELECT "+scooterCols+" FROM scooters WHERE id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Scooter{}, ErrNotFound
	}
	return s, err
}

// DecrementStockTx removes qty units.  The guard in the WHERE clause keeps
// stock from going negative even if the caller skipped the locked read.
func (r *ScooterRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id string, qty uint32) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE scooters SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		qty, id, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOutOfStock
	}
	return nil
}

// IncrementStockTx returns qty units to stock, used when an order is cancelled.
func (r *ScooterRepo) IncrementStockTx(ctx context.Context, tx *sql.Tx, id string, qty uint32) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE scooters SET stock_quantity = stock_quantity + ? WHERE id = ?", qty, id)
	return err
}
