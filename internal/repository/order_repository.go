package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/voltride-support/internal/model"
)

// OrderRepo persists scooter orders.  Writes run inside a transaction the
// handler opens so the stock adjustment and the order row commit together.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `o.id, o.user_id, o.scooter_id, o.quantity, o.unit_price, o.total_amount, o.status,
	o.shipping_address, o.phone_number, o.notes, o.order_date, o.estimated_delivery, o.created_at, o.updated_at`

func scanOrder(rs rowScanner, extra ...any) (model.Order, error) {
	var (
		o                  model.Order
		addr, phone, notes sql.NullString
		eta                sql.NullTime
	)
	dest := []any{&o.ID, &o.UserID, &o.ScooterID, &o.Quantity, &o.UnitPrice, &o.TotalAmount, &o.Status,
		&addr, &phone, &notes, &o.OrderDate, &eta, &o.CreatedAt, &o.UpdatedAt}
	if err := rs.Scan(append(dest, extra...)...); err != nil {
		return model.Order{}, err
	}
	o.ShippingAddress = strPtr(addr)
	o.PhoneNumber = strPtr(phone)
	o.Notes = strPtr(notes)
	o.EstimatedDelivery = timePtr(eta)
	return o, nil
}

// CreateTx inserts o with a fresh id and reads back the stored row so the
// caller gets database defaults such as order_date.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	o.ID = uuid.NewString()
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO scooter_orders (id, user_id, scooter_id, quantity, unit_price, total_amount, status, shipping_address, phone_number, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.ScooterID, o.Quantity, o.UnitPrice, o.TotalAmount, o.Status,
		nullable(o.ShippingAddress), nullable(o.PhoneNumber), nullable(o.Notes))
	if err != nil {
		return err
	}
	stored, err := scanOrder(tx.QueryRowContext(ctx, "SELECT "+orderCols+" FROM scooter_orders o WHERE o.id = ?", o.ID))
	if err != nil {
		return err
	}
	*o = stored
	return nil
}

// GetForUpdateTx locks an order row for a status change.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Order, error) {
	o, err := scanOrder(tx.QueryRowContext(ctx, "SELECT "+orderCols+" FROM scooter_orders o WHERE o.id = ? FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	return o, err
}

// UpdateStatusTx sets the status and, when eta is non-nil, the estimated
// delivery date.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, status string, eta *time.Time) error {
	var (
		res sql.Result
		err error
	)
	if eta != nil {
		res, err = tx.ExecContext(ctx,
			"UPDATE scooter_orders SET status = ?, estimated_delivery = ?, updated_at = NOW() WHERE id = ?",
			status, eta.UTC(), id)
	} else {
		res, err = tx.ExecContext(ctx,
			"UPDATE scooter_orders SET status = ?, updated_at = NOW() WHERE id = ?", status, id)
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const orderDetailFrom = ` FROM scooter_orders o
	JOIN scooters s ON s.id = o.scooter_id
	LEFT JOIN profiles p ON p.id = o.user_id`

func (r *OrderRepo) listDetails(ctx context.Context, q string, args ...any) ([]model.OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.OrderDetail{}
	for rows.Next() {
		var (
			d        model.OrderDetail
			image    sql.NullString
			username sql.NullString
		)
		o, err := scanOrder(rows, &d.Scooter.Name, &d.Scooter.Model, &image, &username)
		if err != nil {
			return nil, err
		}
		d.Order = o
		d.Scooter.ImageURL = strPtr(image)
		d.Username = strPtr(username)
		out = append(out, d)
	}
	return out, rows.Err()
}

const orderDetailSelect = "SELECT " + orderCols + ", s.name, s.model, s.image_url, p.username" + orderDetailFrom

// ListByUser returns the caller's orders, newest first.  The username is
// dropped because the caller already knows who they are.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.OrderDetail, error) {
	out, err := r.listDetails(ctx, orderDetailSelect+" WHERE o.user_id = ? ORDER BY o.order_date DESC, o.id DESC", userID)
	for i := range out {
		out[i].Username = nil
	}
	return out, err
}

// GetByIDForUser returns one order only if it belongs to userID.  Orders of
// other users are reported as ErrNotFound to avoid leaking their existence.
func (r *OrderRepo) GetByIDForUser(ctx context.Context, id, userID string) (model.OrderDetail, error) {
	out, err := r.listDetails(ctx, orderDetailSelect+" WHERE o.id = ? AND o.user_id = ?", id, userID)
	if err != nil {
		return model.OrderDetail{}, err
	}
	if len(out) == 0 {
		return model.OrderDetail{}, ErrNotFound
	}
	out[0].Username = nil
	return out[0], nil
}

// ListAll returns every order with its customer's username for the console.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.OrderDetail, error) {
	return r.listDetails(ctx, orderDetailSelect+" ORDER BY o.order_date DESC, o.id DESC")
}
