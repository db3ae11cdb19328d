package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/voltride-support/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var ts = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func TestProfileUpsertByPhone(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepo(db)

	mock.ExpectExec("INSERT INTO profiles").
		WithArgs(sqlmock.AnyArg(), "+4915112345678", "+4915112345678").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT id, phone, username, created_at, updated_at FROM profiles WHERE phone=").
		WithArgs("+4915112345678").
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "username", "created_at", "updated_at"}).
			AddRow("p-1", "+4915112345678", "+4915112345678", ts, ts))

	p, err := repo.UpsertByPhone(context.Background(), "+4915112345678")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	require.NotNil(t, p.Username)
	assert.Equal(t, "+4915112345678", *p.Username)
}

func TestProfileRoleOf(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepo(db)

	mock.ExpectQuery("SELECT role FROM user_roles").WithArgs("p-1").WillReturnError(sql.ErrNoRows)
	role, err := repo.RoleOf(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, role)

	mock.ExpectQuery("SELECT role FROM user_roles").WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("admin"))
	role, err = repo.RoleOf(context.Background(), "p-2")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, role)
}

func TestAdminGetActiveByUsernameMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM admin_accounts WHERE username=").WithArgs("root").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "is_active", "created_at"}))

	_, err := NewAdminRepo(db).GetActiveByUsername(context.Background(), " root ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenValidateRefresh(t *testing.T) {
	cols := []string{"subject_id", "role", "expires_at", "revoked_at"}
	future := time.Now().UTC().Add(time.Hour)

	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{"valid", sqlmock.NewRows(cols).AddRow("p-1", model.RoleUser, future, nil), nil},
		{"revoked", sqlmock.NewRows(cols).AddRow("p-1", model.RoleUser, future, ts), ErrNotFound},
		{"expired", sqlmock.NewRows(cols).AddRow("p-1", model.RoleUser, time.Now().UTC().Add(-time.Minute), nil), ErrNotFound},
		{"missing", sqlmock.NewRows(cols), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery("FROM refresh_tokens WHERE token_hash=").WithArgs("h").WillReturnRows(tt.rows)

			sub, role, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p-1", sub)
			assert.Equal(t, model.RoleUser, role)
		})
	}
}

var questionColumns = []string{"id", "question", "answer", "category", "keywords", "is_active", "created_by", "created_at", "updated_at"}

func TestQuestionListActivePage(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQuestionRepo(db)

	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(41))
	mock.ExpectQuery("FROM domain_questions WHERE is_active = 1 ORDER BY created_at DESC, id DESC LIMIT").
		WithArgs(20, 40).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow("q-1", "Is it waterproof?", "IP54 rated.", "Specs", `["rain","water"]`, true, "a-1", ts, ts).
			AddRow("q-2", "Where is my order?", "See Orders.", "Orders", nil, true, "a-1", ts, ts))

	items, total, err := repo.ListActivePage(context.Background(), 20, 40)
	require.NoError(t, err)
	assert.Equal(t, 41, total)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"rain", "water"}, items[0].Keywords)
	assert.Equal(t, []string{}, items[1].Keywords)
}

func TestQuestionCreateDefaultsCategory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewQuestionRepo(db)

	mock.ExpectExec("INSERT INTO domain_questions").
		WithArgs(sqlmock.AnyArg(), "Q?", "A.", model.DefaultCategory, "[]", "a-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM domain_questions WHERE id = \\? AND is_active = 1").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(questionColumns).
			AddRow("q-9", "Q?", "A.", model.DefaultCategory, "[]", true, "a-1", ts, ts))

	q := &model.DomainQuestion{Question: "Q?", Answer: "A.", Category: "  ", CreatedBy: "a-1"}
	require.NoError(t, repo.Create(context.Background(), q))
	assert.Equal(t, "q-9", q.ID)
	assert.Equal(t, model.DefaultCategory, q.Category)
}

func TestQuestionSoftDeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE domain_questions SET is_active = 0").WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewQuestionRepo(db).SoftDelete(context.Background(), "nope"), ErrNotFound)
}

func TestScooterListAvailableNullables(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "name", "model", "description", "price", "max_speed", "range_km", "battery_capacity",
		"weight_kg", "max_load_kg", "image_url", "stock_quantity", "is_available", "created_at", "updated_at"}
	mock.ExpectQuery("FROM scooters WHERE is_available = 1 ORDER BY price ASC").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s-1", "City", "C1", nil, 49900, 25, 30, "36V 10Ah", 14.5, 100, nil, 3, true, ts, ts).
			AddRow("s-2", "Pro", "P2", "fast", 99900, nil, nil, nil, nil, nil, "https://img/p2.png", 0, true, ts, ts))

	got, err := NewScooterRepo(db).ListAvailable(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Description)
	require.NotNil(t, got[0].WeightKG)
	assert.InDelta(t, 14.5, *got[0].WeightKG, 0.001)
	assert.Equal(t, uint32(49900), got[0].Price)
	assert.Nil(t, got[1].MaxSpeed)
	require.NotNil(t, got[1].ImageURL)
}

func TestScooterDecrementStockGuard(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE scooters SET stock_quantity = stock_quantity - \\?").
		WithArgs(uint32(5), "s-1", uint32(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = NewScooterRepo(db).DecrementStockTx(context.Background(), tx, "s-1", 5)
	assert.True(t, errors.Is(err, ErrOutOfStock))
	require.NoError(t, tx.Rollback())
}

func orderDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "scooter_id", "quantity", "unit_price", "total_amount", "status",
		"shipping_address", "phone_number", "notes", "order_date", "estimated_delivery", "created_at", "updated_at",
		"name", "model", "image_url", "username"})
}

func TestOrderListByUserHidesUsername(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM scooter_orders o").WithArgs("p-1").
		WillReturnRows(orderDetailRows().
			AddRow("o-1", "p-1", "s-1", 2, 49900, 99800, "pending", "Main St 1", "+100000000", nil, ts, nil, ts, ts,
				"City", "C1", nil, "alice"))

	got, err := NewOrderRepo(db).ListByUser(context.Background(), "p-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(99800), got[0].TotalAmount)
	assert.Equal(t, "City", got[0].Scooter.Name)
	assert.Nil(t, got[0].Username)
	assert.Nil(t, got[0].Notes)
}

func TestOrderGetByIDForUserNotOwned(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM scooter_orders o").WithArgs("o-1", "p-2").WillReturnRows(orderDetailRows())

	_, err := NewOrderRepo(db).GetByIDForUser(context.Background(), "o-1", "p-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderListAllKeepsUsername(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM scooter_orders o").
		WillReturnRows(orderDetailRows().
			AddRow("o-1", "p-1", "s-1", 1, 49900, 49900, "shipped", "Main St 1", "+100000000", "ring bell", ts, ts, ts, ts,
				"City", "C1", "https://img/c1.png", "alice"))

	got, err := NewOrderRepo(db).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Username)
	assert.Equal(t, "alice", *got[0].Username)
	require.NotNil(t, got[0].EstimatedDelivery)
}

func TestChatInsertPairCommits(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(sqlmock.AnyArg(), "sess", "p-1", model.MessageUser, "hello", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(sqlmock.AnyArg(), "sess", "p-1", model.MessageBot, "hi", ts.Add(time.Millisecond)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &model.ChatMessage{SessionID: "sess", UserID: "p-1", Type: model.MessageUser, Content: "hello", CreatedAt: ts}
	bot := &model.ChatMessage{SessionID: "sess", UserID: "p-1", Type: model.MessageBot, Content: "hi", CreatedAt: ts.Add(time.Millisecond)}
	require.NoError(t, NewChatRepo(db).InsertPair(context.Background(), user, bot))
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, user.ID, bot.ID)
}

func TestChatInsertPairRollsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO chat_messages").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	user := &model.ChatMessage{SessionID: "sess", UserID: "p-1", Type: model.MessageUser, Content: "hello", CreatedAt: ts}
	bot := &model.ChatMessage{SessionID: "sess", UserID: "p-1", Type: model.MessageBot, Content: "hi", CreatedAt: ts}
	assert.Error(t, NewChatRepo(db).InsertPair(context.Background(), user, bot))
}

func TestChatSessionOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT user_id FROM chat_messages WHERE session_id = \\?").WithArgs("sess").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("p-1"))
	mock.ExpectQuery("SELECT user_id FROM chat_messages WHERE session_id = \\?").WithArgs("fresh").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	repo := NewChatRepo(db)
	owner, err := repo.SessionOwner(context.Background(), "sess")
	require.NoError(t, err)
	assert.Equal(t, "p-1", owner)

	_, err = repo.SessionOwner(context.Background(), "fresh")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedbackCreateBlankTextIsNull(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("INSERT INTO chat_feedback").
		WithArgs(sqlmock.AnyArg(), "p-1", "sess", 4, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	blank := "   "
	f := &model.ChatFeedback{UserID: "p-1", SessionID: "sess", SatisfactionRating: 4, FeedbackText: &blank}
	require.NoError(t, NewFeedbackRepo(db).Create(context.Background(), f))
}

func TestQueryListFiltersByStatus(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "user_id", "original_query", "bot_response", "status", "created_at", "updated_at"}
	mock.ExpectQuery("FROM submitted_queries WHERE status = \\?").WithArgs(model.QueryReviewed).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sq-1", "p-1", "brakes?", "fallback", model.QueryReviewed, ts, ts))

	got, err := NewQueryRepo(db).List(context.Background(), model.QueryReviewed)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "brakes?", got[0].OriginalQuery)
}

func TestQueryUpdateStatusMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("UPDATE submitted_queries").WithArgs(model.QueryResolved, "sq-x").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, NewQueryRepo(db).UpdateStatus(context.Background(), "sq-x", model.QueryResolved), ErrNotFound)
}

func TestStockErrorMatchesSentinel(t *testing.T) {
	err := error(&StockError{Requested: 3, Available: 1})
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Contains(t, err.Error(), "available 1")
}
