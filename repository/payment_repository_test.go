package repository_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/maisonarome/storefront/models"
	"github.com/maisonarome/storefront/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestPaymentCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	payment := &models.Payment{
		ID:       uuid.New(),
		OrderID:  uuid.New(),
		UserID:   uuid.New(),
		Method:   models.PaymentMethodCard,
		Amount:   2684,
		Currency: "inr",
		Status:   models.PaymentStatusProcessing,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(payment.ID))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), payment)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentFindByStripeIntentID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	p, err := repo.FindByStripeIntentID(context.Background(), "pi_missing")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentUpdateStatus_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormPaymentRepository(gormDB)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "payments"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), id, models.PaymentStatusSucceeded, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAdjustStock_InsufficientStock(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormProductRepository(gormDB)

	variantID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "product_variants"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.AdjustStock(context.Background(), variantID, -5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
