package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nurpe/marketplace-payments/internal/model"
	"github.com/nurpe/marketplace-payments/internal/ports"
)

var (
	contractCols = []string{"id", "terms", "status", "contractor_id", "client_id", "created_at", "updated_at"}
	jobCols      = []string{
		"id", "description", "price", "paid", "payment_date", "contract_id", "created_at", "updated_at",
		"contract_terms", "contract_status", "contract_contractor_id", "contract_client_id",
		"contract_created_at", "contract_updated_at",
	}
	profileCols = []string{"id", "first_name", "last_name", "profession", "balance", "type", "created_at", "updated_at"}
)

func openMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return database, mock
}

func TestContractRepositoryGetContract(t *testing.T) {
	database, mock := openMock(t)
	repo := NewContractRepository(database)

	id, contractorID, clientID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM contracts")).
		WillReturnRows(sqlmock.NewRows(contractCols).
			AddRow(id.String(), "bla bla", "in_progress", contractorID.String(), clientID.String(), now, now))

	contract, err := repo.GetContract(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, contract.ID)
	assert.Equal(t, model.ContractStatusInProgress, contract.Status)
	assert.Equal(t, contractorID, contract.ContractorID)
	assert.Equal(t, clientID, contract.ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryGetContractNotFound(t *testing.T) {
	database, mock := openMock(t)
	repo := NewContractRepository(database)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contracts")).
		WillReturnRows(sqlmock.NewRows(contractCols))

	_, err := repo.GetContract(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestJobRepositoryListUnpaidJobs(t *testing.T) {
	database, mock := openMock(t)
	repo := NewJobRepository(database)

	jobID, contractID, contractorID, clientID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE j.paid IS NULL")).
		WillReturnRows(sqlmock.NewRows(jobCols).AddRow(
			jobID.String(), "work", "201.50", nil, nil, contractID.String(), now, now,
			"terms", "in_progress", contractorID.String(), clientID.String(), now, now,
		))

	jobs, err := repo.ListUnpaidJobs(context.Background(), clientID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Equal(t, jobID, job.ID)
	assert.True(t, job.Price.Equal(decimal.RequireFromString("201.5")))
	assert.Nil(t, job.Paid)
	assert.False(t, job.IsPaid())
	require.NotNil(t, job.Contract)
	assert.Equal(t, contractID, job.Contract.ID)
	assert.Equal(t, clientID, job.Contract.ClientID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreCommitsLedgerWork(t *testing.T) {
	database, mock := openMock(t)
	store := NewStore(database)

	jobID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var changed bool
	err := store.WithinTransaction(context.Background(), func(ledger ports.Ledger) error {
		var err error
		changed, err = ledger.MarkJobPaid(context.Background(), jobID, time.Now())
		return err
	})
	require.NoError(t, err)
	assert.True(t, changed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRollsBackOnError(t *testing.T) {
	database, mock := openMock(t)
	store := NewStore(database)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE profiles")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.WithinTransaction(context.Background(), func(ledger ports.Ledger) error {
		_, err := ledger.AdjustBalance(context.Background(), uuid.New(), decimal.NewFromInt(5))
		return err
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerMarkJobPaidReportsLostRace(t *testing.T) {
	database, mock := openMock(t)
	store := NewStore(database)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("AND paid IS NULL")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var changed bool
	err := store.WithinTransaction(context.Background(), func(ledger ports.Ledger) error {
		var err error
		changed, err = ledger.MarkJobPaid(context.Background(), uuid.New(), time.Now())
		return err
	})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestLedgerLockProfilesAndOutstandingTotal(t *testing.T) {
	database, mock := openMock(t)
	store := NewStore(database)

	clientID := uuid.New()
	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(clientID.String(), "Harry", "Potter", "Wizard", "1150.00", "client", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(SUM(j.price), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("402.00"))
	mock.ExpectCommit()

	err := store.WithinTransaction(context.Background(), func(ledger ports.Ledger) error {
		profiles, err := ledger.LockProfiles(context.Background(), clientID, clientID)
		require.NoError(t, err)
		require.Contains(t, profiles, clientID)
		assert.Equal(t, model.ProfileTypeClient, profiles[clientID].Type)
		assert.True(t, profiles[clientID].Balance.Equal(decimal.NewFromInt(1150)))

		total, err := ledger.OutstandingTotal(context.Background(), clientID)
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(402)))
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryBestProfessionUsesMetric(t *testing.T) {
	database, mock := openMock(t)
	repo := NewReportRepository(database)

	mock.ExpectQuery(regexp.QuoteMeta("SUM(j.price) AS amount")).
		WillReturnRows(sqlmock.NewRows([]string{"profession", "amount"}).AddRow("Programmer", "2683.00"))

	best, err := repo.BestProfession(context.Background(), time.Now().Add(-time.Hour), time.Now(), model.ProfessionMetricSum)
	require.NoError(t, err)
	assert.Equal(t, "Programmer", best.Profession)
	assert.True(t, best.Amount.Equal(decimal.NewFromInt(2683)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryBestProfessionEmpty(t *testing.T) {
	database, mock := openMock(t)
	repo := NewReportRepository(database)

	mock.ExpectQuery(regexp.QuoteMeta("MAX(j.price) AS amount")).
		WillReturnRows(sqlmock.NewRows([]string{"profession", "amount"}))

	_, err := repo.BestProfession(context.Background(), time.Now().Add(-time.Hour), time.Now(), model.ProfessionMetricMax)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReportRepositoryBestProfessionRejectsUnknownMetric(t *testing.T) {
	database, _ := openMock(t)
	repo := NewReportRepository(database)

	_, err := repo.BestProfession(context.Background(), time.Now(), time.Now(), model.ProfessionMetric("avg"))
	assert.Error(t, err)
}

func TestReportRepositoryBestClients(t *testing.T) {
	database, mock := openMock(t)
	repo := NewReportRepository(database)

	first, second := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN profiles p ON p.id = c.client_id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "paid"}).
			AddRow(first.String(), "Ash", "Kethcum", "2020.00").
			AddRow(second.String(), "Mr", "Robot", "442.00"))

	clients, err := repo.BestClients(context.Background(), time.Now().Add(-time.Hour), time.Now(), 2)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, first, clients[0].ID)
	assert.Equal(t, "Ash Kethcum", clients[0].FullName)
	assert.True(t, clients[1].Paid.Equal(decimal.NewFromInt(442)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueSorted(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	assert.Equal(t, []uuid.UUID{b, a}, uniqueSorted([]uuid.UUID{a, b, a}))
}
