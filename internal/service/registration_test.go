package service

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"MonikaNotify/internal/model/dto"
	"MonikaNotify/internal/repository"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/whatsapp"
)

var regNow = time.Date(2024, 4, 26, 10, 0, 0, 0, time.UTC)

type fakeLocker struct {
	held    map[string]bool
	err     error
	unlocks int
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key string) error {
	delete(f.held, key)
	f.unlocks++
	return nil
}

type registrationFixture struct {
	svc    *RegistrationService
	sql    sqlmock.Sqlmock
	wa     *whatsapp.MockClient
	locker *fakeLocker
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	dispatch, wa := newDispatch()
	locker := &fakeLocker{held: map[string]bool{}}
	svc := NewRegistrationService(repository.NewStore(db), dispatch, locker, RegistrationOptions{
		TTL:            10 * time.Minute,
		ResendCooldown: 15 * time.Minute,
	})
	svc.now = func() time.Time { return regNow }
	svc.newToken = func() string { return "11111111-2222-3333-4444-555555555555" }

	return &registrationFixture{svc: svc, sql: mock, wa: wa, locker: locker}
}

func emptyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"})
}

const (
	selectUser         = `SELECT * FROM "users" WHERE phone_hash = $1`
	selectRegByPhone   = `SELECT * FROM "registrations" WHERE phone_hash = $1`
	selectRegByToken   = `SELECT * FROM "registrations" WHERE token = $1`
	selectTokenByToken = `SELECT * FROM "webhook_tokens" WHERE token = $1`
	selectTokenByUser  = `SELECT * FROM "webhook_tokens" WHERE "user" = $1`
)

func TestRegisterValidation(t *testing.T) {
	f := newRegistrationFixture(t)

	for _, req := range []dto.RegisterRequest{
		{Name: "Mo", Phone: "+628123456789"},
		{Name: "Monika", Phone: "+62812"},
	} {
		_, err := f.svc.Register(context.Background(), &req)
		assert.ErrorIs(t, err, errors.InvalidData)
	}
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestRegisterCreatesRegistrationAndSendsConfirmation(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).WillReturnRows(emptyRows())
	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByPhone)).WillReturnRows(emptyRows())
	f.sql.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "registrations"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	res, err := f.svc.Register(context.Background(), &dto.RegisterRequest{Name: "Monika", Phone: "08123456789"})
	require.NoError(t, err)
	assert.Equal(t, &dto.RegisterResponse{
		Name:      "Monika",
		Phone:     "+8123456789",
		ExpiredAt: "2024-04-26T10:10:00.000Z",
	}, res)

	call, ok := f.wa.LastCall()
	require.True(t, ok)
	assert.Equal(t, "confirmation", call.Template)
	assert.Equal(t, "+8123456789", call.To)
	assert.Equal(t, "https://whatsapp.monika.example/confirm/11111111-2222-3333-4444-555555555555", call.Params[1])

	assert.Equal(t, 1, f.locker.unlocks)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestRegisterRejectsExistingUserAndPendingRegistration(t *testing.T) {
	f := newRegistrationFixture(t)
	req := &dto.RegisterRequest{Name: "Monika", Phone: "+628123456789"}

	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash"}).AddRow(1, "+628123456789"))
	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, errors.PhoneNumberAlreadyRegistered)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).WillReturnRows(emptyRows())
	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByPhone)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash", "expired_at"}).AddRow(1, "+628123456789", regNow.Add(time.Minute)))
	_, err = f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, errors.RegistrationAlreadyAttempted)

	assert.Equal(t, 0, f.wa.CallCount())
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestRegisterRefreshesExpiredRegistration(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).WillReturnRows(emptyRows())
	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByPhone)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash", "expired_at"}).AddRow(1, "+628123456789", regNow.Add(-time.Minute)))
	f.sql.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT ("phone_hash") DO UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{Name: "Monika", Phone: "628123456789"})
	require.NoError(t, err)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestRegisterLockHeldAndLockUnavailable(t *testing.T) {
	f := newRegistrationFixture(t)
	req := &dto.RegisterRequest{Name: "Monika", Phone: "+628123456789"}

	f.locker.held["register:+628123456789"] = true
	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, errors.RegistrationAlreadyAttempted)

	f.locker.err = stderrors.New("redis down")
	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash"}).AddRow(1, "+628123456789"))
	_, err = f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, errors.PhoneNumberAlreadyRegistered)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestConfirm(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByToken)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash", "name", "token", "expired_at"}).
			AddRow(3, "+628123456789", "Monika", "reg-token", regNow.Add(5*time.Minute)))
	f.sql.ExpectBegin()
	f.sql.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	f.sql.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "webhook_tokens"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(20))
	f.sql.ExpectExec(regexp.QuoteMeta(`DELETE FROM "registrations" WHERE phone_hash = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sql.ExpectCommit()

	res, err := f.svc.Confirm(context.Background(), &dto.TokenRequest{Token: "reg-token"})
	require.NoError(t, err)
	assert.Equal(t, &dto.ConfirmResponse{Name: "Monika", Token: "11111111-2222-3333-4444-555555555555"}, res)

	call, _ := f.wa.LastCall()
	assert.Equal(t, "instruction", call.Template)
	assert.Equal(t, "+628123456789", call.To)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestConfirmRejectsMissingAndExpiredTokens(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Confirm(ctx, &dto.TokenRequest{})
	assert.ErrorIs(t, err, errors.InvalidData)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByToken)).WillReturnRows(emptyRows())
	_, err = f.svc.Confirm(ctx, &dto.TokenRequest{Token: "nope"})
	assert.ErrorIs(t, err, errors.InvalidToken)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByToken)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "expired_at"}).AddRow(3, "old", regNow.Add(-time.Second)))
	_, err = f.svc.Confirm(ctx, &dto.TokenRequest{Token: "old"})
	assert.ErrorIs(t, err, errors.InvalidToken)

	assert.Equal(t, 0, f.wa.CallCount())
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestConfirmRollsBackOnFailure(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectRegByToken)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash", "name", "token", "expired_at"}).
			AddRow(3, "+628123456789", "Monika", "reg-token", regNow.Add(5*time.Minute)))
	f.sql.ExpectBegin()
	f.sql.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).WillReturnError(stderrors.New("duplicate key"))
	f.sql.ExpectRollback()

	_, err := f.svc.Confirm(context.Background(), &dto.TokenRequest{Token: "reg-token"})
	assert.Error(t, err)
	assert.Equal(t, 0, f.wa.CallCount())
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestResend(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user", "name", "resend_at"}).
			AddRow(20, "wh-token", "+628123456789", "Monika", nil))
	f.sql.ExpectExec(regexp.QuoteMeta(`UPDATE "webhook_tokens" SET "resend_at"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := f.svc.Resend(context.Background(), &dto.ResendRequest{Name: "Monika", Phone: "628123456789"})
	require.NoError(t, err)
	assert.Equal(t, &dto.ResendResponse{Phone: "+628123456789", ResendAt: "2024-04-26T10:15:00.000Z"}, res)

	call, _ := f.wa.LastCall()
	assert.Equal(t, "https://notify.monika.example/api/notify?token=wh-token", call.Params[0])
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestResendErrors(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()
	req := &dto.ResendRequest{Name: "Monika", Phone: "+628123456789"}

	_, err := f.svc.Resend(ctx, &dto.ResendRequest{Name: "Monika"})
	assert.ErrorIs(t, err, errors.InvalidData)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByUser)).WillReturnRows(emptyRows())
	_, err = f.svc.Resend(ctx, req)
	assert.ErrorIs(t, err, errors.WebhookNotFound)

	// resend_at 等于 now 仍在冷却期内
	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user", "resend_at"}).AddRow(20, "wh-token", "+628123456789", regNow))
	_, err = f.svc.Resend(ctx, req)
	assert.ErrorIs(t, err, errors.WebhookResendTooSoon)

	assert.Equal(t, 0, f.wa.CallCount())
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	f := newRegistrationFixture(t)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByToken)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user"}).AddRow(20, "wh-token", "+628123456789"))
	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash"}).AddRow(10, "+628123456789"))
	f.sql.ExpectBegin()
	f.sql.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE phone_hash = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sql.ExpectExec(regexp.QuoteMeta(`DELETE FROM "webhook_tokens" WHERE token = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.sql.ExpectCommit()

	res, err := f.svc.Delete(context.Background(), &dto.TokenRequest{Token: "wh-token"})
	require.NoError(t, err)
	assert.Equal(t, &dto.DeleteResponse{Token: "wh-token"}, res)
	require.NoError(t, f.sql.ExpectationsWereMet())
}

func TestDeleteErrors(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Delete(ctx, &dto.TokenRequest{})
	assert.ErrorIs(t, err, errors.InvalidData)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByToken)).WillReturnRows(emptyRows())
	_, err = f.svc.Delete(ctx, &dto.TokenRequest{Token: "gone"})
	assert.ErrorIs(t, err, errors.WebhookTokenNotFound)

	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByToken)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user"}).AddRow(20, "wh-token", "+628123456789"))
	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).WillReturnRows(emptyRows())
	_, err = f.svc.Delete(ctx, &dto.TokenRequest{Token: "wh-token"})
	assert.ErrorIs(t, err, errors.UserNotFound)

	require.NoError(t, f.sql.ExpectationsWereMet())
}

func expectTokenAndUser(f *registrationFixture) {
	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByToken)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user"}).AddRow(20, "wh-token", "+628123456789"))
	f.sql.ExpectQuery(regexp.QuoteMeta(selectUser)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone_hash"}).AddRow(10, "+628123456789"))
}

func TestTestWebhookSendsFakeData(t *testing.T) {
	cases := []struct {
		kind     string
		template string
		params   []string
	}{
		{"start", "start_message", []string{"127.0.0.1"}},
		{"terminate", "termination", []string{"127.0.0.1"}},
		{"incident", "incident", []string{"Status is 400, was expecting 200.", "http://www.example.com", "Fri, 26 Apr 2024 10:00:00 GMT", testHost}},
		{"recovery-symon", "recovery", []string{"Service is ok. Status now 200", "http://www.example.com", "Fri, 26 Apr 2024 10:00:00 GMT", testHost}},
		{"status-update", "status_update", []string{"Fri, 26 Apr 2024 10:00:00 GMT", testHost, "10", "100ms", "1", "1", "1"}},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			f := newRegistrationFixture(t)
			expectTokenAndUser(f)

			res, err := f.svc.TestWebhook(context.Background(), &dto.TestWebhookRequest{Type: tc.kind, Token: "wh-token"})
			require.NoError(t, err)
			assert.Equal(t, "mock-message-1", res.MessageID)

			call, _ := f.wa.LastCall()
			assert.Equal(t, tc.template, call.Template)
			assert.Equal(t, tc.params, call.Params)
			assert.Equal(t, "+628123456789", call.To)
		})
	}
}

func TestTestWebhookErrors(t *testing.T) {
	f := newRegistrationFixture(t)
	ctx := context.Background()

	for _, req := range []dto.TestWebhookRequest{
		{Type: "confirmation", Token: "wh-token"},
		{Type: "reboot", Token: "wh-token"},
		{Type: "start"},
	} {
		_, err := f.svc.TestWebhook(ctx, &req)
		assert.ErrorIs(t, err, errors.InvalidData, req.Type)
	}

	f.sql.ExpectQuery(regexp.QuoteMeta(selectTokenByToken)).WillReturnRows(emptyRows())
	_, err := f.svc.TestWebhook(ctx, &dto.TestWebhookRequest{Type: "start", Token: "gone"})
	assert.ErrorIs(t, err, errors.WebhookNotFound)

	expectTokenAndUser(f)
	f.wa.Err = errors.FetchError
	_, err = f.svc.TestWebhook(ctx, &dto.TestWebhookRequest{Type: "start", Token: "wh-token"})
	assert.ErrorIs(t, err, errors.FetchError)

	require.NoError(t, f.sql.ExpectationsWereMet())
}
