package otp

import (
	"testing"
	"time"

	"esign-backend/database"
	otpModel "esign-backend/models/otp"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// wrongCode returns a 6-digit code guaranteed to differ from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestGenerateCodeFormat(t *testing.T) {
	svc := NewOTPService(nil)
	for i := 0; i < 50; i++ {
		code, err := svc.GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, ch := range code {
			assert.True(t, ch >= '0' && ch <= '9', "code %q contains non-digit", code)
		}
	}
}

func TestIssueCodeStoresOnlyHash(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)
	requestID := uuid.NewString()

	code, record, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)

	assert.NotEqual(t, code, record.CodeHash)
	assert.NotContains(t, record.CodeHash, code)
	assert.Len(t, record.CodeHash, 64)
	assert.Equal(t, 0, record.AttemptCount)
	assert.False(t, record.Consumed)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), record.ExpiresAt, 5*time.Second)
}

func TestVerifyCorrectCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)
	requestID := uuid.NewString()

	code, _, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)

	ok, err := svc.Verify(db, requestID, code)
	require.NoError(t, err)
	assert.True(t, ok)

	consumed, err := svc.HasConsumedLive(db, requestID)
	require.NoError(t, err)
	assert.True(t, consumed)

	// A consumed code cannot be replayed.
	ok, err = svc.Verify(db, requestID, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyWithoutIssuedCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)

	ok, err := svc.Verify(db, uuid.NewString(), "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyExhaustedAttempts(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)
	requestID := uuid.NewString()

	code, _, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, err := svc.Verify(db, requestID, wrongCode(code))
		require.NoError(t, err)
		assert.False(t, ok)
	}

	// The correct code no longer works once the attempt budget is spent.
	ok, err := svc.Verify(db, requestID, code)
	require.NoError(t, err)
	assert.False(t, ok)

	// And the dead record costs no further attempts.
	var record otpModel.OTP
	require.NoError(t, db.Where("request_id = ?", requestID).First(&record).Error)
	assert.Equal(t, 5, record.AttemptCount)
}

func TestVerifyExpiredCode(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)
	requestID := uuid.NewString()

	code, record, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&otpModel.OTP{}).Where("id = ?", record.ID).Update("expires_at", past).Error)

	ok, err := svc.Verify(db, requestID, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReissueSupersedesAndResetsAttempts(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)
	requestID := uuid.NewString()

	firstCode, _, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, err := svc.Verify(db, requestID, wrongCode(firstCode))
		require.NoError(t, err)
		assert.False(t, ok)
	}

	secondCode, second, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.AttemptCount)

	// The superseded code is dead even if it was never consumed.
	if firstCode != secondCode {
		ok, err := svc.Verify(db, requestID, firstCode)
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := svc.Verify(db, requestID, secondCode)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReissueClearsConsumedProof(t *testing.T) {
	db := newTestDB(t)
	svc := NewOTPService(db)
	requestID := uuid.NewString()

	code, _, err := svc.IssueCode(db, requestID)
	require.NoError(t, err)

	ok, err := svc.Verify(db, requestID, code)
	require.NoError(t, err)
	require.True(t, ok)

	// A newer record replaces the verified one, so the identity proof is gone.
	_, _, err = svc.IssueCode(db, requestID)
	require.NoError(t, err)

	consumed, err := svc.HasConsumedLive(db, requestID)
	require.NoError(t, err)
	assert.False(t, consumed)
}
