package signature

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"esign-backend/apperrors"
	"esign-backend/constants"
	"esign-backend/database"
	contractModel "esign-backend/models/contract"
	integrityModel "esign-backend/models/integrity"
	signatureModel "esign-backend/models/signature"
	signatureTypes "esign-backend/types/signature"
	"esign-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// stubNotifier captures delivered codes instead of sending mail.
type stubNotifier struct {
	mu       sync.Mutex
	codes    []string
	failSend bool
}

func (s *stubNotifier) SendOTP(name, email, phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend {
		return assert.AnError
	}
	s.codes = append(s.codes, code)
	return nil
}

func (s *stubNotifier) SendSignedConfirmation(name, email, hash string, signedAt time.Time) error {
	return nil
}

func (s *stubNotifier) lastCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) == 0 {
		return ""
	}
	return s.codes[len(s.codes)-1]
}

func newTestManager(t *testing.T) (*Manager, *stubNotifier, string) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	tmp := t.TempDir()
	templatePath := filepath.Join(tmp, "template.pdf")
	content := []byte("%PDF-1.4 test contract template")
	require.NoError(t, os.WriteFile(templatePath, content, 0644))

	contract := contractModel.Contract{
		ID:       uuid.NewString(),
		Name:     "Membership Contract",
		FilePath: templatePath,
		FileHash: utils.SHA256Bytes(content),
		Fields: contractModel.FieldList{
			{Name: "Nombre", Type: "text"},
			{Name: "Fecha", Type: "text"},
		},
	}
	require.NoError(t, db.Create(&contract).Error)

	stub := &stubNotifier{}
	manager := NewManager(db, stub, filepath.Join(tmp, "signed"))
	return manager, stub, contract.ID
}

func createRequest(t *testing.T, m *Manager, contractID string) *signatureModel.SignatureRequest {
	t.Helper()
	request, err := m.Create(signatureTypes.CreateRequest{
		ContractID:  contractID,
		SignerName:  "Ana",
		SignerEmail: "ana@example.com",
	})
	require.NoError(t, err)
	return request
}

// clearCooldown lets a test re-request an OTP without waiting out the resend
// window.
func clearCooldown(t *testing.T, m *Manager, requestID string) {
	t.Helper()
	past := time.Now().Add(-2 * constants.OTPResendCooldown * time.Second)
	require.NoError(t, m.DB.Model(&signatureModel.SignatureRequest{}).
		Where("id = ?", requestID).
		Update("last_otp_sent_at", past).Error)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestCreateRequest(t *testing.T) {
	m, _, contractID := newTestManager(t)

	request := createRequest(t, m, contractID)
	assert.Equal(t, signatureModel.StatusPending, request.Status)
	assert.GreaterOrEqual(t, len(request.Token), 43) // 32 random bytes, URL-safe
	assert.NotContains(t, request.Token, "+")
	assert.NotContains(t, request.Token, "/")

	entries, err := m.Audit.ListByRequest(request.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.ActionRequestCreated, entries[0].Action)
}

func TestCreateRequestUnknownContract(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.Create(signatureTypes.CreateRequest{
		ContractID:  uuid.NewString(),
		SignerName:  "Ana",
		SignerEmail: "ana@example.com",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestGetByToken(t *testing.T) {
	m, _, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	found, err := m.GetByToken(request.Token)
	require.NoError(t, err)
	assert.Equal(t, request.ID, found.ID)

	_, err = m.GetByToken("no-such-token")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestRequestOTPTransitionsStatus(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "10.0.0.1", "test-agent"))
	assert.Len(t, stub.lastCode(), 6)

	updated, err := m.GetByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, signatureModel.StatusOTPSent, updated.Status)
}

func TestRequestOTPResendCooldown(t *testing.T) {
	m, _, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "", ""))
	err := m.RequestOTP(request.ID, "", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindRateLimit))
}

func TestRequestOTPDeliveryFailureKeepsState(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	stub.failSend = true
	err := m.RequestOTP(request.ID, "", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindDelivery))

	// The transition happened when the code was generated, not delivered.
	updated, getErr := m.GetByID(request.ID)
	require.NoError(t, getErr)
	assert.Equal(t, signatureModel.StatusOTPSent, updated.Status)

	// A retry after the cooldown succeeds.
	stub.failSend = false
	clearCooldown(t, m, request.ID)
	require.NoError(t, m.RequestOTP(request.ID, "", ""))
}

func TestFullSigningScenario(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "10.0.0.1", "test-agent"))
	code := stub.lastCode()
	require.Len(t, code, 6)

	// Five wrong attempts, then the correct code: all six must fail.
	for i := 0; i < 5; i++ {
		ok, err := m.VerifyOTP(request.ID, wrongCode(code), "10.0.0.1", "test-agent")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := m.VerifyOTP(request.ID, code, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.False(t, ok, "correct code after exhausted attempts must fail")

	// A fresh code works.
	clearCooldown(t, m, request.ID)
	require.NoError(t, m.RequestOTP(request.ID, "10.0.0.1", "test-agent"))
	freshCode := stub.lastCode()

	ok, err = m.VerifyOTP(request.ID, freshCode, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.True(t, ok)

	signed, err := m.Submit(request.ID, map[string]string{
		"Nombre": "Ana",
		"Fecha":  "2024-01-01",
	}, "10.0.0.1", "test-agent")
	require.NoError(t, err)

	assert.Equal(t, signatureModel.StatusSigned, signed.Status)
	assert.NotNil(t, signed.SignedAt)
	assert.Len(t, signed.SignedFileHash, 64)
	assert.Equal(t, "Ana", signed.SubmittedFields["Nombre"])

	// The artifact hash is registered for later integrity checks.
	var record integrityModel.IntegrityRecord
	require.NoError(t, m.DB.Where("hash = ?", signed.SignedFileHash).First(&record).Error)
	assert.Equal(t, constants.DocumentKindSigned, record.DocumentKind)
	assert.Equal(t, request.ID, record.OwnerID)

	// The signature is write-once.
	_, err = m.Submit(request.ID, map[string]string{
		"Nombre": "Ana",
		"Fecha":  "2024-01-01",
	}, "10.0.0.1", "test-agent")
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestSubmitWithoutVerifiedOTP(t *testing.T) {
	m, _, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	fields := map[string]string{"Nombre": "Ana", "Fecha": "2024-01-01"}

	// Before any OTP was sent.
	_, err := m.Submit(request.ID, fields, "", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))

	// After sending but before a successful verification.
	require.NoError(t, m.RequestOTP(request.ID, "", ""))
	_, err = m.Submit(request.ID, fields, "", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))
}

func TestSubmitFieldKeyMismatch(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "", ""))
	ok, err := m.VerifyOTP(request.ID, stub.lastCode(), "", "")
	require.NoError(t, err)
	require.True(t, ok)

	cases := []map[string]string{
		{"Nombre": "Ana"}, // missing key
		{"Nombre": "Ana", "Fecha": "2024-01-01", "Extra": "x"}, // extra key
		{"Nombre": "Ana", "Firma": "2024-01-01"},               // renamed key
	}
	for _, fields := range cases {
		_, err := m.Submit(request.ID, fields, "", "")
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "fields %v", fields)
	}

	// The request is still signable after validation failures.
	signed, err := m.Submit(request.ID, map[string]string{"Nombre": "Ana", "Fecha": "2024-01-01"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, signatureModel.StatusSigned, signed.Status)
}

func TestReissueInvalidatesVerification(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "", ""))
	ok, err := m.VerifyOTP(request.ID, stub.lastCode(), "", "")
	require.NoError(t, err)
	require.True(t, ok)

	// A newer OTP supersedes the verified one; signing needs the new proof.
	clearCooldown(t, m, request.ID)
	require.NoError(t, m.RequestOTP(request.ID, "", ""))

	_, err = m.Submit(request.ID, map[string]string{"Nombre": "Ana", "Fecha": "2024-01-01"}, "", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindPrecondition))
}

func TestReject(t *testing.T) {
	m, _, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.Reject(request.ID, "signer unreachable"))

	updated, err := m.GetByID(request.ID)
	require.NoError(t, err)
	assert.Equal(t, signatureModel.StatusRejected, updated.Status)

	// Terminal: nothing leaves rejected.
	assert.True(t, apperrors.IsKind(m.Reject(request.ID, "again"), apperrors.KindPrecondition))
	assert.True(t, apperrors.IsKind(m.RequestOTP(request.ID, "", ""), apperrors.KindPrecondition))
}

func TestRequestOTPAfterSigned(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "", ""))
	ok, err := m.VerifyOTP(request.ID, stub.lastCode(), "", "")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = m.Submit(request.ID, map[string]string{"Nombre": "Ana", "Fecha": "2024-01-01"}, "", "")
	require.NoError(t, err)

	clearCooldown(t, m, request.ID)
	assert.True(t, apperrors.IsKind(m.RequestOTP(request.ID, "", ""), apperrors.KindConflict))
	assert.True(t, apperrors.IsKind(m.Reject(request.ID, "late"), apperrors.KindConflict))
}

func TestConcurrentSubmitExactlyOneSucceeds(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "", ""))
	ok, err := m.VerifyOTP(request.ID, stub.lastCode(), "", "")
	require.NoError(t, err)
	require.True(t, ok)

	fields := map[string]string{"Nombre": "Ana", "Fecha": "2024-01-01"}
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Submit(request.ID, fields, "", "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case apperrors.IsKind(err, apperrors.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestAuditTrailPerRequest(t *testing.T) {
	m, stub, contractID := newTestManager(t)
	request := createRequest(t, m, contractID)

	require.NoError(t, m.RequestOTP(request.ID, "10.0.0.1", "test-agent"))
	code := stub.lastCode()

	ok, err := m.VerifyOTP(request.ID, wrongCode(code), "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = m.VerifyOTP(request.ID, code, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = m.Submit(request.ID, map[string]string{"Nombre": "Ana", "Fecha": "2024-01-01"}, "10.0.0.1", "test-agent")
	require.NoError(t, err)

	entries, err := m.Audit.ListByRequest(request.ID)
	require.NoError(t, err)

	actions := make([]string, len(entries))
	for i, entry := range entries {
		actions[i] = entry.Action
		if i > 0 {
			assert.False(t, entry.Timestamp.Before(entries[i-1].Timestamp),
				"audit entries out of order at index %d", i)
		}
	}
	assert.Equal(t, []string{
		constants.ActionRequestCreated,
		constants.ActionOTPIssued,
		constants.ActionOTPFailed,
		constants.ActionOTPVerified,
		constants.ActionRequestSigned,
	}, actions)

	// The raw code never reaches the trail.
	for _, entry := range entries {
		for _, value := range entry.Details {
			if s, isString := value.(string); isString {
				assert.NotEqual(t, code, s)
			}
		}
	}
}
