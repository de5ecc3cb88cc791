package signature

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"esign-backend/apperrors"
	contractModel "esign-backend/models/contract"
	signatureModel "esign-backend/models/signature"
	"esign-backend/utils"

	"github.com/google/uuid"
)

// signedEnvelope is the canonical record of one completed signature. Its
// serialized bytes are the signed artifact that gets hashed and registered,
// binding the submitted values, the signer identity and the original template
// hash together.
type signedEnvelope struct {
	RequestID        string            `json:"request_id"`
	ContractID       string            `json:"contract_id"`
	SignerName       string            `json:"signer_name"`
	SignerEmail      string            `json:"signer_email"`
	FormData         map[string]string `json:"form_data"`
	SignedAt         string            `json:"signed_at"`
	IPAddress        string            `json:"ip_address"`
	UserAgent        string            `json:"user_agent"`
	OriginalFileHash string            `json:"original_file_hash"`
}

// writeSignedArtifact copies the template file next to a canonical JSON
// envelope and returns the artifact path and envelope hash. Called before the
// signing transaction commits; any failure rolls the signature back.
func (m *Manager) writeSignedArtifact(req *signatureModel.SignatureRequest, contract *contractModel.Contract, fields map[string]string, ip, userAgent string, signedAt time.Time) (string, string, error) {
	if err := os.MkdirAll(m.SignedDir, os.ModePerm); err != nil {
		return "", "", apperrors.Storage("failed to create signed storage directory", err)
	}

	artifactID := uuid.NewString()
	pdfPath := filepath.Join(m.SignedDir, fmt.Sprintf("%s%s", artifactID, filepath.Ext(contract.FilePath)))
	dataPath := filepath.Join(m.SignedDir, fmt.Sprintf("%s_data.json", artifactID))

	original, err := os.ReadFile(contract.FilePath)
	if err != nil {
		return "", "", apperrors.Storage("failed to read contract template file", err)
	}
	if err := os.WriteFile(pdfPath, original, 0644); err != nil {
		return "", "", apperrors.Storage("failed to copy contract template file", err)
	}

	envelope := signedEnvelope{
		RequestID:        req.ID,
		ContractID:       contract.ID,
		SignerName:       req.SignerName,
		SignerEmail:      req.SignerEmail,
		FormData:         fields,
		SignedAt:         signedAt.UTC().Format(time.RFC3339Nano),
		IPAddress:        ip,
		UserAgent:        userAgent,
		OriginalFileHash: contract.FileHash,
	}

	payload, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", "", apperrors.Storage("failed to encode signature envelope", err)
	}
	if err := os.WriteFile(dataPath, payload, 0644); err != nil {
		return "", "", apperrors.Storage("failed to write signature envelope", err)
	}

	return pdfPath, utils.SHA256Bytes(payload), nil
}
