package integrity

// VerifyRequest carries a candidate document hash.
type VerifyRequest struct {
	FileHash string `json:"file_hash"`
}

// VerifyResponse classifies a hash lookup. Valid is true iff the hash is
// registered in the system.
type VerifyResponse struct {
	Valid         bool   `json:"valid"`
	FoundInSystem bool   `json:"found_in_system"`
	Message       string `json:"message"`
}
