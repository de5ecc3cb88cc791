package auth

import "strings"

// AdminLoginRequest is the credential pair for the admin login endpoint.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate returns an error message, or "" when the request is well formed.
func (r *AdminLoginRequest) Validate() string {
	if strings.TrimSpace(r.Username) == "" {
		return "Username is required"
	}
	if r.Password == "" {
		return "Password is required"
	}
	return ""
}
