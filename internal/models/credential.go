package models

import "time"

// APICredential is a provider API user authenticated with HTTP Basic auth.
// SecretHash is a bcrypt hash of the generated application secret.
type APICredential struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	SecretHash   string    `json:"-" db:"secret_hash"`
	Capabilities []string  `json:"capabilities" db:"capabilities"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject      string   `json:"subject"`
	Capabilities []string `json:"capabilities"`
}

func (p *Principal) HasCapability(capability string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
