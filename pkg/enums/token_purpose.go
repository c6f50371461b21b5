package enums

import "fmt"

// TokenPurpose maps to the token_purpose enum in Postgres.
type TokenPurpose string

const (
	TokenPurposeConfirmEmail  TokenPurpose = "confirm_email"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

var validTokenPurposes = []TokenPurpose{
	TokenPurposeConfirmEmail,
	TokenPurposePasswordReset,
}

func (p TokenPurpose) IsValid() bool {
	for _, candidate := range validTokenPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseTokenPurpose converts raw input into a TokenPurpose.
func ParseTokenPurpose(value string) (TokenPurpose, error) {
	for _, candidate := range validTokenPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid token purpose %q", value)
}
