package enums

import "fmt"

// UserType maps to the user_type enum in Postgres.
type UserType string

const (
	UserTypeBuyer   UserType = "buyer"
	UserTypeShop    UserType = "shop"
	UserTypeManager UserType = "manager"
	UserTypeAdmin   UserType = "admin"
)

var validUserTypes = []UserType{
	UserTypeBuyer,
	UserTypeShop,
	UserTypeManager,
	UserTypeAdmin,
}

// String implements fmt.Stringer.
func (u UserType) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserType.
func (u UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// CanSelfRegister reports whether the type may be chosen at registration.
func (u UserType) CanSelfRegister() bool {
	return u == UserTypeBuyer || u == UserTypeShop
}

// IsStaff reports whether the type manages orders across all shops.
func (u UserType) IsStaff() bool {
	return u == UserTypeManager || u == UserTypeAdmin
}

// ParseUserType converts raw input into a UserType.
func ParseUserType(value string) (UserType, error) {
	for _, candidate := range validUserTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user type %q", value)
}
