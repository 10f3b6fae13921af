package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/jrsteele09/go-session-gateway/internal/errors"
)

// RoleType is the role a user holds on the payroll platform.
type RoleType string

const (
	RoleAdmin    RoleType = "admin"    // Platform operator, can revoke tokens
	RoleEmployer RoleType = "employer" // Runs payroll for an organisation
	RoleEmployee RoleType = "employee" // Receives payroll
	RoleAuditor  RoleType = "auditor"  // Read-only compliance access
)

var knownRoles = map[RoleType]struct{}{
	RoleAdmin:    {},
	RoleEmployer: {},
	RoleEmployee: {},
	RoleAuditor:  {},
}

// ParseRole accepts any casing ("ADMIN", "Admin") and rejects unknown roles.
func ParseRole(s string) (RoleType, error) {
	role := RoleType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownRoles[role]; !ok {
		return "", errors.Wrapf(errors.ErrInvalidRole, "users.ParseRole %q", s)
	}
	return role, nil
}

func (r RoleType) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

// Identity is the user information a client keeps next to its bearer
// credential in the persisted session.
type Identity struct {
	ID    string   `json:"id,omitempty"`
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Role  RoleType `json:"role,omitempty"`
}

type User struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never serialize
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Role         RoleType  `json:"role,omitempty"`
	DateJoined   time.Time `json:"date_joined,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	Blocked      bool      `json:"blocked,omitempty"`
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) Identity() Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.DisplayName(),
		Email: u.Email,
		Role:  u.Role,
	}
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
