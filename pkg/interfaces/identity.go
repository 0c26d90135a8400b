package interfaces

import (
	"github.com/healthbridge/healthbridge/pkg/types"
)

// IdentityService defines the interface for identity and session management
type IdentityService interface {
	// Registration and authentication
	Signup(req *types.SignupRequest) (*types.AuthResponse, error)
	SendOTP(email string) error
	LoginOTP(creds *types.OTPCredentials) (*types.AuthResponse, error)
	LoginPassword(creds *types.Credentials) (*types.AuthResponse, error)

	// Session
	ValidateToken(token string) (*types.UserClaims, error)

	// Profile
	GetUser(userID string) (*types.User, error)
	UpdateProfile(userID string, updates *types.ProfileUpdates) (*types.User, error)
}

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	Create(user *types.User) error
	GetByID(id string) (*types.User, error)
	GetByEmail(email string) (*types.User, error)
	GetByPhone(phone string) (*types.User, error)
	Update(id string, updates *types.ProfileUpdates) error
	ListByRole(role types.UserRole) ([]*types.DirectoryEntry, error)
}

// PasswordManager defines the interface for password operations
type PasswordManager interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hashedPassword, password string) (bool, error)
}

// OTPProvider defines the interface for one-time passcode issuance
type OTPProvider interface {
	Generate(email string) (string, error)
	Verify(email, code string) (bool, error)
}

// TokenManager defines the interface for session token operations
type TokenManager interface {
	Generate(user *types.User) (*types.AuthToken, error)
	Validate(token string) (*types.UserClaims, error)
}
