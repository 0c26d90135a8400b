package types

import "time"

// UserRole represents the roles principals can hold in the system
type UserRole string

const (
	RoleDoctor  UserRole = "doctor"
	RolePatient UserRole = "patient"
)

// Valid reports whether the role is one of the supported roles
func (r UserRole) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// DoctorProfile holds the fields that are mandatory for doctors only.
// Keeping them on a separate struct (rather than optional fields on User)
// makes the role-conditional requirement explicit in the type.
type DoctorProfile struct {
	Degree             string `json:"degree" db:"degree"`
	RegistrationNumber string `json:"registration_number" db:"registration_number"`
}

// User represents an authenticated principal (doctor or patient)
type User struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Email        string         `json:"email" db:"email"`
	Phone        string         `json:"phone" db:"phone"`
	Role         UserRole       `json:"role" db:"role"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Doctor       *DoctorProfile `json:"doctor,omitempty"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// ContactCard is the projection of a counterpart principal exposed by the
// accepted-appointment listings. It carries just enough to render a contact
// entry, never the full record.
func (u *User) ContactCard() *ContactCard {
	card := &ContactCard{
		ID:   u.ID,
		Name: u.Name,
		Role: u.Role,
	}
	if u.Doctor != nil {
		card.Degree = u.Doctor.Degree
		card.RegistrationNumber = u.Doctor.RegistrationNumber
	}
	return card
}

// ContactCard is a reduced view of a principal used in contact listings
type ContactCard struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Role               UserRole `json:"role"`
	Degree             string   `json:"degree,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
}

// DirectoryEntry is the minimal projection returned by directory lookups
type DirectoryEntry struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Role UserRole `json:"role"`
}

// SignupRequest represents user registration data
type SignupRequest struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	Password           string   `json:"password"`
	Role               UserRole `json:"role"`
	Degree             string   `json:"degree,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`
}

// Credentials represents an email/password login attempt
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPRequest asks for a one-time code to be delivered to the given email
type OTPRequest struct {
	Email string `json:"email"`
}

// OTPCredentials represents an email/OTP login attempt
type OTPCredentials struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ProfileUpdates represents a partial profile mutation. Role and email are
// immutable and deliberately absent.
type ProfileUpdates struct {
	Name               *string `json:"name,omitempty"`
	Phone              *string `json:"phone,omitempty"`
	Degree             *string `json:"degree,omitempty"`
	RegistrationNumber *string `json:"registration_number,omitempty"`
}

// AuthToken represents an issued session token
type AuthToken struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// AuthResponse is the envelope returned by signup and login operations
type AuthResponse struct {
	Token     *AuthToken `json:"token"`
	Principal *User      `json:"principal"`
}

// UserClaims represents the principal attached to an authenticated request
type UserClaims struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name"`
	Role   UserRole `json:"role"`
}
