package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/monitoring"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// Service implements the IdentityService interface
type Service struct {
	repo      interfaces.UserRepository
	passwords interfaces.PasswordManager
	otps      interfaces.OTPProvider
	tokens    interfaces.TokenManager
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector
}

// NewService creates a new identity service
func NewService(
	repo interfaces.UserRepository,
	passwords interfaces.PasswordManager,
	otps interfaces.OTPProvider,
	tokens interfaces.TokenManager,
	log *logger.Logger,
	metrics *monitoring.MetricsCollector,
) *Service {
	return &Service{
		repo:      repo,
		passwords: passwords,
		otps:      otps,
		tokens:    tokens,
		logger:    log,
		metrics:   metrics,
	}
}

// Signup registers a new principal and issues a session token
func (s *Service) Signup(req *types.SignupRequest) (*types.AuthResponse, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to hash password", err)
	}

	user := &types.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         req.Role,
		PasswordHash: hash,
		IsActive:     true,
	}

	if req.Role == types.RoleDoctor {
		user.Doctor = &types.DoctorProfile{
			Degree:             strings.TrimSpace(req.Degree),
			RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		}
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to issue token", err)
	}

	s.logger.Audit(user.ID, "signup", "user", true, map[string]interface{}{"role": user.Role})
	return &types.AuthResponse{Token: token, Principal: user}, nil
}

// validateSignup enforces required fields, including the doctor-only ones
func validateSignup(req *types.SignupRequest) error {
	missing := map[string]interface{}{}

	if strings.TrimSpace(req.Name) == "" {
		missing["name"] = "required"
	}
	if strings.TrimSpace(req.Email) == "" {
		missing["email"] = "required"
	}
	if strings.TrimSpace(req.Phone) == "" {
		missing["phone"] = "required"
	}
	if req.Password == "" {
		missing["password"] = "required"
	}

	if !req.Role.Valid() {
		missing["role"] = "must be doctor or patient"
	}

	if req.Role == types.RoleDoctor {
		if strings.TrimSpace(req.Degree) == "" {
			missing["degree"] = "required for doctors"
		}
		if strings.TrimSpace(req.RegistrationNumber) == "" {
			missing["registration_number"] = "required for doctors"
		}
	}

	if len(missing) > 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "invalid signup request", missing)
	}
	return nil
}

// SendOTP generates a passcode for the account behind the given email. The
// response does not reveal whether the account exists.
func (s *Service) SendOTP(email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "email is required", nil)
	}

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if _, ok := types.AsHealthBridgeError(err); ok {
			// Ack unknown accounts the same as known ones
			return nil
		}
		return err
	}

	code, err := s.otps.Generate(user.Email)
	if err != nil {
		return types.NewInternalError(types.ErrCodeInternalError, "failed to generate OTP", err)
	}

	// Delivery is out of scope for the backend; the code is logged so that
	// operators can relay it in development environments.
	s.logger.WithFields(map[string]interface{}{
		"email": user.Email,
		"otp":   code,
	}).Debug("OTP generated")

	return nil
}

// LoginOTP authenticates with an email/passcode pair
func (s *Service) LoginOTP(creds *types.OTPCredentials) (*types.AuthResponse, error) {
	if creds.Email == "" || creds.OTP == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "email and otp are required", nil)
	}

	email := normalizeEmail(creds.Email)
	ok, err := s.otps.Verify(email, creds.OTP)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to verify OTP", err)
	}
	if !ok {
		s.metrics.RecordAuthAttempt("otp", "failure")
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "invalid credentials")
	}

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		s.metrics.RecordAuthAttempt("otp", "failure")
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "invalid credentials")
	}

	return s.issueSession(user, "otp")
}

// LoginPassword authenticates with an email/password pair
func (s *Service) LoginPassword(creds *types.Credentials) (*types.AuthResponse, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "email and password are required", nil)
	}

	user, err := s.repo.GetByEmail(normalizeEmail(creds.Email))
	if err != nil {
		s.metrics.RecordAuthAttempt("password", "failure")
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "invalid credentials")
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, creds.Password)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to verify password", err)
	}
	if !ok {
		s.metrics.RecordAuthAttempt("password", "failure")
		s.logger.Security("password_login_failed", user.ID, nil)
		return nil, types.NewAuthenticationError(types.ErrCodeInvalidCredentials, "invalid credentials")
	}

	return s.issueSession(user, "password")
}

func (s *Service) issueSession(user *types.User, method string) (*types.AuthResponse, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, types.NewInternalError(types.ErrCodeInternalError, "failed to issue token", err)
	}

	s.metrics.RecordAuthAttempt(method, "success")
	s.logger.Audit(user.ID, "login", "session", true, map[string]interface{}{"method": method})
	return &types.AuthResponse{Token: token, Principal: user}, nil
}

// ValidateToken parses and validates a session token
func (s *Service) ValidateToken(token string) (*types.UserClaims, error) {
	return s.tokens.Validate(token)
}

// GetUser retrieves a user by ID
func (s *Service) GetUser(userID string) (*types.User, error) {
	return s.repo.GetByID(userID)
}

// UpdateProfile applies a partial profile mutation and returns the updated user
func (s *Service) UpdateProfile(userID string, updates *types.ProfileUpdates) (*types.User, error) {
	if err := s.repo.Update(userID, updates); err != nil {
		return nil, err
	}

	s.logger.Audit(userID, "update_profile", "user", true, nil)
	return s.repo.GetByID(userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
