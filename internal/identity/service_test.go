package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/healthbridge/pkg/config"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/monitoring"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *types.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*types.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*types.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) GetByPhone(phone string) (*types.User, error) {
	args := m.Called(phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserRepository) Update(id string, updates *types.ProfileUpdates) error {
	args := m.Called(id, updates)
	return args.Error(0)
}

func (m *MockUserRepository) ListByRole(role types.UserRole) ([]*types.DirectoryEntry, error) {
	args := m.Called(role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.DirectoryEntry), args.Error(1)
}

func setupTestService(t *testing.T) (*Service, *MockUserRepository, *OTPStore) {
	t.Helper()

	log := logger.New("debug")
	mockRepo := &MockUserRepository{}
	otps := NewOTPStore(&config.OTPConfig{Digits: 6, TTLSeconds: 300, MaxAttempts: 5}, log)
	tokens := NewTokenManager(&config.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenTTL: 3600,
		Issuer:         "healthbridge-test",
		Audience:       "healthbridge-users",
	})

	service := NewService(
		mockRepo,
		NewPasswordManager(),
		otps,
		tokens,
		log,
		monitoring.NewMetricsCollector("test"),
	)

	return service, mockRepo, otps
}

func TestSignup_Patient(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	mockRepo.On("Create", mock.AnythingOfType("*types.User")).Return(nil)

	resp, err := service.Signup(&types.SignupRequest{
		Name:     "Asha Patel",
		Email:    "Asha@Example.com",
		Phone:    "5551001",
		Password: "secret123",
		Role:     types.RolePatient,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
	assert.Equal(t, "asha@example.com", resp.Principal.Email)
	assert.NotEmpty(t, resp.Principal.ID)
	assert.Nil(t, resp.Principal.Doctor)
	mockRepo.AssertExpectations(t)
}

func TestSignup_DoctorRequiresCredentials(t *testing.T) {
	service, _, _ := setupTestService(t)

	_, err := service.Signup(&types.SignupRequest{
		Name:     "Dr. Rao",
		Email:    "rao@example.com",
		Phone:    "5551002",
		Password: "secret123",
		Role:     types.RoleDoctor,
	})

	require.Error(t, err)
	hbErr, ok := types.AsHealthBridgeError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeValidation, hbErr.Type)
	assert.Contains(t, hbErr.Details, "degree")
	assert.Contains(t, hbErr.Details, "registration_number")
}

func TestSignup_DoctorWithCredentials(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	mockRepo.On("Create", mock.AnythingOfType("*types.User")).Return(nil)

	resp, err := service.Signup(&types.SignupRequest{
		Name:               "Dr. Rao",
		Email:              "rao@example.com",
		Phone:              "5551002",
		Password:           "secret123",
		Role:               types.RoleDoctor,
		Degree:             "MBBS",
		RegistrationNumber: "REG-9001",
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Principal.Doctor)
	assert.Equal(t, "MBBS", resp.Principal.Doctor.Degree)
	assert.Equal(t, "REG-9001", resp.Principal.Doctor.RegistrationNumber)
}

func TestSignup_InvalidRole(t *testing.T) {
	service, _, _ := setupTestService(t)

	_, err := service.Signup(&types.SignupRequest{
		Name:     "Someone",
		Email:    "someone@example.com",
		Phone:    "5551003",
		Password: "secret123",
		Role:     "admin",
	})

	require.Error(t, err)
	hbErr, _ := types.AsHealthBridgeError(err)
	assert.Equal(t, types.ErrorTypeValidation, hbErr.Type)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	mockRepo.On("Create", mock.AnythingOfType("*types.User")).
		Return(types.NewConflictError(types.ErrCodeEmailExists, "email already registered"))

	_, err := service.Signup(&types.SignupRequest{
		Name:     "Asha Patel",
		Email:    "asha@example.com",
		Phone:    "5551001",
		Password: "secret123",
		Role:     types.RolePatient,
	})

	require.Error(t, err)
	hbErr, _ := types.AsHealthBridgeError(err)
	assert.Equal(t, types.ErrCodeEmailExists, hbErr.Code)
}

func TestLoginPassword_Success(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	hash, err := NewPasswordManager().HashPassword("secret123")
	require.NoError(t, err)

	user := &types.User{
		ID:           "user-1",
		Name:         "Asha Patel",
		Email:        "asha@example.com",
		Role:         types.RolePatient,
		PasswordHash: hash,
		IsActive:     true,
	}
	mockRepo.On("GetByEmail", "asha@example.com").Return(user, nil)

	resp, err := service.LoginPassword(&types.Credentials{
		Email:    "asha@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)

	claims, err := service.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, types.RolePatient, claims.Role)
}

func TestLoginPassword_WrongPassword(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	hash, _ := NewPasswordManager().HashPassword("secret123")
	user := &types.User{ID: "user-1", Email: "asha@example.com", PasswordHash: hash}
	mockRepo.On("GetByEmail", "asha@example.com").Return(user, nil)

	_, err := service.LoginPassword(&types.Credentials{
		Email:    "asha@example.com",
		Password: "wrong",
	})

	require.Error(t, err)
	hbErr, _ := types.AsHealthBridgeError(err)
	assert.Equal(t, types.ErrCodeInvalidCredentials, hbErr.Code)
}

func TestLoginPassword_UnknownEmail(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	mockRepo.On("GetByEmail", "ghost@example.com").
		Return(nil, types.NewNotFoundError(types.ErrCodeNotFound, "user not found"))

	_, err := service.LoginPassword(&types.Credentials{
		Email:    "ghost@example.com",
		Password: "whatever",
	})

	require.Error(t, err)
	hbErr, _ := types.AsHealthBridgeError(err)
	assert.Equal(t, types.ErrCodeInvalidCredentials, hbErr.Code)
}

func TestLoginOTP_RoundTrip(t *testing.T) {
	service, mockRepo, otps := setupTestService(t)

	user := &types.User{
		ID:       "user-1",
		Name:     "Asha Patel",
		Email:    "asha@example.com",
		Role:     types.RolePatient,
		IsActive: true,
	}
	mockRepo.On("GetByEmail", "asha@example.com").Return(user, nil)

	require.NoError(t, service.SendOTP("asha@example.com"))

	code, err := otps.Generate("asha@example.com")
	require.NoError(t, err)

	resp, err := service.LoginOTP(&types.OTPCredentials{
		Email: "asha@example.com",
		OTP:   code,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token.AccessToken)
}

func TestLoginOTP_WrongCode(t *testing.T) {
	service, mockRepo, otps := setupTestService(t)

	user := &types.User{ID: "user-1", Email: "asha@example.com"}
	mockRepo.On("GetByEmail", "asha@example.com").Return(user, nil)

	_, err := otps.Generate("asha@example.com")
	require.NoError(t, err)

	_, err = service.LoginOTP(&types.OTPCredentials{
		Email: "asha@example.com",
		OTP:   "000000",
	})

	require.Error(t, err)
	hbErr, _ := types.AsHealthBridgeError(err)
	assert.Equal(t, types.ErrCodeInvalidCredentials, hbErr.Code)
}

func TestSendOTP_UnknownAccountStillAcks(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	mockRepo.On("GetByEmail", "ghost@example.com").
		Return(nil, types.NewNotFoundError(types.ErrCodeNotFound, "user not found"))

	assert.NoError(t, service.SendOTP("ghost@example.com"))
}

func TestUpdateProfile(t *testing.T) {
	service, mockRepo, _ := setupTestService(t)

	name := "Asha P."
	updates := &types.ProfileUpdates{Name: &name}

	updated := &types.User{ID: "user-1", Name: name, Email: "asha@example.com"}
	mockRepo.On("Update", "user-1", updates).Return(nil)
	mockRepo.On("GetByID", "user-1").Return(updated, nil)

	user, err := service.UpdateProfile("user-1", updates)
	require.NoError(t, err)
	assert.Equal(t, name, user.Name)
	mockRepo.AssertExpectations(t)
}
