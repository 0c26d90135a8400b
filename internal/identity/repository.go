package identity

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/healthbridge/healthbridge/pkg/database"
	"github.com/healthbridge/healthbridge/pkg/interfaces"
	"github.com/healthbridge/healthbridge/pkg/logger"
	"github.com/healthbridge/healthbridge/pkg/types"
)

// uniqueViolation is the postgres error code for unique constraint violations
const uniqueViolation = "23505"

// Repository implements the UserRepository interface
type Repository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewRepository creates a new identity repository
func NewRepository(db *database.DB, log *logger.Logger) interfaces.UserRepository {
	return &Repository{
		db:     db,
		logger: log,
	}
}

// Create inserts a new user
func (r *Repository) Create(user *types.User) error {
	query := `
		INSERT INTO users (
			id, name, email, phone, role, password_hash, degree, registration_number, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var degree, regNumber sql.NullString
	if user.Doctor != nil {
		degree = sql.NullString{String: user.Doctor.Degree, Valid: true}
		regNumber = sql.NullString{String: user.Doctor.RegistrationNumber, Valid: true}
	}

	_, err := r.db.Exec(query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		string(user.Role),
		user.PasswordHash,
		degree,
		regNumber,
		user.IsActive,
	)

	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		r.logger.WithError(err).Error("Failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("Created user")
	return nil
}

// mapUniqueViolation translates postgres unique violations into conflict errors
func mapUniqueViolation(err error) error {
	pqErr, ok := err.(*pq.Error)
	if !ok || string(pqErr.Code) != uniqueViolation {
		return nil
	}

	switch {
	case strings.Contains(pqErr.Constraint, "email"):
		return types.NewConflictError(types.ErrCodeEmailExists, "email already registered")
	case strings.Contains(pqErr.Constraint, "phone"):
		return types.NewConflictError(types.ErrCodePhoneExists, "phone already registered")
	case strings.Contains(pqErr.Constraint, "registration_number"):
		return types.NewConflictError(types.ErrCodeRegistrationExists, "registration number already registered")
	default:
		return types.NewConflictError(types.ErrCodeInvalidInput, "duplicate value")
	}
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(id string) (*types.User, error) {
	return r.getOne("id", id)
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(email string) (*types.User, error) {
	return r.getOne("email", email)
}

// GetByPhone retrieves a user by phone number
func (r *Repository) GetByPhone(phone string) (*types.User, error) {
	return r.getOne("phone", phone)
}

func (r *Repository) getOne(column, value string) (*types.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, phone, role, password_hash, degree, registration_number,
			   is_active, created_at, updated_at
		FROM users
		WHERE %s = $1`, column)

	user := &types.User{}
	var degree, regNumber sql.NullString

	err := r.db.QueryRow(query, value).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.PasswordHash,
		&degree,
		&regNumber,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.NewNotFoundError(types.ErrCodeNotFound, "user not found")
		}
		r.logger.WithError(err).Error("Failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Role == types.RoleDoctor {
		user.Doctor = &types.DoctorProfile{
			Degree:             degree.String,
			RegistrationNumber: regNumber.String,
		}
	}

	return user, nil
}

// Update applies a partial profile mutation
func (r *Repository) Update(id string, updates *types.ProfileUpdates) error {
	setParts := []string{}
	args := []interface{}{}
	argIndex := 1

	if updates.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *updates.Name)
		argIndex++
	}

	if updates.Phone != nil {
		setParts = append(setParts, fmt.Sprintf("phone = $%d", argIndex))
		args = append(args, *updates.Phone)
		argIndex++
	}

	if updates.Degree != nil {
		setParts = append(setParts, fmt.Sprintf("degree = $%d", argIndex))
		args = append(args, *updates.Degree)
		argIndex++
	}

	if updates.RegistrationNumber != nil {
		setParts = append(setParts, fmt.Sprintf("registration_number = $%d", argIndex))
		args = append(args, *updates.RegistrationNumber)
		argIndex++
	}

	if len(setParts) == 0 {
		return types.NewValidationError(types.ErrCodeInvalidInput, "no updates provided", nil)
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, time.Now())
	argIndex++

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(setParts, ", "), argIndex)
	args = append(args, id)

	result, err := r.db.Exec(query, args...)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		r.logger.WithUserID(id).WithError(err).Error("Failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return types.NewNotFoundError(types.ErrCodeNotFound, "user not found")
	}

	r.logger.WithUserID(id).Info("Updated user profile")
	return nil
}

// ListByRole retrieves the directory projection of all users with the given role
func (r *Repository) ListByRole(role types.UserRole) ([]*types.DirectoryEntry, error) {
	query := `
		SELECT id, name, role
		FROM users
		WHERE role = $1 AND is_active = true
		ORDER BY name ASC`

	rows, err := r.db.Query(query, string(role))
	if err != nil {
		r.logger.WithError(err).Error("Failed to list users by role")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var entries []*types.DirectoryEntry
	for rows.Next() {
		entry := &types.DirectoryEntry{}
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return entries, nil
}
