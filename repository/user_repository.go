package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tunedrop/model"
)

// ErrDuplicateUser is returned when an email is already registered.
var ErrDuplicateUser = errors.New("user with this email already exists")

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	GetAllUsers() ([]*model.User, error)
	UpdateProfile(userID int64, req *model.UpdateProfileRequest, role string) error
	UpdateStatus(userID int64, status string) error
	TouchLastLogin(userID int64) error
	CountAdmins() (int, error)
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = `id, email, password_hash, display_name, phone, role, status,
	artist_name, bio, social_media, permissions, is_active, created_at, updated_at, last_login`

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	socialMedia, err := marshalJSONField(user.SocialMedia)
	if err != nil {
		return 0, fmt.Errorf("failed to encode social media: %w", err)
	}
	permissions, err := marshalJSONField(user.Permissions)
	if err != nil {
		return 0, fmt.Errorf("failed to encode permissions: %w", err)
	}

	query := `INSERT INTO users (email, password_hash, display_name, phone, role, status, artist_name, bio, social_media, permissions, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Email, user.PasswordHash, user.DisplayName, user.Phone,
		user.Role, user.Status, user.ArtistName, user.Bio, socialMedia, permissions, user.IsActive)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "duplicate entry") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // user not found
		}
		return nil, fmt.Errorf("failed to scan user row for email %s: %w", email, err)
	}
	return user, nil
}

// GetAllUsers retrieves every user, newest first.
func (r *mysqlUserRepository) GetAllUsers() ([]*model.User, error) {
	rows, err := r.db.Query("SELECT " + userColumns + " FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user in GetAllUsers: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateProfile applies the mutable profile fields for the given user.
// Artist-only fields are ignored unless the user holds the artist role.
func (r *mysqlUserRepository) UpdateProfile(userID int64, req *model.UpdateProfileRequest, role string) error {
	sets := []string{}
	args := []interface{}{}

	if req.DisplayName != "" {
		sets = append(sets, "display_name = ?")
		args = append(args, req.DisplayName)
	}
	if req.Phone != "" {
		sets = append(sets, "phone = ?")
		args = append(args, req.Phone)
	}
	if role == model.RoleArtist {
		if req.Bio != nil {
			sets = append(sets, "bio = ?")
			args = append(args, *req.Bio)
		}
		if req.SocialMedia != nil {
			socialMedia, err := marshalJSONField(req.SocialMedia)
			if err != nil {
				return fmt.Errorf("failed to encode social media: %w", err)
			}
			sets = append(sets, "social_media = ?")
			args = append(args, socialMedia)
		}
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, userID)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	return nil
}

// UpdateStatus toggles a user between active and inactive.
func (r *mysqlUserRepository) UpdateStatus(userID int64, status string) error {
	res, err := r.db.Exec("UPDATE users SET status = ? WHERE id = ?", status, userID)
	if err != nil {
		return fmt.Errorf("failed to update status for user %d: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// TouchLastLogin records a successful login.
func (r *mysqlUserRepository) TouchLastLogin(userID int64) error {
	_, err := r.db.Exec("UPDATE users SET last_login = ? WHERE id = ?", time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to touch last login for user %d: %w", userID, err)
	}
	return nil
}

// CountAdmins reports how many admin accounts exist.
func (r *mysqlUserRepository) CountAdmins() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ?", model.RoleAdmin).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var phone, artistName, bio, socialMedia, permissions sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName,
		&phone, &user.Role, &user.Status, &artistName, &bio, &socialMedia,
		&permissions, &user.IsActive, &user.CreatedAt, &user.UpdatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.ArtistName = artistName.String
	user.Bio = bio.String
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}
	if socialMedia.Valid && socialMedia.String != "" {
		if err := json.Unmarshal([]byte(socialMedia.String), &user.SocialMedia); err != nil {
			return nil, fmt.Errorf("failed to decode social media for user %d: %w", user.ID, err)
		}
	}
	if permissions.Valid && permissions.String != "" {
		if err := json.Unmarshal([]byte(permissions.String), &user.Permissions); err != nil {
			return nil, fmt.Errorf("failed to decode permissions for user %d: %w", user.ID, err)
		}
	}
	return user, nil
}

func marshalJSONField(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
