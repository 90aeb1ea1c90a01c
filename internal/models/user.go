package models

import (
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrDuplicateEmail is returned when an account already uses the email.
var ErrDuplicateEmail = errors.New("email already registered")

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// Weight units a user can display their lifts in.
const (
	UnitLbs = "lbs"
	UnitKg  = "kg"
)

// User represents a login account.
type User struct {
	ID           int64
	Email        string
	DisplayName  sql.NullString
	PasswordHash string
	WeightUnit   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Name returns the display name, falling back to the email's local part.
func (u *User) Name() string {
	if u.DisplayName.Valid && u.DisplayName.String != "" {
		return u.DisplayName.String
	}
	if i := strings.IndexByte(u.Email, '@'); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// HashPassword generates a bcrypt hash of the given plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("models: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// normalizeEmail validates an address and returns it trimmed and lowercased.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email %q is not a valid address", ErrInvalidInput, email)
	}
	return email, nil
}

// CreateUser registers a new account. Returns ErrDuplicateEmail if the email
// is taken and ErrInvalidInput for a malformed email or short password.
func CreateUser(db *sql.DB, email, password, displayName string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	result, err := db.Exec(
		`INSERT INTO users (email, display_name, password_hash) VALUES (?, ?, ?)`,
		email, nullString(displayName), hash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("models: create user %q: %w", email, err)
	}

	id, _ := result.LastInsertId()
	return GetUserByID(db, id)
}

const userColumns = `id, email, display_name, password_hash, weight_unit, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.WeightUnit, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetUserByID retrieves a user by primary key.
func GetUserByID(db *sql.DB, id int64) (*User, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive).
func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	email = strings.TrimSpace(email)
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("models: get user by email %q: %w", email, err)
	}
	return u, nil
}

// Authenticate verifies an email/password combination and returns the user
// if valid, or ErrNotFound if the credentials are wrong.
func Authenticate(db *sql.DB, email, password string) (*User, error) {
	u, err := GetUserByEmail(db, email)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return nil, ErrNotFound
	}
	return u, nil
}

// CountUsers returns the total number of users in the database.
func CountUsers(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("models: count users: %w", err)
	}
	return count, nil
}

// UpdateProfile changes a user's display name and weight unit.
func UpdateProfile(db *sql.DB, id int64, displayName, weightUnit string) (*User, error) {
	if weightUnit != UnitLbs && weightUnit != UnitKg {
		return nil, fmt.Errorf("%w: weight unit %q", ErrInvalidInput, weightUnit)
	}
	result, err := db.Exec(
		`UPDATE users SET display_name = ?, weight_unit = ? WHERE id = ?`,
		nullString(displayName), weightUnit, id,
	)
	if err != nil {
		return nil, fmt.Errorf("models: update profile for user %d: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetUserByID(db, id)
}

// UpdatePassword changes a user's password hash.
func UpdatePassword(db *sql.DB, id int64, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("models: update password for user %d: %w", id, err)
	}
	return nil
}

// SetNotifyURL stores a user's notification URL encrypted. An empty url
// clears it.
func SetNotifyURL(db *sql.DB, id int64, url string) error {
	url = strings.TrimSpace(url)
	var enc sql.NullString
	if url != "" {
		v, err := encryptValue(url)
		if err != nil {
			return fmt.Errorf("models: encrypt notify url for user %d: %w", id, err)
		}
		enc = sql.NullString{String: v, Valid: true}
	}
	if _, err := db.Exec(`UPDATE users SET notify_url_enc = ? WHERE id = ?`, enc, id); err != nil {
		return fmt.Errorf("models: set notify url for user %d: %w", id, err)
	}
	return nil
}

// NotifyURL returns a user's decrypted notification URL, or "" when unset.
func NotifyURL(db *sql.DB, id int64) (string, error) {
	var enc sql.NullString
	err := db.QueryRow(`SELECT notify_url_enc FROM users WHERE id = ?`, id).Scan(&enc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("models: get notify url for user %d: %w", id, err)
	}
	if !enc.Valid || enc.String == "" {
		return "", nil
	}
	url, err := decryptValue(enc.String)
	if err != nil {
		return "", fmt.Errorf("models: decrypt notify url for user %d: %w", id, err)
	}
	return url, nil
}
