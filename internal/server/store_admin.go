package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AdminStore interface {
	AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error)
	CreateAdminSession(ctx context.Context, adminID string) (sessionID string, err error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
}

type adminDoc struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

type adminSessionDoc struct {
	ID        string    `json:"id"`
	AdminID   string    `json:"adminId"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AdminDocStore keeps admins and their login sessions as JSONB documents.
// The tables come from the schema migrations.
type AdminDocStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewAdminDocStore(db *sql.DB) *AdminDocStore {
	return &AdminDocStore{db: db, now: time.Now}
}

// EnsureAdmin creates the admin, or resets the password of an existing one.
// It reports whether a new admin was created.
func (s *AdminDocStore) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return false, errors.New("email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	doc := adminDoc{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	created := true
	if id, _, err := s.AdminByEmail(ctx, email); err == nil {
		doc.ID = id
		created = false
	} else if !errors.Is(err, errAdminNotFound) {
		return false, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admins (id, email, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data`,
		doc.ID, doc.Email, string(data),
	)
	if err != nil {
		return false, fmt.Errorf("storing admin: %w", err)
	}
	return created, nil
}

func (s *AdminDocStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM admins WHERE email = ?`, normalizeEmail(email),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", errAdminNotFound
	}
	if err != nil {
		return "", "", err
	}
	var a adminDoc
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return "", "", err
	}
	return a.ID, a.PasswordHash, nil
}

func (s *AdminDocStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM admins WHERE id = ?`, adminID,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errAdminNotFound
	}
	if err != nil {
		return "", err
	}

	sessionID := uuid.NewString()
	data, err := json.Marshal(adminSessionDoc{
		ID:        sessionID,
		AdminID:   adminID,
		Email:     email,
		ExpiresAt: s.now().Add(adminSessionTTL).UTC(),
	})
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO admin_sessions (id, admin_id, data) VALUES (?, ?, jsonb(?))`,
		sessionID, adminID, string(data),
	)
	return sessionID, err
}

func (s *AdminDocStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM admin_sessions WHERE id = ?`, sessionID,
	)
	return err
}

// AdminFromSession resolves a session cookie. Expired sessions are removed
// on sight.
func (s *AdminDocStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM admin_sessions WHERE id = ?`, sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	if err != nil {
		return adminSession{}, err
	}
	var as adminSessionDoc
	if err := json.Unmarshal([]byte(data), &as); err != nil {
		return adminSession{}, err
	}
	if !s.now().Before(as.ExpiresAt) {
		s.DeleteAdminSession(ctx, sessionID)
		return adminSession{}, errNoAdminSession
	}
	return adminSession{AdminID: as.AdminID, Email: as.Email}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

var _ AdminStore = (*AdminDocStore)(nil)
