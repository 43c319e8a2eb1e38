package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TeraWattHour/go-authstore"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// SQLAdapter handles data transfer using the native sql library. Queries are
// written with `?` placeholders and rebound for drivers that number them.
// Use NewPostgresAdapter or NewSQLiteAdapter to build one.
type SQLAdapter struct {
	db       *sql.DB
	numbered bool
}

var _ authstore.Adapter = (*SQLAdapter)(nil)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const (
	userSelect              = "SELECT u.id, u.name, u.email, u.email_verified, u.image, u.phone, u.role FROM users u"
	sessionSelect           = "SELECT s.id, s.session_token, s.user_id, s.expires FROM sessions s"
	accountSelect           = "SELECT a.id, a.user_id, a.type, a.provider, a.provider_account_id, a.refresh_token, a.access_token, a.expires_at, a.token_type, a.scope, a.id_token, a.session_state FROM accounts a"
	verificationTokenSelect = "SELECT vt.id, vt.identifier, vt.token, vt.expires FROM verification_tokens vt"
)

func (s *SQLAdapter) CreateUser(ctx context.Context, user authstore.User) (*authstore.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	var created *authstore.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id := uuid.New().String()

		_, err := tx.ExecContext(ctx, s.rebind("INSERT INTO users (id, name, email, email_verified, image, phone, role) VALUES (?, ?, ?, ?, ?, ?, ?)"),
			id, user.Name, user.Email, user.EmailVerified, user.Image, user.Phone, user.Role)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		created, err = s.userByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if created == nil {
			return authstore.ErrReadAfterWrite
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *SQLAdapter) GetUser(ctx context.Context, id string) (*authstore.User, error) {
	return s.userByID(ctx, s.db, id)
}

func (s *SQLAdapter) GetUserByEmail(ctx context.Context, email string) (*authstore.User, error) {
	var u authstore.User
	found, err := s.querySingle(ctx, s.db, func(rows *sql.Rows) error { return scanUser(rows, &u) },
		userSelect+" WHERE u.email = ?", email)
	if err != nil || !found {
		return nil, err
	}

	return &u, nil
}

func (s *SQLAdapter) GetUserByAccount(ctx context.Context, provider string, providerAccountID string) (*authstore.User, error) {
	var userID sql.NullString
	found, err := s.querySingle(ctx, s.db, func(rows *sql.Rows) error { return rows.Scan(&userID) },
		"SELECT a.user_id FROM accounts a WHERE a.provider = ? AND a.provider_account_id = ?", provider, providerAccountID)
	if err != nil {
		return nil, err
	}
	if !found || userID.String == "" {
		return nil, nil
	}

	return s.userByID(ctx, s.db, userID.String)
}

func (s *SQLAdapter) UpdateUser(ctx context.Context, patch authstore.UserPatch) (*authstore.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *authstore.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if set := userAssignments(patch); len(set) > 0 {
			set["updated_at"] = time.Now()

			query, args := updateStatement("users", set)
			if _, err := tx.ExecContext(ctx, s.rebind(query+" WHERE id = ?"), append(args, patch.ID)...); err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		var err error
		updated, err = s.userByID(ctx, tx, patch.ID)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("user %s: %w", patch.ID, authstore.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *SQLAdapter) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM users WHERE id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *SQLAdapter) LinkAccount(ctx context.Context, account authstore.Account) (*authstore.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}

	var linked authstore.Account
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id := uuid.New().String()

		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO accounts
			(id, user_id, type, provider, provider_account_id, refresh_token, access_token, expires_at, token_type, scope, id_token, session_state)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			id, account.UserID, account.Type, account.Provider, account.ProviderAccountID,
			account.RefreshToken, account.AccessToken, account.ExpiresAt, account.TokenType,
			account.Scope, account.IDToken, account.SessionState)
		if err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}

		found, err := s.querySingle(ctx, tx, func(rows *sql.Rows) error { return scanAccount(rows, &linked) },
			accountSelect+" WHERE a.id = ?", id)
		if err != nil {
			return err
		}
		if !found {
			return authstore.ErrReadAfterWrite
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &linked, nil
}

func (s *SQLAdapter) UnlinkAccount(ctx context.Context, provider string, providerAccountID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM accounts WHERE provider = ? AND provider_account_id = ?"), provider, providerAccountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (s *SQLAdapter) GetSessionAndUser(ctx context.Context, sessionToken string) (*authstore.SessionAndUser, error) {
	var session authstore.Session
	found, err := s.querySingle(ctx, s.db, func(rows *sql.Rows) error { return scanSession(rows, &session) },
		sessionSelect+" WHERE s.session_token = ?", sessionToken)
	if err != nil {
		return nil, err
	}
	if !found || !session.Complete() {
		return nil, nil
	}

	user, err := s.userByID(ctx, s.db, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		log.Debugf("session %s references missing user %s", session.ID, session.UserID)
		return nil, nil
	}

	return &authstore.SessionAndUser{Session: session, User: *user}, nil
}

func (s *SQLAdapter) CreateSession(ctx context.Context, session authstore.Session) (*authstore.Session, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	var created *authstore.Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id := uuid.New().String()

		_, err := tx.ExecContext(ctx, s.rebind("INSERT INTO sessions (id, session_token, user_id, expires) VALUES (?, ?, ?, ?)"),
			id, session.SessionToken, session.UserID, session.Expires)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		created, err = s.sessionByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if created == nil {
			return fmt.Errorf("failed to create session: %w", authstore.ErrReadAfterWrite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *SQLAdapter) UpdateSession(ctx context.Context, patch authstore.SessionPatch) (*authstore.Session, error) {
	var updated *authstore.Session
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		found, err := s.querySingle(ctx, tx, func(rows *sql.Rows) error { return rows.Scan(&id) },
			"SELECT s.id FROM sessions s WHERE s.session_token = ?", patch.SessionToken)
		if err != nil || !found {
			return err
		}

		if set := sessionAssignments(patch); len(set) > 0 {
			set["updated_at"] = time.Now()

			query, args := updateStatement("sessions", set)
			if _, err := tx.ExecContext(ctx, s.rebind(query+" WHERE id = ?"), append(args, id)...); err != nil {
				return fmt.Errorf("failed to update session: %w", err)
			}
		}

		updated, err = s.sessionByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if updated == nil {
			return fmt.Errorf("failed to get session: %w", authstore.ErrReadAfterWrite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *SQLAdapter) DeleteSession(ctx context.Context, sessionToken string) error {
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM sessions WHERE session_token = ?"), sessionToken); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *SQLAdapter) CreateVerificationToken(ctx context.Context, token authstore.VerificationToken) (*authstore.VerificationToken, error) {
	if err := token.Validate(); err != nil {
		return nil, err
	}

	var created authstore.VerificationToken
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		id := uuid.New().String()

		_, err := tx.ExecContext(ctx, s.rebind("INSERT INTO verification_tokens (id, identifier, token, expires) VALUES (?, ?, ?, ?)"),
			id, token.Identifier, token.Token, token.Expires)
		if err != nil {
			return fmt.Errorf("failed to insert verification token: %w", err)
		}

		var ignored string
		found, err := s.querySingle(ctx, tx, func(rows *sql.Rows) error { return scanVerificationToken(rows, &ignored, &created) },
			verificationTokenSelect+" WHERE vt.id = ?", id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("failed to create verification token: %w", authstore.ErrReadAfterWrite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (s *SQLAdapter) UseVerificationToken(ctx context.Context, identifier string, token string) (*authstore.VerificationToken, error) {
	var used *authstore.VerificationToken
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var id string
		var vt authstore.VerificationToken
		found, err := s.querySingle(ctx, tx, func(rows *sql.Rows) error { return scanVerificationToken(rows, &id, &vt) },
			verificationTokenSelect+" WHERE vt.identifier = ? AND vt.token = ?", identifier, token)
		if err != nil || !found {
			return err
		}

		res, err := tx.ExecContext(ctx, s.rebind("DELETE FROM verification_tokens WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete verification token: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			log.Debugf("verification token for %s was redeemed concurrently", identifier)
			return nil
		}

		used = &vt
		return nil
	})
	if err != nil {
		return nil, err
	}

	return used, nil
}

func (s *SQLAdapter) userByID(ctx context.Context, q querier, id string) (*authstore.User, error) {
	var u authstore.User
	found, err := s.querySingle(ctx, q, func(rows *sql.Rows) error { return scanUser(rows, &u) },
		userSelect+" WHERE u.id = ?", id)
	if err != nil || !found {
		return nil, err
	}
	return &u, nil
}

// sessionByID returns nil for a session missing any of its required fields.
func (s *SQLAdapter) sessionByID(ctx context.Context, q querier, id string) (*authstore.Session, error) {
	var session authstore.Session
	found, err := s.querySingle(ctx, q, func(rows *sql.Rows) error { return scanSession(rows, &session) },
		sessionSelect+" WHERE s.id = ?", id)
	if err != nil || !found || !session.Complete() {
		return nil, err
	}
	return &session, nil
}

// querySingle scans at most one row with scan. It reports whether a row was
// found and fails with ErrNotSingle if there are more.
func (s *SQLAdapter) querySingle(ctx context.Context, q querier, scan func(*sql.Rows) error, query string, args ...any) (bool, error) {
	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		if found {
			return false, authstore.ErrNotSingle
		}
		if err := scan(rows); err != nil {
			return false, err
		}
		found = true
	}

	return found, rows.Err()
}

func (s *SQLAdapter) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLAdapter) rebind(query string) string {
	if !s.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// updateStatement builds "UPDATE table SET a = ?, b = ?" for the given columns.
func updateStatement(table string, set map[string]any) (string, []any) {
	columns := sortedColumns(set)
	assignments := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, column := range columns {
		assignments[i] = column + " = ?"
		args[i] = set[column]
	}
	return "UPDATE " + table + " SET " + strings.Join(assignments, ", "), args
}

func scanUser(rows *sql.Rows, u *authstore.User) error {
	var name, image, phone, role sql.NullString
	var verified sql.NullTime
	if err := rows.Scan(&u.ID, &name, &u.Email, &verified, &image, &phone, &role); err != nil {
		return err
	}

	u.Name = nullString(name)
	u.EmailVerified = nullTime(verified)
	u.Image = nullString(image)
	u.Phone = nullString(phone)
	u.Role = nullString(role)
	return nil
}

func scanSession(rows *sql.Rows, session *authstore.Session) error {
	var token, userID sql.NullString
	var expires sql.NullTime
	if err := rows.Scan(&session.ID, &token, &userID, &expires); err != nil {
		return err
	}

	session.SessionToken = token.String
	session.UserID = userID.String
	session.Expires = expires.Time
	return nil
}

func scanAccount(rows *sql.Rows, a *authstore.Account) error {
	var refresh, access, tokenType, scope, idToken, state sql.NullString
	var expiresAt sql.NullInt64
	err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID,
		&refresh, &access, &expiresAt, &tokenType, &scope, &idToken, &state)
	if err != nil {
		return err
	}

	a.RefreshToken = nullString(refresh)
	a.AccessToken = nullString(access)
	if expiresAt.Valid {
		a.ExpiresAt = &expiresAt.Int64
	}
	a.TokenType = nullString(tokenType)
	a.Scope = nullString(scope)
	a.IDToken = nullString(idToken)
	a.SessionState = nullString(state)
	return nil
}

func scanVerificationToken(rows *sql.Rows, id *string, vt *authstore.VerificationToken) error {
	return rows.Scan(id, &vt.Identifier, &vt.Token, &vt.Expires)
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}
