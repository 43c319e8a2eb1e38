package adapters

import (
	"context"
	"fmt"

	"github.com/TeraWattHour/go-authstore"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAdapter stores auth records through gorm's query builder, so it runs on
// any dialector gorm supports. The tables are described by Models().
//
// Every write that is followed by a read runs inside a single transaction,
// and deletes are confirmed by the database before the call returns.
type GormAdapter struct {
	db *gorm.DB
}

var _ authstore.Adapter = (*GormAdapter)(nil)

func NewGormAdapter(db *gorm.DB) *GormAdapter {
	return &GormAdapter{db: db}
}

func (g *GormAdapter) CreateUser(ctx context.Context, user authstore.User) (*authstore.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	var created *authstore.User
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := userModel{
			ID:            uuid.New().String(),
			Name:          user.Name,
			Email:         user.Email,
			EmailVerified: user.EmailVerified,
			Image:         user.Image,
			Phone:         user.Phone,
			Role:          user.Role,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		u, err := gormUserByID(tx, row.ID)
		if err != nil {
			return err
		}
		if u == nil {
			return authstore.ErrReadAfterWrite
		}

		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (g *GormAdapter) GetUser(ctx context.Context, id string) (*authstore.User, error) {
	return gormUserByID(g.db.WithContext(ctx), id)
}

func (g *GormAdapter) GetUserByEmail(ctx context.Context, email string) (*authstore.User, error) {
	row, err := assertSingle[userModel](g.db.WithContext(ctx).Select(userColumns).Where("email = ?", email))
	if err != nil || row == nil {
		return nil, err
	}

	return row.record(), nil
}

func (g *GormAdapter) GetUserByAccount(ctx context.Context, provider string, providerAccountID string) (*authstore.User, error) {
	db := g.db.WithContext(ctx)

	acc, err := assertSingle[accountModel](db.Select("user_id").Where("provider = ? AND provider_account_id = ?", provider, providerAccountID))
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.UserID == "" {
		return nil, nil
	}

	return gormUserByID(db, acc.UserID)
}

func (g *GormAdapter) UpdateUser(ctx context.Context, patch authstore.UserPatch) (*authstore.User, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *authstore.User
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !patch.Empty() {
			err := tx.Model(&userModel{}).Where("id = ?", patch.ID).Updates(userAssignments(patch)).Error
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		u, err := gormUserByID(tx, patch.ID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %s: %w", patch.ID, authstore.ErrNotFound)
		}

		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (g *GormAdapter) DeleteUser(ctx context.Context, id string) error {
	if err := g.db.WithContext(ctx).Where("id = ?", id).Delete(&userModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (g *GormAdapter) LinkAccount(ctx context.Context, account authstore.Account) (*authstore.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}

	var linked *authstore.Account
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := accountModel{
			ID:                uuid.New().String(),
			UserID:            account.UserID,
			Type:              account.Type,
			Provider:          account.Provider,
			ProviderAccountID: account.ProviderAccountID,
			RefreshToken:      account.RefreshToken,
			AccessToken:       account.AccessToken,
			ExpiresAt:         account.ExpiresAt,
			TokenType:         account.TokenType,
			Scope:             account.Scope,
			IDToken:           account.IDToken,
			SessionState:      account.SessionState,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert account: %w", err)
		}

		acc, err := assertSingle[accountModel](tx.Select(accountColumns).Where("id = ?", row.ID))
		if err != nil {
			return err
		}
		if acc == nil {
			return authstore.ErrReadAfterWrite
		}

		linked = acc.record()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return linked, nil
}

func (g *GormAdapter) UnlinkAccount(ctx context.Context, provider string, providerAccountID string) error {
	err := g.db.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		Delete(&accountModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

func (g *GormAdapter) GetSessionAndUser(ctx context.Context, sessionToken string) (*authstore.SessionAndUser, error) {
	db := g.db.WithContext(ctx)

	row, err := assertSingle[sessionModel](db.Select(sessionColumns).Where("session_token = ?", sessionToken))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	session := row.record()
	if !session.Complete() {
		return nil, nil
	}

	user, err := gormUserByID(db, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		log.Debugf("session %s references missing user %s", session.ID, session.UserID)
		return nil, nil
	}

	return &authstore.SessionAndUser{Session: *session, User: *user}, nil
}

func (g *GormAdapter) CreateSession(ctx context.Context, session authstore.Session) (*authstore.Session, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	var created *authstore.Session
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := sessionModel{
			ID:           uuid.New().String(),
			SessionToken: session.SessionToken,
			UserID:       session.UserID,
			Expires:      session.Expires,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		s, err := gormSessionByID(tx, row.ID)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("failed to create session: %w", authstore.ErrReadAfterWrite)
		}

		created = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (g *GormAdapter) UpdateSession(ctx context.Context, patch authstore.SessionPatch) (*authstore.Session, error) {
	var updated *authstore.Session
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := assertSingle[sessionModel](tx.Select("id").Where("session_token = ?", patch.SessionToken))
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}

		if set := sessionAssignments(patch); len(set) > 0 {
			if err := tx.Model(&sessionModel{}).Where("id = ?", row.ID).Updates(set).Error; err != nil {
				return fmt.Errorf("failed to update session: %w", err)
			}
		}

		s, err := gormSessionByID(tx, row.ID)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("failed to get session: %w", authstore.ErrReadAfterWrite)
		}

		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (g *GormAdapter) DeleteSession(ctx context.Context, sessionToken string) error {
	if err := g.db.WithContext(ctx).Where("session_token = ?", sessionToken).Delete(&sessionModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (g *GormAdapter) CreateVerificationToken(ctx context.Context, token authstore.VerificationToken) (*authstore.VerificationToken, error) {
	if err := token.Validate(); err != nil {
		return nil, err
	}

	var created *authstore.VerificationToken
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := verificationTokenModel{
			ID:         uuid.New().String(),
			Identifier: token.Identifier,
			Token:      token.Token,
			Expires:    token.Expires,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert verification token: %w", err)
		}

		vt, err := assertSingle[verificationTokenModel](tx.Select(verificationTokenColumns).Where("id = ?", row.ID))
		if err != nil {
			return err
		}
		if vt == nil {
			return fmt.Errorf("failed to create verification token: %w", authstore.ErrReadAfterWrite)
		}

		created = vt.record()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (g *GormAdapter) UseVerificationToken(ctx context.Context, identifier string, token string) (*authstore.VerificationToken, error) {
	var used *authstore.VerificationToken
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vt, err := assertSingle[verificationTokenModel](tx.Select(verificationTokenColumns).Where("identifier = ? AND token = ?", identifier, token))
		if err != nil {
			return err
		}
		if vt == nil {
			return nil
		}

		res := tx.Where("id = ?", vt.ID).Delete(&verificationTokenModel{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete verification token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			log.Debugf("verification token for %s was redeemed concurrently", identifier)
			return nil
		}

		used = vt.record()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return used, nil
}

func gormUserByID(db *gorm.DB, id string) (*authstore.User, error) {
	row, err := assertSingle[userModel](db.Select(userColumns).Where("id = ?", id))
	if err != nil || row == nil {
		return nil, err
	}
	return row.record(), nil
}

// gormSessionByID returns nil for a session missing any of its required fields.
func gormSessionByID(db *gorm.DB, id string) (*authstore.Session, error) {
	row, err := assertSingle[sessionModel](db.Select(sessionColumns).Where("id = ?", id))
	if err != nil || row == nil {
		return nil, err
	}

	s := row.record()
	if !s.Complete() {
		return nil, nil
	}
	return s, nil
}

// assertSingle runs q expecting at most one row of T.
func assertSingle[T any](q *gorm.DB) (*T, error) {
	var rows []T
	if err := q.Limit(2).Find(&rows).Error; err != nil {
		return nil, err
	}

	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return &rows[0], nil
	default:
		return nil, authstore.ErrNotSingle
	}
}
