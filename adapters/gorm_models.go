package adapters

import (
	"time"

	"github.com/TeraWattHour/go-authstore"
)

// Models returns the gorm models backing GormAdapter, in dependency order.
// Pass them to (*gorm.DB).AutoMigrate or generate migrations from them.
// Accounts and sessions reference users with ON DELETE CASCADE; on SQLite the
// constraint only holds when foreign keys are enabled (see SQLiteDSN).
func Models() []any {
	return []any{&userModel{}, &accountModel{}, &sessionModel{}, &verificationTokenModel{}}
}

type userModel struct {
	ID            string     `gorm:"primaryKey;type:varchar(36)"`
	Name          *string    `gorm:"type:varchar(255)"`
	Email         string     `gorm:"uniqueIndex;type:varchar(255);not null"`
	EmailVerified *time.Time `gorm:"default:null"`
	Image         *string    `gorm:"type:text"`
	Phone         *string    `gorm:"type:varchar(50)"`
	Role          *string    `gorm:"type:varchar(50)"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
}

func (userModel) TableName() string { return "users" }

type accountModel struct {
	ID                string    `gorm:"primaryKey;type:varchar(36)"`
	UserID            string    `gorm:"index;type:varchar(36);not null"`
	Type              string    `gorm:"type:varchar(50);not null"`
	Provider          string    `gorm:"uniqueIndex:idx_accounts_provider_account;type:varchar(100);not null"`
	ProviderAccountID string    `gorm:"uniqueIndex:idx_accounts_provider_account;type:varchar(191);not null"`
	RefreshToken      *string   `gorm:"type:text"`
	AccessToken       *string   `gorm:"type:text"`
	ExpiresAt         *int64    `gorm:"default:null"`
	TokenType         *string   `gorm:"type:varchar(50)"`
	Scope             *string   `gorm:"type:text"`
	IDToken           *string   `gorm:"type:text"`
	SessionState      *string   `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`

	User userModel `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (accountModel) TableName() string { return "accounts" }

type sessionModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	SessionToken string    `gorm:"uniqueIndex;type:varchar(255);not null"`
	UserID       string    `gorm:"index;type:varchar(36);not null"`
	Expires      time.Time `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	User userModel `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (sessionModel) TableName() string { return "sessions" }

type verificationTokenModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)"`
	Identifier string    `gorm:"uniqueIndex:idx_verification_tokens_identifier_token;type:varchar(255);not null"`
	Token      string    `gorm:"uniqueIndex:idx_verification_tokens_identifier_token;type:varchar(255);not null"`
	Expires    time.Time `gorm:"not null"`
}

func (verificationTokenModel) TableName() string { return "verification_tokens" }

var (
	userColumns              = []string{"id", "name", "email", "email_verified", "image", "phone", "role"}
	sessionColumns           = []string{"id", "session_token", "user_id", "expires"}
	accountColumns           = []string{"id", "user_id", "type", "provider", "provider_account_id", "refresh_token", "access_token", "expires_at", "token_type", "scope", "id_token", "session_state"}
	verificationTokenColumns = []string{"id", "identifier", "token", "expires"}
)

func (m *userModel) record() *authstore.User {
	return &authstore.User{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		EmailVerified: m.EmailVerified,
		Image:         m.Image,
		Phone:         m.Phone,
		Role:          m.Role,
	}
}

func (m *sessionModel) record() *authstore.Session {
	return &authstore.Session{
		ID:           m.ID,
		SessionToken: m.SessionToken,
		UserID:       m.UserID,
		Expires:      m.Expires,
	}
}

func (m *accountModel) record() *authstore.Account {
	return &authstore.Account{
		ID:                m.ID,
		UserID:            m.UserID,
		Type:              m.Type,
		Provider:          m.Provider,
		ProviderAccountID: m.ProviderAccountID,
		RefreshToken:      m.RefreshToken,
		AccessToken:       m.AccessToken,
		ExpiresAt:         m.ExpiresAt,
		TokenType:         m.TokenType,
		Scope:             m.Scope,
		IDToken:           m.IDToken,
		SessionState:      m.SessionState,
	}
}

func (m *verificationTokenModel) record() *authstore.VerificationToken {
	return &authstore.VerificationToken{
		Identifier: m.Identifier,
		Token:      m.Token,
		Expires:    m.Expires,
	}
}
