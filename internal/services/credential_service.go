package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"meetings/boardroom/internal/auth"
	"meetings/boardroom/internal/db/repositories"
	"meetings/boardroom/internal/logging"
	gormModels "meetings/boardroom/internal/models/gorm"
	"meetings/boardroom/internal/notify"
	"meetings/boardroom/internal/phone"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	passwordLength   = 6
	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func generatePassword() (string, error) {
	buf := make([]byte, passwordLength)
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = passwordAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func credentialsText(name, username, password string) string {
	return fmt.Sprintf("%s, Welcome to the Meeting App. your Credentials Username:%s , Password:%s", name, username, password)
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *gormModels.User `json:"user"`
}

// CredentialService issues passwords over SMS and exchanges them for
// session tokens.
type CredentialService struct {
	users      *repositories.UserRepository
	phones     *phone.Validator
	dispatcher notify.Dispatcher
	tokens     *auth.TokenIssuer
}

func NewCredentialService(db *gorm.DB, phones *phone.Validator, dispatcher notify.Dispatcher, tokens *auth.TokenIssuer) *CredentialService {
	return &CredentialService{
		users:      repositories.NewUserRepository(db),
		phones:     phones,
		dispatcher: dispatcher,
		tokens:     tokens,
	}
}

// Create sets a fresh random password for the user and texts it to them.
// Users without a valid phone are rejected before anything is written.
func (s *CredentialService) Create(ctx context.Context, userID uint) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return mapped(err, "User")
	}
	return s.issue(ctx, user)
}

// CreateAll issues credentials to every active user that has none and
// returns how many were issued.
func (s *CredentialService) CreateAll(ctx context.Context) (int, error) {
	users, err := s.users.WithoutPassword(ctx)
	if err != nil {
		return 0, err
	}
	issued := 0
	for i := range users {
		if err := s.issue(ctx, &users[i]); err != nil {
			if _, soft := AsFailure(err); !soft {
				return issued, err
			}
			logging.Warn("Skipped credentials", "user_id", users[i].ID, "reason", err.Error())
			continue
		}
		issued++
	}
	return issued, nil
}

func (s *CredentialService) issue(ctx context.Context, user *gormModels.User) error {
	raw := ""
	if user.Phone != nil {
		raw = *user.Phone
	}
	to, err := s.phones.Normalize(raw)
	if err != nil {
		return invalid("Invalid Phone Number")
	}

	password, err := generatePassword()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.SetPasswordHash(ctx, user.ID, string(hash)); err != nil {
		return mapped(err, "User")
	}

	name := user.FullName()
	if err := s.dispatcher.Send(ctx, to, credentialsText(name, user.Username, password), name); err != nil {
		logging.Warn("Failed to send credentials", "user_id", user.ID, "error", err)
	}
	logging.Info("User credentials created", "user_id", user.ID)
	return nil
}

var errAuthFailed = &Failure{Kind: KindValidation, Message: "Authentication Failed"}

// Login checks the password of the active user matching identifier
// (username or email) and returns a session token.
func (s *CredentialService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	user, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &Failure{Kind: KindNotFound, Message: "Authentication Failed User not found"}
		}
		return nil, err
	}
	if !user.IsActive || !user.HasPassword() {
		return nil, errAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, errAuthFailed
	}

	token, exp, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}
