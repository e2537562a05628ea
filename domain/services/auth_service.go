package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pennybid/domain/entities"
	"pennybid/domain/events"
	"pennybid/domain/interfaces"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers users and signs them in
type AuthService struct {
	uowFactory interfaces.UnitOfWorkFactory
	wallets    *WalletService
	tokens     interfaces.TokenIssuer
	identity   interfaces.IdentityProvider
	hashCost   int
}

// NewAuthService creates a new auth service
func NewAuthService(uowFactory interfaces.UnitOfWorkFactory, wallets *WalletService, tokens interfaces.TokenIssuer, identity interfaces.IdentityProvider) *AuthService {
	return &AuthService{
		uowFactory: uowFactory,
		wallets:    wallets,
		tokens:     tokens,
		identity:   identity,
		hashCost:   bcrypt.DefaultCost,
	}
}

// Register creates a user and an empty wallet
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*entities.User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := entities.ValidateRegistration(email, password, name); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.UserRepository().GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, entities.ErrUserExists
	}

	user, err := uow.UserRepository().Create(ctx, email, name, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := uow.EventBus().Publish(events.UserCreatedEvent{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}); err != nil {
		log.WithError(err).Error("Failed to publish user created event")
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if _, err := s.wallets.Register(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return user, nil
}

// Login checks credentials and returns a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", entities.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", entities.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if user.IsBlocked {
		return "", fmt.Errorf("user %d is blocked: %w", user.ID, entities.ErrNotEligible)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}

// Me returns the user behind the current identity
func (s *AuthService) Me(ctx context.Context) (*entities.User, error) {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUnauthenticated
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
