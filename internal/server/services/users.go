package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/questline/internal/common"
	"github.com/dmitrijs2005/questline/internal/server/models"
	"github.com/dmitrijs2005/questline/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs session tokens. *auth.Codec satisfies it.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

// Session is the result of a successful signup or login.
type Session struct {
	User  *models.User
	Token string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      TokenIssuer
	bcryptCost  int
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens TokenIssuer) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		bcryptCost:  bcrypt.DefaultCost,
	}
}

func credentials(email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}
	return email, nil
}

// Signup creates a user with fresh progression and signs them in.
func (s *UserService) Signup(ctx context.Context, email, password string) (*Session, error) {
	email, err := credentials(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		XP:           0,
		Level:        1,
		Streak:       0,
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: email already used", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.session(user)
}

// Login checks the password. Unknown emails and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email, err := credentials(email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.session(user)
}

// Me returns the current state of the signed-in user.
func (s *UserService) Me(ctx context.Context, userID int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}
