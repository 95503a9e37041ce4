package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"harvestiq/internal/apperrors"
	"harvestiq/internal/models"
	"harvestiq/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest is the self-service sign-up form.
type RegisterRequest struct {
	Name            string `json:"name" form:"name" validate:"required,max=100"`
	Email           string `json:"email" form:"email" validate:"required,email,max=255"`
	Password        string `json:"password" form:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" form:"role" validate:"required,oneof=farmer buyer"`
	Terms           bool   `json:"terms" form:"terms" validate:"required"`
}

// SeedAccount is a directory entry created at startup.
type SeedAccount struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	userRepo   repositories.UserRepository
	validate   *validator.Validate
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		userRepo:   userRepo,
		validate:   validator.New(),
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenTTL,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterUser validates the sign-up form, hashes the password and stores the
// account. Only farmers and buyers may register themselves.
func (s *AuthService) RegisterUser(req RegisterRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Role = strings.TrimSpace(req.Role)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if existingUser, err := s.userRepo.GetByEmail(req.Email); err == nil && existingUser != nil {
		return nil, apperrors.Conflict("email '%s' already registered", req.Email)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user := &models.User{Email: req.Email, Name: req.Name, Role: models.Role(req.Role)}
	if err := s.store(user, req.Password); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"email": user.Email, "role": user.Role}).Info("Account registered")
	return user, nil
}

func (s *AuthService) store(user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(email, password string) (string, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, apperrors.Validation("please enter both email and password")
	}
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return "", nil, apperrors.Unauthenticated("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperrors.Unauthenticated("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"name":    user.Name,
		"role":    string(user.Role),
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a JWT token, returning the actor it names.
func (s *AuthService) ValidateToken(tokenString string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.WithError(err).Debug("Token validation failed")
		return models.Actor{}, apperrors.Unauthenticated("invalid token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, apperrors.Unauthenticated("invalid token")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	role, _ := claims["role"].(string)
	actor := models.Actor{Email: email, Name: name, Role: models.Role(role)}
	if actor.Anonymous() || !actor.Role.Valid() {
		return models.Actor{}, apperrors.Unauthenticated("invalid token claims")
	}
	return actor, nil
}

// SeedAccounts creates any of accounts that do not exist yet.
func (s *AuthService) SeedAccounts(accounts []SeedAccount) error {
	for _, a := range accounts {
		email := normalizeEmail(a.Email)
		if _, err := s.userRepo.GetByEmail(email); err == nil {
			continue
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		user := &models.User{Email: email, Name: a.Name, Role: a.Role}
		if err := s.store(user, a.Password); err != nil {
			return fmt.Errorf("failed to seed %s: %w", email, err)
		}
		log.WithFields(log.Fields{"email": email, "role": a.Role}).Info("Seeded account")
	}
	return nil
}

// validationError marks validator output as a ValidationError while keeping the
// per-field detail reachable through errors.As.
func validationError(err error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
}
