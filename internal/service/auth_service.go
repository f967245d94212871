package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blogpost/internal/middleware"
	"blogpost/internal/models"
	"blogpost/internal/repository"
	"blogpost/internal/validation"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 7 * 24 * time.Hour

// TokenRevoker blacklists a token id until it would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

type SignupInput struct {
	Email    string
	FullName string
	Password string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	users      repository.UserRepository
	revoker    TokenRevoker
	secret     string
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(users repository.UserRepository, revoker TokenRevoker, secret string) *AuthService {
	return &AuthService{
		users:      users,
		revoker:    revoker,
		secret:     secret,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Signup registers an account and issues a token. Duplicate emails are a Conflict.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = repository.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	err := ozzo.ValidateStruct(&in,
		ozzo.Field(&in.Email, validation.EmailRules()...),
		ozzo.Field(&in.FullName, ozzo.RuneLength(0, 150).Error("full_name must not exceed 150 characters")),
		ozzo.Field(&in.Password, validation.PasswordRules()...),
	)
	if err := validation.ToAppError(err); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    in.Email,
		FullName: in.FullName,
		Password: string(hashedPassword),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Login checks credentials. Unknown emails and wrong passwords are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, models.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// Logout revokes the token identified by jti for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	if s.revoker == nil {
		return models.NewInternalError(fmt.Errorf("token revocation is not configured"))
	}
	if err := s.revoker.Revoke(ctx, jti, expiresAt.Sub(s.now())); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Me returns the account of an authenticated caller.
func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("authentication required")
	}
	return s.users.GetByID(ctx, userID)
}

// PromoteStaff grants staff rights to targetID. Only staff may promote.
func (s *AuthService) PromoteStaff(ctx context.Context, actorID, targetID uint) (*models.User, error) {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewPermissionDeniedError("unknown user")
		}
		return nil, err
	}
	if !actor.IsStaff {
		return nil, models.NewPermissionDeniedError("only staff may promote users")
	}
	if err := s.users.SetStaff(ctx, targetID, true); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, targetID)
}

// GenerateToken signs an HS256 access token for userID.
func (s *AuthService) GenerateToken(userID uint) (string, error) {
	if s.secret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    middleware.TokenIssuer,
		Audience:  jwt.ClaimStrings{middleware.TokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        generateJTI(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String())
}
