package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aria-backend/internal/clients/redis"
	"github.com/yungbote/aria-backend/internal/normalization"
	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/requestdata"
	"github.com/yungbote/aria-backend/internal/types"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 30
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*types.User, string, error)
	LoginUser(ctx context.Context, email, password string) (*types.User, string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	RevokeCurrentToken(ctx context.Context) error
	VerifyPassword(user *types.User, plaintext string) error
	HashPassword(plaintext string) (string, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	avatarService AvatarService
	revocations   redis.RevocationList
	jwtSecretKey  string
	accessTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	avatarService AvatarService,
	revocations redis.RevocationList,
	jwtSecretKey string,
	accessTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		userRepo:      userRepo,
		avatarService: avatarService,
		revocations:   revocations,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*types.User, string, error) {
	username := normalization.TrimInput(in.Username)
	email := normalization.ParseInputString(in.Email)
	password := in.Password

	if n := utf8.RuneCountInString(username); n < usernameMinLen || n > usernameMaxLen {
		return nil, "", apierr.BadRequest("invalid_username", fmt.Errorf("username must be between %d and %d characters", usernameMinLen, usernameMaxLen))
	}
	if email == "" {
		return nil, "", apierr.BadRequest("invalid_email", fmt.Errorf("an email is required to register"))
	}
	if password == "" {
		return nil, "", apierr.BadRequest("invalid_password", fmt.Errorf("a password is required to register"))
	}

	emailExists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, "", apierr.Internal("user_lookup_failed", err)
	}
	if emailExists {
		return nil, "", apierr.BadRequest("email_in_use", fmt.Errorf("email is already in use"))
	}
	usernameExists, err := as.userRepo.UsernameExists(ctx, nil, username)
	if err != nil {
		return nil, "", apierr.Internal("user_lookup_failed", err)
	}
	if usernameExists {
		return nil, "", apierr.BadRequest("username_in_use", fmt.Errorf("username is already in use"))
	}

	hashed, err := as.HashPassword(password)
	if err != nil {
		return nil, "", apierr.Internal("hash_failed", err)
	}

	now := time.Now().UTC()
	user := &types.User{
		ID:          uuid.New(),
		Username:    username,
		Email:       email,
		Password:    hashed,
		Preferences: datatypes.NewJSONType(types.DefaultPreferences()),
		IsActive:    true,
		LastActive:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if as.avatarService != nil {
			if err := as.avatarService.CreateUserAvatar(ctx, user); err != nil {
				// Avatar rendering is cosmetic; registration proceeds without it.
				as.log.Warn("Failed to render user avatar", "error", err)
			}
		}
		if _, err := as.userRepo.Create(ctx, tx, []*types.User{user}); err != nil {
			return apierr.Internal("user_create_failed", err)
		}
		return nil
	}); err != nil {
		return nil, "", err
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", apierr.Internal("token_sign_failed", err)
	}
	return user, token, nil
}

// LoginUser deliberately surfaces the same error for an unknown email and
// a wrong password.
func (as *authService) LoginUser(ctx context.Context, email, password string) (*types.User, string, error) {
	email = normalization.ParseInputString(email)
	if email == "" || password == "" {
		return nil, "", apierr.BadRequest("missing_credentials", fmt.Errorf("email and password are required"))
	}

	users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if err != nil {
		return nil, "", apierr.Internal("user_lookup_failed", err)
	}
	if len(users) == 0 {
		return nil, "", apierr.Unauthorized("invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	user := users[0]
	if !user.IsActive {
		return nil, "", apierr.Unauthorized("invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	if err := as.VerifyPassword(user, password); err != nil {
		return nil, "", err
	}

	if err := as.userRepo.UpdateFields(ctx, nil, user.ID, map[string]interface{}{
		"last_active": time.Now().UTC(),
	}); err != nil {
		as.log.Warn("Failed to touch last_active on login", "error", err)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		return nil, "", apierr.Internal("token_sign_failed", err)
	}
	return user, token, nil
}

func (as *authService) VerifyPassword(user *types.User, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plaintext)); err != nil {
		return apierr.Unauthorized("invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	return nil
}

func (as *authService) HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("missing_token", fmt.Errorf("missing token"))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("failed to parse token: %w", err))
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", fmt.Errorf("invalid user id in token: %w", err))
	}

	if as.revocations != nil && claims.ID != "" {
		revoked, rErr := as.revocations.IsRevoked(ctx, claims.ID)
		if rErr != nil {
			as.log.Warn("Revocation check failed, accepting token", "error", rErr)
		} else if revoked {
			return ctx, apierr.Unauthorized("token_revoked", fmt.Errorf("token has been revoked"))
		}
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		TokenID:     claims.ID,
		UserID:      userID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

// RevokeCurrentToken puts the caller's token on the denylist for its
// remaining lifetime. A nil revocation list makes this a no-op.
func (as *authService) RevokeCurrentToken(ctx context.Context) error {
	if as.revocations == nil {
		return nil
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenID == "" {
		return nil
	}
	return as.revocations.Revoke(ctx, rd.TokenID, as.accessTTL)
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
