package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/aria-backend/internal/normalization"
	"github.com/yungbote/aria-backend/internal/platform/apierr"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/repos"
	"github.com/yungbote/aria-backend/internal/requestdata"
	"github.com/yungbote/aria-backend/internal/types"
)

type ProfileUpdate struct {
	Username *string
	Email    *string
	Avatar   *string
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*types.User, error)
	UpdatePreferences(ctx context.Context, prefs types.UserPreferences) (*types.User, error)
	GetStats(ctx context.Context) (*types.UserStats, error)
	UpdateStats(ctx context.Context, kind types.StatKind, delta int64) (*types.UserStats, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	DeactivateAccount(ctx context.Context) error
}

type userService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	authService AuthService
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, authService AuthService) UserService {
	return &userService{
		db:          db,
		log:         log.With("service", "UserService"),
		userRepo:    userRepo,
		authService: authService,
	}
}

func (us *userService) currentUser(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, apierr.Unauthorized("missing_identity", fmt.Errorf("no authenticated user in context"))
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, apierr.Internal("user_lookup_failed", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user not found"))
	}
	return users[0], nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	return us.currentUser(ctx)
}

func (us *userService) UpdateProfile(ctx context.Context, update ProfileUpdate) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		username := normalization.TrimInput(*update.Username)
		if n := utf8.RuneCountInString(username); n < usernameMinLen || n > usernameMaxLen {
			return nil, apierr.BadRequest("invalid_username", fmt.Errorf("username must be between %d and %d characters", usernameMinLen, usernameMaxLen))
		}
		if username != user.Username {
			exists, err := us.userRepo.UsernameExists(ctx, nil, username)
			if err != nil {
				return nil, apierr.Internal("user_lookup_failed", err)
			}
			if exists {
				return nil, apierr.BadRequest("username_in_use", fmt.Errorf("username is already in use"))
			}
			user.Username = username
		}
	}
	if update.Email != nil {
		email := normalization.ParseInputString(*update.Email)
		if email == "" {
			return nil, apierr.BadRequest("invalid_email", fmt.Errorf("email must not be empty"))
		}
		if email != user.Email {
			exists, err := us.userRepo.EmailExists(ctx, nil, email)
			if err != nil {
				return nil, apierr.Internal("user_lookup_failed", err)
			}
			if exists {
				return nil, apierr.BadRequest("email_in_use", fmt.Errorf("email is already in use"))
			}
			user.Email = email
		}
	}
	if update.Avatar != nil {
		user.AvatarURL = normalization.TrimInput(*update.Avatar)
	}

	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return nil, apierr.Internal("user_save_failed", err)
	}
	return user, nil
}

func (us *userService) UpdatePreferences(ctx context.Context, prefs types.UserPreferences) (*types.User, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validatePreferences(&prefs); err != nil {
		return nil, err
	}
	user.Preferences = datatypes.NewJSONType(prefs)
	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return nil, apierr.Internal("user_save_failed", err)
	}
	return user, nil
}

func (us *userService) GetStats(ctx context.Context) (*types.UserStats, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return &user.Stats, nil
}

func (us *userService) UpdateStats(ctx context.Context, kind types.StatKind, delta int64) (*types.UserStats, error) {
	user, err := us.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	user.Stats.ApplyStat(kind, delta)
	user.LastActive = time.Now().UTC()
	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return nil, apierr.Internal("user_save_failed", err)
	}
	return &user.Stats, nil
}

func (us *userService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if newPassword == "" {
		return apierr.BadRequest("invalid_password", fmt.Errorf("a new password is required"))
	}
	user, err := us.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := us.authService.VerifyPassword(user, currentPassword); err != nil {
		return err
	}
	hashed, err := us.authService.HashPassword(newPassword)
	if err != nil {
		return apierr.Internal("hash_failed", err)
	}
	user.Password = hashed
	if err := us.userRepo.Save(ctx, nil, user); err != nil {
		return apierr.Internal("user_save_failed", err)
	}
	// Credential changed: the current token stops working.
	if err := us.authService.RevokeCurrentToken(ctx); err != nil {
		us.log.Warn("Failed to revoke token after password change", "error", err)
	}
	return nil
}

// DeactivateAccount soft-deletes: the row stays, is_active flips off and
// the caller's token is revoked.
func (us *userService) DeactivateAccount(ctx context.Context) error {
	user, err := us.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := us.userRepo.UpdateFields(ctx, nil, user.ID, map[string]interface{}{
		"is_active": false,
	}); err != nil {
		return apierr.Internal("user_save_failed", err)
	}
	if err := us.authService.RevokeCurrentToken(ctx); err != nil {
		us.log.Warn("Failed to revoke token on deactivation", "error", err)
	}
	return nil
}

func validatePreferences(p *types.UserPreferences) error {
	if p.Voice.Speed < 0.5 || p.Voice.Speed > 2.0 {
		return apierr.BadRequest("invalid_voice_speed", fmt.Errorf("voice speed must be within [0.5, 2.0]"))
	}
	if p.Voice.Volume < 0 || p.Voice.Volume > 1 {
		return apierr.BadRequest("invalid_voice_volume", fmt.Errorf("voice volume must be within [0, 1]"))
	}
	switch p.AssistantModel {
	case types.AssistantModelLocal, types.AssistantModelHybrid, types.AssistantModelCloud:
	case "":
		p.AssistantModel = types.AssistantModelHybrid
	default:
		return apierr.BadRequest("invalid_assistant_model", fmt.Errorf("assistant model must be local, hybrid or cloud"))
	}
	return nil
}
