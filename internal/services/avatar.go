package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"image/png"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/aria-backend/internal/platform/localmedia"
	"github.com/yungbote/aria-backend/internal/platform/logger"
	"github.com/yungbote/aria-backend/internal/types"
)

const avatarSize = 256

type AvatarService interface {
	CreateUserAvatar(ctx context.Context, user *types.User) error
}

type avatarService struct {
	log      *logger.Logger
	media    localmedia.Store
	bgColors []color.NRGBA
	fontFace font.Face
}

func NewAvatarService(log *logger.Logger, media localmedia.Store) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("could not parse embedded font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: avatarSize * 0.42})

	return &avatarService{
		log:   serviceLog,
		media: media,
		bgColors: []color.NRGBA{
			{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
			{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
			{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
			{R: 0x10, G: 0xB9, B: 0x81, A: 0xFF},
			{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
			{R: 0x06, G: 0xB6, B: 0xD4, A: 0xFF},
		},
		fontFace: face,
	}, nil
}

// CreateUserAvatar renders an initials tile, saves it through the media
// store and points the user's avatar fields at it.
func (as *avatarService) CreateUserAvatar(ctx context.Context, user *types.User) error {
	if user == nil {
		return fmt.Errorf("no user given")
	}
	buf, err := as.renderInitialsAvatar(user)
	if err != nil {
		return err
	}

	oldKey := strings.TrimSpace(user.AvatarKey)
	newKey := fmt.Sprintf("avatars/%s/%d.png", user.ID.String(), time.Now().UnixNano())

	if err := as.media.Save(newKey, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to store user avatar: %w", err)
	}
	user.AvatarKey = newKey
	user.AvatarURL = as.media.URL(newKey)

	if oldKey != "" {
		if err := as.media.Delete(oldKey); err != nil {
			as.log.Warn("Failed to remove previous avatar", "key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) renderInitialsAvatar(user *types.User) (*bytes.Buffer, error) {
	initials := avatarInitials(user.Username)
	bg := as.bgColors[int(user.ID[0])%len(as.bgColors)]

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.SetColor(bg)
	dc.Clear()
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, avatarSize/2, avatarSize/2, 0.5, 0.5)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}
	return &buf, nil
}

func avatarInitials(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "?"
	}
	parts := strings.FieldsFunc(username, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || r == '.'
	})
	if len(parts) >= 2 {
		return strings.ToUpper(string([]rune(parts[0])[0]) + string([]rune(parts[1])[0]))
	}
	runes := []rune(username)
	if len(runes) >= 2 {
		return strings.ToUpper(string(runes[0:2]))
	}
	return strings.ToUpper(string(runes[0]))
}
