package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	config "github.com/Cascapera/social-automation/configs"
	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/publisher"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/pkg/utils"
)

const (
	TIKTOK_AUTH_URL    = "https://www.tiktok.com/v2/auth/authorize"
	GOOGLE_AUTH_URL    = "https://accounts.google.com/o/oauth2/v2/auth"
	INSTAGRAM_AUTH_URL = "https://www.instagram.com/oauth/authorize"
)

type PlatformService interface {
	GetAuthURL(ctx context.Context, platform, state string) string
	List(ctx context.Context, brandID int64) ([]*models.SocialAccount, error)
	Delete(ctx context.Context, brandID, accountID int64) error
}

type platformService struct {
	cfg *config.Config
	sa  repository.SocialAccountRepository
}

func NewPlatformService(cfg *config.Config, sa repository.SocialAccountRepository) PlatformService {
	return &platformService{
		cfg: cfg,
		sa:  sa,
	}
}

// GetAuthURL builds the OAuth consent URL for a platform. The state
// carries the brand the account will be attached to on callback.
func (s *platformService) GetAuthURL(ctx context.Context, platform, state string) string {
	switch platform {
	case "instagram":
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", state)

		return fmt.Sprintf("%s?%s", INSTAGRAM_AUTH_URL, params.Encode())

	case "tiktok":
		params := url.Values{}
		params.Add("client_key", s.cfg.TiktokClientKey)
		params.Add("scope", "user.info.basic,user.info.profile,video.publish,video.upload")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.TiktokRedirectURI)
		params.Add("state", state)

		return fmt.Sprintf("%s?%s", TIKTOK_AUTH_URL, params.Encode())

	case "youtube":
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/youtube.upload")
		params.Add("state", state)
		params.Add("access_type", "offline")

		return fmt.Sprintf("%s?%s", GOOGLE_AUTH_URL, params.Encode())

	default:
		return ""
	}
}

func (s *platformService) List(ctx context.Context, brandID int64) ([]*models.SocialAccount, error) {
	if brandID == 0 {
		err := errors.New("brand id is not valid")
		slog.Info(err.Error())
		return nil, apperrors.Validation(err.Error())
	}

	accounts, err := s.sa.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, fmt.Errorf("error getting social accounts: %w", err)
	}

	return accounts, nil
}

func (s *platformService) Delete(ctx context.Context, brandID, accountID int64) error {
	if accountID == 0 {
		err := errors.New("account id is not valid")
		slog.Info(err.Error())
		return apperrors.Validation(err.Error())
	}

	accountInfo, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("unable to get social account info: %w", err)
	}

	if accountInfo == nil || accountInfo.BrandID != brandID {
		return apperrors.NotFound("social account", accountID)
	}

	decryptedAccessToken, err := utils.DecryptToken(accountInfo.AccessToken, s.cfg.SecretKey)
	if err != nil {
		return err
	}

	switch accountInfo.Platform {
	case "tiktok":
		err = publisher.RevokeTiktokAccess(accountInfo.AccountID, decryptedAccessToken)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("unable to revoke access: %w", err)
		}
	case "youtube":
		err = publisher.RevokeGoogleAccess(decryptedAccessToken)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("unable to revoke access: %w", err)
		}
	}

	err = s.sa.Remove(ctx, accountID)
	if err != nil {
		return fmt.Errorf("error removing account: %w", err)
	}

	return nil
}
