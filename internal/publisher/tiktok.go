package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	config "github.com/Cascapera/social-automation/configs"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
	"github.com/Cascapera/social-automation/pkg/utils"
)

const tiktokTokenURL = "https://open.tiktokapis.com/v2/oauth/token/"

type Tiktok struct {
	cfg *config.Config
	sa  repository.SocialAccountRepository
}

func NewTiktok(cfg *config.Config, sa repository.SocialAccountRepository) *Tiktok {
	return &Tiktok{cfg: cfg, sa: sa}
}

func (t *Tiktok) Callback(ctx context.Context, code string, brandID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	tokenResponse, err := t.exchangeCodeForToken(code)
	if err != nil {
		return err
	}

	userInfo, err := tiktokUserInfo(tokenResponse.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.EncryptToken(tokenResponse.AccessToken, t.cfg.SecretKey)
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.EncryptToken(tokenResponse.RefreshToken, t.cfg.SecretKey)
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		BrandID:         brandID,
		Platform:        "tiktok",
		AccountID:       userInfo.Data.User.OpenID,
		AccountName:     userInfo.Data.User.DisplayName,
		AccountUsername: userInfo.Data.User.Username,
		ProfilePicture:  userInfo.Data.User.AvatarURL,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedRefreshToken,
		TokenExpiresAt:  expiryFromSeconds(tokenResponse.ExpiresIn),
	}

	_, err = t.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (t *Tiktok) exchangeCodeForToken(code string) (*transfer.TiktokTokenResponse, error) {
	data := url.Values{}
	data.Add("client_key", t.cfg.TiktokClientKey)
	data.Add("client_secret", t.cfg.TiktokClientSecret)
	data.Add("scopes", "user.info.basic,user.info.profile,video.publish,video.upload")
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", t.cfg.TiktokRedirectURI)

	resp, err := http.Post(
		tiktokTokenURL,
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("TikTok token endpoint returned non-200 status")
		return nil, errors.New("TikTok token endpoint returned non-200 status")
	}

	var tokenResponse transfer.TiktokTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokenResponse, nil
}

func tiktokUserInfo(accessToken string) (*transfer.TikTokResponse, error) {
	reqURL := "https://open.tiktokapis.com/v2/user/info/?fields=open_id,avatar_url,display_name,username"

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var result transfer.TikTokResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &result, nil
}

func (t *Tiktok) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	decryptedRefreshToken, err := utils.DecryptToken(account.RefreshToken, t.cfg.SecretKey)
	if err != nil {
		return err
	}

	data := url.Values{}
	data.Set("client_key", t.cfg.TiktokClientKey)
	data.Set("client_secret", t.cfg.TiktokClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", decryptedRefreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", tiktokTokenURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("TikTok refresh failed: %s (status code: %d)", body, resp.StatusCode)
	}

	var tokenResponse transfer.TiktokTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return err
	}

	encryptedAccessToken, err := utils.EncryptToken(tokenResponse.AccessToken, t.cfg.SecretKey)
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.EncryptToken(tokenResponse.RefreshToken, t.cfg.SecretKey)
	if err != nil {
		return err
	}

	return t.sa.SetToken(ctx, account.ID, &models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: expiryFromSeconds(tokenResponse.ExpiresIn),
	})
}

// Publish sends the rendered video through the direct-post API. TikTok
// pulls the file from the public URL.
func (t *Tiktok) Publish(ctx context.Context, job *models.Job, account *models.SocialAccount, videoURL string) error {
	decryptedAccessToken, err := utils.DecryptToken(account.AccessToken, t.cfg.SecretKey)
	if err != nil {
		return err
	}

	videoUploadRequest := transfer.VideoUploadRequest{
		PostInfo: transfer.VideoPostInfo{
			Title:                 job.Name,
			PrivacyLevel:          "PUBLIC_TO_EVERYONE",
			DisableDuet:           false,
			DisableComment:        false,
			DisableStitch:         false,
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.VideoSourceInfo{
			Source:   "PULL_FROM_URL",
			VideoURL: videoURL,
		},
	}

	jsonData, err := json.Marshal(videoUploadRequest)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	uploadURL := "https://open.tiktokapis.com/v2/post/publish/video/init/"
	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+decryptedAccessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	var result transfer.TikTokUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("error posting video on TikTok: %s", result.Error.Message)
	}

	slog.Info("TikTok publish accepted", "publish_id", result.Data.PublishID)
	return nil
}

// RevokeTiktokAccess invalidates the account's token on disconnect.
func RevokeTiktokAccess(openID, accessToken string) error {
	urlRevoke := "https://open-api.tiktok.com/oauth/revoke/"
	params := url.Values{}
	params.Add("open_id", openID)
	params.Add("access_token", accessToken)

	req, err := http.NewRequest("POST", urlRevoke, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result transfer.TiktokRevokeData
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to revoke token, status code: %s", result.Description)
	}
	return nil
}
