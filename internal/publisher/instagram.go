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
	"time"

	config "github.com/Cascapera/social-automation/configs"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
	"github.com/Cascapera/social-automation/pkg/utils"
)

const instagramGraphVersion = "v21.0"

type Instagram struct {
	cfg *config.Config
	sa  repository.SocialAccountRepository
}

func NewInstagram(cfg *config.Config, sa repository.SocialAccountRepository) *Instagram {
	return &Instagram{cfg: cfg, sa: sa}
}

// Callback finishes the OAuth flow: exchanges the code for a long-lived
// token, fetches the account profile and stores it under the brand.
func (ig *Instagram) Callback(ctx context.Context, code string, brandID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	token, err := ig.exchangeCodeForToken(ctx, code)
	if err != nil {
		return err
	}

	userInfo, err := ig.getUserInfo(token.LongLivedToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.EncryptToken(token.AccessToken, ig.cfg.SecretKey)
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		BrandID:         brandID,
		Platform:        "instagram",
		AccountID:       userInfo.UserID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Username,
		ProfilePicture:  userInfo.ProfilePicture,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedAccessToken,
		TokenExpiresAt:  token.ExpiresAt,
	}

	_, err = ig.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (ig *Instagram) getShortLivedToken(code string) (*transfer.InstagramToken, error) {
	data := url.Values{}
	data.Set("client_id", ig.cfg.InstagramClientID)
	data.Set("client_secret", ig.cfg.InstagramClientSecret)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", ig.cfg.InstagramRedirectURI)
	data.Set("code", code)

	resp, err := http.Post(
		"https://api.instagram.com/oauth/access_token",
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		UserID      int    `json:"user_id"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %v", err)
	}

	return &transfer.InstagramToken{
		UserID:      result.UserID,
		AccessToken: result.AccessToken,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (ig *Instagram) getLongLivedToken(shortLivedToken string) (string, time.Time, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		ig.cfg.InstagramClientSecret,
		shortLivedToken,
	)

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to get long-lived token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("error response from Instagram: %s (status code: %d)", body, resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return "", time.Time{}, fmt.Errorf("failed to decode long-lived token response: %v", err)
	}

	return result.AccessToken, expiryFromSeconds(result.ExpiresIn), nil
}

func (ig *Instagram) exchangeCodeForToken(ctx context.Context, code string) (*transfer.InstagramToken, error) {
	shortLivedToken, err := ig.getShortLivedToken(code)
	if err != nil {
		return nil, fmt.Errorf("failed to get short-lived token: %v", err)
	}

	longLivedToken, expiresAt, err := ig.getLongLivedToken(shortLivedToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %v", err)
	}

	return &transfer.InstagramToken{
		AccessToken:    longLivedToken,
		LongLivedToken: longLivedToken,
		ExpiresAt:      expiresAt,
	}, nil
}

func (ig *Instagram) getUserInfo(accessToken string) (*transfer.InstagramUserInfo, error) {
	var userInfo transfer.InstagramUserInfo

	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/me?fields=id,username,name,account_type,profile_picture_url&access_token=%s",
		accessToken,
	)

	resp, err := http.Get(reqURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return &userInfo, nil
}

// RefreshToken renews the long-lived token before it expires.
func (ig *Instagram) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	decryptedToken, err := utils.DecryptToken(account.RefreshToken, ig.cfg.SecretKey)
	if err != nil {
		return err
	}

	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		decryptedToken,
	)

	resp, err := http.Get(reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	encryptedAccessToken, err := utils.EncryptToken(result.AccessToken, ig.cfg.SecretKey)
	if err != nil {
		return err
	}

	return ig.sa.SetToken(ctx, account.ID, &models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedAccessToken,
		TokenExpiresAt: expiryFromSeconds(result.ExpiresIn),
	})
}

// Publish uploads the rendered video as a Reel. Instagram pulls the
// video from the public URL, so the container may stay IN_PROGRESS for
// a while; we poll its status before publishing.
func (ig *Instagram) Publish(ctx context.Context, job *models.Job, account *models.SocialAccount, videoURL string) error {
	accessToken, err := utils.DecryptToken(account.AccessToken, ig.cfg.SecretKey)
	if err != nil {
		return err
	}

	containerID, err := ig.createReelContainer(ctx, account.AccountID, job.Name, videoURL, accessToken)
	if err != nil {
		return fmt.Errorf("failed to create media container: %w", err)
	}

	if err := ig.waitForContainer(ctx, containerID, accessToken); err != nil {
		return err
	}

	if err := ig.publishContainer(ctx, account.AccountID, containerID, accessToken); err != nil {
		return fmt.Errorf("failed to publish media container: %w", err)
	}

	return nil
}

func (ig *Instagram) createReelContainer(ctx context.Context, accountID, caption, videoURL, accessToken string) (string, error) {
	reqURL := fmt.Sprintf("https://graph.instagram.com/%s/%s/media", instagramGraphVersion, accountID)

	payload := map[string]interface{}{
		"media_type":   "REELS",
		"video_url":    videoURL,
		"caption":      caption,
		"access_token": accessToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from Instagram: %d (%s)", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	if result.ID == "" {
		return "", errors.New("no media ID returned from Instagram")
	}
	return result.ID, nil
}

func (ig *Instagram) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/%s/%s?fields=status_code&access_token=%s",
		instagramGraphVersion, containerID, accessToken,
	)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for i := 0; i < 30; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		resp, err := http.Get(reqURL)
		if err != nil {
			return fmt.Errorf("HTTP request error: %w", err)
		}

		var result struct {
			StatusCode string `json:"status_code"`
		}
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("error parsing container status: %w", err)
		}

		switch result.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return errors.New("Instagram failed to process the uploaded video")
		}
	}

	return errors.New("timed out waiting for Instagram media container")
}

func (ig *Instagram) publishContainer(ctx context.Context, accountID, containerID, accessToken string) error {
	reqURL := fmt.Sprintf("https://graph.instagram.com/%s/%s/media_publish", instagramGraphVersion, accountID)
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", reqURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code from Instagram: %d (%s)", resp.StatusCode, respBody)
	}

	return nil
}
