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
	"os"

	config "github.com/Cascapera/social-automation/configs"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
	"github.com/Cascapera/social-automation/internal/transfer"
	"github.com/Cascapera/social-automation/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube uploads rendered videos through the Data API. One OAuth
// account serves both regular uploads and Shorts; register two
// instances with shorts toggled to cover both platform codes.
type YouTube struct {
	cfg    *config.Config
	sa     repository.SocialAccountRepository
	shorts bool
}

func NewYouTube(cfg *config.Config, sa repository.SocialAccountRepository, shorts bool) *YouTube {
	return &YouTube{cfg: cfg, sa: sa, shorts: shorts}
}

func (y *YouTube) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     y.cfg.GoogleClientID,
		ClientSecret: y.cfg.GoogleClientSecret,
		RedirectURL:  y.cfg.GoogleRedirectURI,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"https://www.googleapis.com/auth/youtube.upload",
		},
		Endpoint: google.Endpoint,
	}
}

func (y *YouTube) Callback(ctx context.Context, code string, brandID int64) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	oauth2Config := y.oauthConfig()
	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return err
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	if token.RefreshToken == "" {
		err := errors.New("refresh token is empty")
		slog.Info(err.Error())
		return err
	}

	client := oauth2Config.Client(ctx, token)
	userInfo, err := GetGoogleUserInfo(client)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.EncryptToken(token.AccessToken, y.cfg.SecretKey)
	if err != nil {
		return err
	}

	encryptedRefreshToken, err := utils.EncryptToken(token.RefreshToken, y.cfg.SecretKey)
	if err != nil {
		return err
	}

	accountInfo := &models.SocialAccount{
		BrandID:         brandID,
		Platform:        "youtube",
		AccountID:       userInfo.ID,
		AccountName:     userInfo.Name,
		AccountUsername: userInfo.Email,
		ProfilePicture:  userInfo.Picture,
		AccessToken:     encryptedAccessToken,
		RefreshToken:    encryptedRefreshToken,
		TokenExpiresAt:  token.Expiry,
	}

	_, err = y.sa.Create(ctx, nil, accountInfo)
	if err != nil {
		return err
	}

	return nil
}

func (y *YouTube) RefreshToken(ctx context.Context, account *models.SocialAccount) error {
	conf := y.oauthConfig()

	decryptedRefreshToken, err := utils.DecryptToken(account.RefreshToken, y.cfg.SecretKey)
	if err != nil {
		return err
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: decryptedRefreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.EncryptToken(token.AccessToken, y.cfg.SecretKey)
	if err != nil {
		return err
	}

	return y.sa.SetToken(ctx, account.ID, &models.SocialAccount{
		AccessToken:    encryptedAccessToken,
		RefreshToken:   account.RefreshToken,
		TokenExpiresAt: token.Expiry,
	})
}

func (y *YouTube) Publish(ctx context.Context, job *models.Job, account *models.SocialAccount, videoURL string) error {
	decryptedAccessToken, err := utils.DecryptToken(account.AccessToken, y.cfg.SecretKey)
	if err != nil {
		return err
	}

	token := &oauth2.Token{AccessToken: decryptedAccessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	service, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return fmt.Errorf("error creating YouTube service: %w", err)
	}

	title := job.Name
	if y.shorts {
		title += " #Shorts"
	}

	return y.uploadVideo(ctx, service, title, videoURL)
}

func (y *YouTube) uploadVideo(ctx context.Context, service *youtube.Service, title, videoURL string) error {
	tempFile, err := downloadVideo(ctx, videoURL)
	if err != nil {
		return fmt.Errorf("error downloading rendered video: %w", err)
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		return fmt.Errorf("error opening video file: %w", err)
	}
	defer file.Close()

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:      title,
			CategoryId: "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: "public",
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Do()
	if err != nil {
		return fmt.Errorf("error uploading video: %w", err)
	}

	slog.Info("YouTube upload finished", "video_id", response.Id)
	return nil
}

func downloadVideo(ctx context.Context, videoURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "upload-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	req, err := http.NewRequestWithContext(ctx, "GET", videoURL, nil)
	if err != nil {
		return "", err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading video: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	if _, err = io.Copy(tempFile, response.Body); err != nil {
		return "", fmt.Errorf("error saving video to temporary file: %w", err)
	}

	return tempFile.Name(), nil
}

func GetGoogleUserInfo(client *http.Client) (*transfer.GoogleUserInfo, error) {
	userInfoURL := "https://www.googleapis.com/oauth2/v1/userinfo"

	response, err := client.Get(userInfoURL)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error fetching user info: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		slog.Info("Unexpected response status")
		return nil, fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(response.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error decoding user info: %w", err)
	}

	return &userInfo, nil
}

// RevokeGoogleAccess invalidates the account's token on disconnect.
func RevokeGoogleAccess(accessToken string) error {
	revokeURL := "https://oauth2.googleapis.com/revoke"
	payload := []byte("token=" + accessToken)

	req, err := http.NewRequest("POST", revokeURL, bytes.NewBuffer(payload))
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
		return fmt.Errorf("failed to revoke token, status code: %d", resp.StatusCode)
	}
	return nil
}
