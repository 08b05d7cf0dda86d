package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/publisher"
	"github.com/Cascapera/social-automation/internal/repository"
)

// TokenRefreshJob renews OAuth tokens that expire within the next half
// hour. Runs on a cron tick.
type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	yt *publisher.YouTube
	tt *publisher.Tiktok
	ig *publisher.Instagram
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	yt *publisher.YouTube,
	tt *publisher.Tiktok,
	ig *publisher.Instagram) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		yt: yt,
		tt: tt,
		ig: ig,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.sr.ListByTimeInterval(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.SocialAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			var err error
			switch acc.Platform {
			case "youtube":
				err = c.yt.RefreshToken(ctx, acc)
			case "instagram":
				err = c.ig.RefreshToken(ctx, acc)
			case "tiktok":
				err = c.tt.RefreshToken(ctx, acc)
			}
			if err != nil {
				slog.Info("token refresh failed", "platform", acc.Platform, "account", acc.ID, "err", err)
			}
		}(acc)
	}

	wg.Wait()
}
