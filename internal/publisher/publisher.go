// Package publisher holds the per-platform publishing collaborators and
// the OAuth plumbing they need. Each platform publishes independently;
// the scheduling engine fans out over the registry.
package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/Cascapera/social-automation/internal/models"
)

// Publisher posts one finished video to one platform.
type Publisher interface {
	Publish(ctx context.Context, job *models.Job, account *models.SocialAccount, videoURL string) error
}

// Registry maps platform codes (IG, TT, YT, YTB) to publishers.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry() *Registry {
	return &Registry{publishers: make(map[string]Publisher)}
}

func (r *Registry) Register(platform string, p Publisher) {
	r.publishers[platform] = p
}

func (r *Registry) Get(platform string) (Publisher, error) {
	p, ok := r.publishers[platform]
	if !ok {
		return nil, fmt.Errorf("no publisher registered for platform %s", platform)
	}
	return p, nil
}

// AccountPlatform maps a posting platform code to the OAuth account
// platform that serves it. YouTube Shorts and regular YouTube uploads
// share one account.
func AccountPlatform(code string) string {
	switch code {
	case models.PlatformInstagram:
		return "instagram"
	case models.PlatformTiktok:
		return "tiktok"
	case models.PlatformYoutubeShorts, models.PlatformYoutube:
		return "youtube"
	}
	return ""
}

func expiryFromSeconds(expiresIn int) time.Time {
	return time.Now().Add(time.Duration(expiresIn) * time.Second)
}
