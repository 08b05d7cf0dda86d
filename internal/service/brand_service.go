package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
)

type BrandService interface {
	Create(ctx context.Context, name string) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Brand, error)
	List(ctx context.Context) ([]*models.Brand, error)
}

type brandService struct {
	b repository.BrandRepository
}

func NewBrandService(b repository.BrandRepository) BrandService {
	return &brandService{b: b}
}

func (s *brandService) Create(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, apperrors.Validation("brand name is required")
	}

	slug := Slugify(name)
	existing, err := s.b.GetBySlug(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("failed to check brand slug: %w", err)
	}
	if existing != nil {
		return 0, apperrors.Conflict("brand %q already exists", name)
	}

	id, err := s.b.Create(ctx, &models.Brand{Name: name, Slug: slug})
	if err != nil {
		slog.Info(err.Error())
		return 0, fmt.Errorf("failed to create brand: %w", err)
	}
	return id, nil
}

func (s *brandService) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	brand, err := s.b.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, apperrors.NotFound("brand", id)
	}
	return brand, nil
}

func (s *brandService) List(ctx context.Context) ([]*models.Brand, error) {
	return s.b.List(ctx)
}

// Slugify lowercases the name and collapses anything non-alphanumeric
// into single hyphens.
func Slugify(name string) string {
	var sb strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}
