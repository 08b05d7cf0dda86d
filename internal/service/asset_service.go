package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/Cascapera/social-automation/internal/apperrors"
	"github.com/Cascapera/social-automation/internal/models"
	"github.com/Cascapera/social-automation/internal/repository"
)

var assetTypes = map[string]struct{}{
	models.AssetTypeLogo:  {},
	models.AssetTypeFrame: {},
	models.AssetTypeIntro: {},
	models.AssetTypeOutro: {},
	models.AssetTypeCTA:   {},
}

// Playable brand assets are videos; logos and frames are images.
var assetExtensions = map[string]map[string]struct{}{
	models.AssetTypeLogo:  {"png": {}, "jpg": {}, "jpeg": {}},
	models.AssetTypeFrame: {"png": {}, "jpg": {}, "jpeg": {}},
	models.AssetTypeIntro: {"mp4": {}, "mov": {}},
	models.AssetTypeOutro: {"mp4": {}, "mov": {}},
	models.AssetTypeCTA:   {"mp4": {}, "mov": {}},
}

type AssetService interface {
	Upload(ctx context.Context, brandID int64, assetType, label string, file []byte) (int64, error)
	List(ctx context.Context, brandID int64, assetType string) ([]*models.BrandAsset, error)
	Delete(ctx context.Context, brandID, assetID int64) error
}

type assetService struct {
	b  repository.BrandRepository
	a  repository.AssetRepository
	st Storage
}

func NewAssetService(b repository.BrandRepository, a repository.AssetRepository, st Storage) AssetService {
	return &assetService{b: b, a: a, st: st}
}

func (s *assetService) Upload(ctx context.Context, brandID int64, assetType, label string, file []byte) (int64, error) {
	if _, ok := assetTypes[assetType]; !ok {
		return 0, apperrors.Validation("unknown asset type %q", assetType)
	}

	brand, err := s.b.GetByID(ctx, brandID)
	if err != nil {
		return 0, err
	}
	if brand == nil {
		return 0, apperrors.NotFound("brand", brandID)
	}

	fileType, err := filetype.Match(file)
	if err != nil || fileType == types.Unknown {
		return 0, apperrors.Validation("unsupported file type")
	}
	if _, ok := assetExtensions[assetType][fileType.Extension]; !ok {
		return 0, apperrors.Validation("file type %s is not allowed for %s assets", fileType.Extension, assetType)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	key := fmt.Sprintf("assets/%d/%s.%s", brandID, id, fileType.Extension)

	if err := s.st.Upload(ctx, key, file, fileType.MIME.Value); err != nil {
		return 0, fmt.Errorf("error uploading asset: %w", err)
	}

	assetID, err := s.a.Create(ctx, &models.BrandAsset{
		BrandID:   brandID,
		AssetType: assetType,
		Label:     label,
		FileKey:   key,
		FileURL:   s.st.PublicURL(key),
	})
	if err != nil {
		return 0, fmt.Errorf("error saving asset: %w", err)
	}

	return assetID, nil
}

func (s *assetService) List(ctx context.Context, brandID int64, assetType string) ([]*models.BrandAsset, error) {
	if assetType != "" {
		if _, ok := assetTypes[assetType]; !ok {
			return nil, apperrors.Validation("unknown asset type %q", assetType)
		}
	}
	return s.a.List(ctx, brandID, assetType)
}

func (s *assetService) Delete(ctx context.Context, brandID, assetID int64) error {
	asset, err := s.a.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset == nil || asset.BrandID != brandID {
		return apperrors.NotFound("asset", assetID)
	}

	if err := s.a.Remove(ctx, assetID); err != nil {
		return fmt.Errorf("error removing asset: %w", err)
	}

	if err := s.st.Delete(ctx, asset.FileKey); err != nil {
		slog.Info("asset file delete failed", "key", asset.FileKey, "err", err)
	}

	return nil
}
