// Package asset はアセットのアップロード・取得・翻訳管理のドメインロジックを提供する。
package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/WiMProject/backend-hamim/internal/metrics"
	"github.com/WiMProject/backend-hamim/internal/model"
	"github.com/WiMProject/backend-hamim/internal/repository"
	"github.com/WiMProject/backend-hamim/internal/security"
	"github.com/WiMProject/backend-hamim/internal/storage"
)

// assetCategory はアップロードファイルのストレージ上の名前空間。
const assetCategory = "assets"

// thumbnailWidth は生成するサムネイルの幅（ピクセル）。高さはアスペクト比維持。
const thumbnailWidth = 320

// MetadataExtractor はMIMEタイプ別のメタデータ抽出インターフェース。
type MetadataExtractor interface {
	Extract(mimeType string, data []byte) model.Metadata
}

// UploadInput はアセットアップロードの入力。
type UploadInput struct {
	Name     string
	Type     string
	Category string
	Filename string
	MimeType string
	Data     []byte
}

// TranslationInput は翻訳アセット作成の入力。
type TranslationInput struct {
	Name     string
	Language string
	Content  map[string]any
}

// Service はアセットのドメインロジックを提供する。
type Service struct {
	assets        repository.AssetRepository
	store         storage.FileStore
	extractor     MetadataExtractor
	sanitizer     security.DisplaySanitizerService
	collector     metrics.MetricsCollector
	baseURL       string
	maxUploadSize int64
}

// NewService はServiceを生成する。collectorはnil可（メトリクス無効）。
func NewService(
	assets repository.AssetRepository,
	store storage.FileStore,
	extractor MetadataExtractor,
	sanitizer security.DisplaySanitizerService,
	collector metrics.MetricsCollector,
	baseURL string,
	maxUploadSize int64,
) *Service {
	return &Service{
		assets:        assets,
		store:         store,
		extractor:     extractor,
		sanitizer:     sanitizer,
		collector:     collector,
		baseURL:       baseURL,
		maxUploadSize: maxUploadSize,
	}
}

// Upload はファイルを保存し、メタデータを抽出してアセットとして登録する。
// メタデータ抽出はベストエフォートであり、抽出失敗でアップロードは失敗しない。
// 画像の場合はサムネイルも生成する（これもベストエフォート）。
func (s *Service) Upload(ctx context.Context, input UploadInput) (*model.Asset, error) {
	if err := s.validateUpload(input); err != nil {
		return nil, err
	}

	relPath, err := s.store.Save(assetCategory, input.Filename, input.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	meta := s.extractor.Extract(input.MimeType, input.Data)
	s.recordProbe(input.MimeType, meta)

	now := time.Now()
	asset := &model.Asset{
		ID:        uuid.New().String(),
		Name:      s.sanitizer.Clean(input.Name),
		Type:      input.Type,
		FilePath:  relPath,
		FileURL:   s.fileURL(relPath),
		FileSize:  int64(len(input.Data)),
		MimeType:  input.MimeType,
		Metadata:  meta,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if input.Category != "" {
		category := input.Category
		asset.Category = &category
	}

	if strings.HasPrefix(input.MimeType, "image/") {
		if thumbPath := s.makeThumbnail(relPath, input.Data); thumbPath != "" {
			thumbURL := s.fileURL(thumbPath)
			asset.ThumbnailURL = &thumbURL
		}
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordUpload(asset.Type, asset.FileSize)
	}

	return asset, nil
}

// List は有効なアセット一覧を返す。assetType・categoryは空で絞り込みなし。
func (s *Service) List(ctx context.Context, assetType, category string) ([]*model.Asset, error) {
	return s.assets.List(ctx, assetType, category)
}

// Get は指定IDの有効なアセットを返す。見つからない場合はAPIErrorを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Asset, error) {
	asset, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, model.NewAssetNotFoundError()
	}
	return asset, nil
}

// CreateTranslation は翻訳オブジェクトをJSONファイルとして保存し、
// 翻訳アセットとして登録する。内容はバイト単位ではなくキー・バリュー単位で
// 往復保存される。
func (s *Service) CreateTranslation(ctx context.Context, input TranslationInput) (*model.Asset, error) {
	if err := validateTranslation(input); err != nil {
		return nil, err
	}

	content, err := json.Marshal(input.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translation content: %w", err)
	}

	relPath, err := s.store.Save(assetCategory, input.Language+".json", content)
	if err != nil {
		return nil, fmt.Errorf("failed to store translation file: %w", err)
	}

	now := time.Now()
	asset := &model.Asset{
		ID:       uuid.New().String(),
		Name:     s.sanitizer.Clean(input.Name),
		Type:     model.AssetTypeTranslation,
		FilePath: relPath,
		FileURL:  s.fileURL(relPath),
		FileSize: int64(len(content)),
		MimeType: "application/json",
		Metadata: model.Metadata{
			"language": input.Language,
			"format":   "json",
			"keys":     len(input.Content),
		},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.RecordUpload(asset.Type, asset.FileSize)
	}

	return asset, nil
}

// ListTranslations は有効な翻訳アセット一覧を返す。languageは空で絞り込みなし。
func (s *Service) ListTranslations(ctx context.Context, language string) ([]*model.Asset, error) {
	return s.assets.ListTranslations(ctx, language)
}

// GetTranslationContent は指定言語の翻訳内容を返す。
// アセットが存在しない、またはファイルが読めない場合はAPIErrorを返す。
func (s *Service) GetTranslationContent(ctx context.Context, language string) (map[string]any, error) {
	asset, err := s.assets.FindTranslationByLanguage(ctx, language)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, model.NewTranslationNotFoundError()
	}

	data, err := s.store.ReadFile(asset.FilePath)
	if err != nil {
		slog.Error("translation file missing from storage",
			slog.String("asset_id", asset.ID),
			slog.String("file_path", asset.FilePath),
		)
		return nil, model.NewTranslationNotFoundError()
	}

	content := map[string]any{}
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to decode translation file: %w", err)
	}

	return content, nil
}

// validateUpload はアップロード入力のバリデーションを行う。
func (s *Service) validateUpload(input UploadInput) error {
	if len(input.Data) == 0 {
		return model.NewValidationError("file", "The file field is required.")
	}
	if int64(len(input.Data)) > s.maxUploadSize {
		return model.NewValidationError("file",
			fmt.Sprintf("The file may not be greater than %d kilobytes.", s.maxUploadSize/1024))
	}
	if input.Name == "" {
		return model.NewValidationError("name", "The name field is required.")
	}
	if len(input.Name) > 255 {
		return model.NewValidationError("name", "The name may not be greater than 255 characters.")
	}
	if input.Type == "" {
		return model.NewValidationError("type", "The type field is required.")
	}
	if len(input.Type) > 50 {
		return model.NewValidationError("type", "The type may not be greater than 50 characters.")
	}
	if len(input.Category) > 100 {
		return model.NewValidationError("category", "The category may not be greater than 100 characters.")
	}
	return nil
}

// validateTranslation は翻訳作成入力のバリデーションを行う。
func validateTranslation(input TranslationInput) error {
	if input.Name == "" {
		return model.NewValidationError("name", "The name field is required.")
	}
	if input.Language == "" {
		return model.NewValidationError("language", "The language field is required.")
	}
	if len(input.Language) > 10 {
		return model.NewValidationError("language", "The language may not be greater than 10 characters.")
	}
	if len(input.Content) == 0 {
		return model.NewValidationError("translations", "The translations field is required.")
	}
	return nil
}

// makeThumbnail は画像のサムネイルを生成して保存し、ストレージ相対パスを返す。
// デコードまたは保存に失敗した場合は空文字列を返す（アップロード自体は続行）。
func (s *Service) makeThumbnail(relPath string, data []byte) string {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("thumbnail generation skipped",
			slog.String("file_path", relPath),
			slog.String("error", err.Error()),
		)
		return ""
	}

	thumb := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		slog.Warn("failed to encode thumbnail",
			slog.String("file_path", relPath),
			slog.String("error", err.Error()),
		)
		return ""
	}

	base := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	thumbPath := path.Join(assetCategory, "thumbs", base+".jpg")
	if err := s.store.SaveAs(thumbPath, buf.Bytes()); err != nil {
		slog.Warn("failed to store thumbnail",
			slog.String("file_path", thumbPath),
			slog.String("error", err.Error()),
		)
		return ""
	}

	return thumbPath
}

// recordProbe は抽出結果をメトリクスに記録する。
func (s *Service) recordProbe(mimeType string, meta model.Metadata) {
	if s.collector == nil {
		return
	}

	branch := "other"
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		branch = "image"
	case mimeType == "application/json":
		branch = "json"
	case strings.HasPrefix(mimeType, "audio/"):
		branch = "audio"
	case strings.HasPrefix(mimeType, "video/"):
		branch = "video"
	}

	// formatタグしか残らなかった場合はプローブ失敗とみなす
	outcome := "fallback"
	for key := range meta {
		if key != "format" {
			outcome = "extracted"
			break
		}
	}

	s.collector.RecordProbe(branch, outcome)
}

// fileURL はストレージ相対パスから公開URLを組み立てる。
func (s *Service) fileURL(relPath string) string {
	return s.baseURL + "/files/" + relPath
}
