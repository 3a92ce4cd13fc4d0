package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/WiMProject/backend-hamim/internal/asset"
	"github.com/WiMProject/backend-hamim/internal/model"
)

// AssetServiceInterface はアセットハンドラーが必要とするサービスインターフェース。
type AssetServiceInterface interface {
	Upload(ctx context.Context, input asset.UploadInput) (*model.Asset, error)
	List(ctx context.Context, assetType, category string) ([]*model.Asset, error)
	Get(ctx context.Context, id string) (*model.Asset, error)
	CreateTranslation(ctx context.Context, input asset.TranslationInput) (*model.Asset, error)
	ListTranslations(ctx context.Context, language string) ([]*model.Asset, error)
	GetTranslationContent(ctx context.Context, language string) (map[string]any, error)
}

// AssetHandler はアセット管理のHTTPハンドラー。
type AssetHandler struct {
	service       AssetServiceInterface
	maxUploadSize int64
}

// NewAssetHandler はAssetHandlerを生成する。
func NewAssetHandler(service AssetServiceInterface, maxUploadSize int64) *AssetHandler {
	return &AssetHandler{
		service:       service,
		maxUploadSize: maxUploadSize,
	}
}

// createTranslationRequest は翻訳アセット作成リクエストのボディ。
type createTranslationRequest struct {
	Name         string         `json:"name"`
	Language     string         `json:"language"`
	Translations map[string]any `json:"translations"`
}

// List は有効なアセット一覧を返す。type・categoryクエリで絞り込み可能。
// GET /api/assets
func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := h.service.List(r.Context(),
		r.URL.Query().Get("type"),
		r.URL.Query().Get("category"),
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": assets,
	})
}

// Get は指定IDのアセット詳細を返す。
// GET /api/assets/{id}
func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": found,
	})
}

// Upload はmultipart/form-dataによるアセットアップロードを処理する。
// フォームフィールド: file（必須）、name（必須）、type（必須）、category（任意）
// POST /api/assets/upload
func (h *AssetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// multipart全体のサイズ上限（フォームフィールド分の余裕を持たせる）
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		handleServiceError(w, model.NewValidationError("file",
			"The file may not be greater than the allowed size."))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handleServiceError(w, model.NewValidationError("file", "The file field is required."))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}

	uploaded, err := h.service.Upload(r.Context(), asset.UploadInput{
		Name:     r.FormValue("name"),
		Type:     r.FormValue("type"),
		Category: r.FormValue("category"),
		Filename: header.Filename,
		MimeType: mimeType,
		Data:     data,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Asset uploaded successfully",
		"data":    uploaded,
	})
}

// ListTranslations は有効な翻訳アセット一覧を返す。languageクエリで絞り込み可能。
// GET /api/assets/translations
func (h *AssetHandler) ListTranslations(w http.ResponseWriter, r *http.Request) {
	translations, err := h.service.ListTranslations(r.Context(), r.URL.Query().Get("language"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": translations,
	})
}

// CreateTranslation は翻訳オブジェクトを翻訳アセットとして登録する。
// POST /api/assets/translations
func (h *AssetHandler) CreateTranslation(w http.ResponseWriter, r *http.Request) {
	var req createTranslationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	created, err := h.service.CreateTranslation(r.Context(), asset.TranslationInput{
		Name:     req.Name,
		Language: req.Language,
		Content:  req.Translations,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Translation created successfully",
		"data":    created,
	})
}

// GetTranslationContent は指定言語の翻訳内容を返す。
// 内容は作成時に渡されたキー・バリューと完全に一致する。
// GET /api/assets/translations/{language}
func (h *AssetHandler) GetTranslationContent(w http.ResponseWriter, r *http.Request) {
	content, err := h.service.GetTranslationContent(r.Context(), chi.URLParam(r, "language"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": content,
	})
}
