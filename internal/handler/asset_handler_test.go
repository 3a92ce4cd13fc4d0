package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/WiMProject/backend-hamim/internal/asset"
	"github.com/WiMProject/backend-hamim/internal/middleware"
	"github.com/WiMProject/backend-hamim/internal/model"
)

const testMaxUploadSize = 10 << 20

// mockAssetService はAssetServiceInterfaceのモック実装。
type mockAssetService struct {
	uploadFn                func(ctx context.Context, input asset.UploadInput) (*model.Asset, error)
	listFn                  func(ctx context.Context, assetType, category string) ([]*model.Asset, error)
	getFn                   func(ctx context.Context, id string) (*model.Asset, error)
	createTranslationFn     func(ctx context.Context, input asset.TranslationInput) (*model.Asset, error)
	listTranslationsFn      func(ctx context.Context, language string) ([]*model.Asset, error)
	getTranslationContentFn func(ctx context.Context, language string) (map[string]any, error)
}

func (m *mockAssetService) Upload(ctx context.Context, input asset.UploadInput) (*model.Asset, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAssetService) List(ctx context.Context, assetType, category string) ([]*model.Asset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, assetType, category)
	}
	return nil, nil
}

func (m *mockAssetService) Get(ctx context.Context, id string) (*model.Asset, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAssetService) CreateTranslation(ctx context.Context, input asset.TranslationInput) (*model.Asset, error) {
	if m.createTranslationFn != nil {
		return m.createTranslationFn(ctx, input)
	}
	return nil, nil
}

func (m *mockAssetService) ListTranslations(ctx context.Context, language string) ([]*model.Asset, error) {
	if m.listTranslationsFn != nil {
		return m.listTranslationsFn(ctx, language)
	}
	return nil, nil
}

func (m *mockAssetService) GetTranslationContent(ctx context.Context, language string) (map[string]any, error) {
	if m.getTranslationContentFn != nil {
		return m.getTranslationContentFn(ctx, language)
	}
	return nil, nil
}

// newAssetRouter はURLパラメータを解決するためchiルーター越しにハンドラーを張る。
func newAssetRouter(h *AssetHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/assets", h.List)
	r.Get("/api/assets/translations", h.ListTranslations)
	r.Get("/api/assets/translations/{language}", h.GetTranslationContent)
	r.Get("/api/assets/{id}", h.Get)
	r.Post("/api/assets/upload", h.Upload)
	r.Post("/api/assets/translations", h.CreateTranslation)
	return r
}

// --- GET /api/assets ---

func TestAssetHandler_List_PassesFilters(t *testing.T) {
	var gotType, gotCategory string
	svc := &mockAssetService{
		listFn: func(ctx context.Context, assetType, category string) ([]*model.Asset, error) {
			gotType, gotCategory = assetType, category
			return []*model.Asset{{ID: "asset-1", Name: "logo", Type: "image"}}, nil
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	req := httptest.NewRequest(http.MethodGet, "/api/assets?type=image&category=branding", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotType != "image" || gotCategory != "branding" {
		t.Errorf("filters = (%q, %q), want (image, branding)", gotType, gotCategory)
	}

	var resp struct {
		Data []*model.Asset `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "asset-1" {
		t.Errorf("data = %+v, want single asset-1", resp.Data)
	}
}

// --- GET /api/assets/{id} ---

func TestAssetHandler_Get_NotFound(t *testing.T) {
	svc := &mockAssetService{
		getFn: func(ctx context.Context, id string) (*model.Asset, error) {
			return nil, model.NewAssetNotFoundError()
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	req := httptest.NewRequest(http.MethodGet, "/api/assets/missing-id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var body middleware.ErrorResponseBody
	json.NewDecoder(w.Body).Decode(&body)
	if body.Message != "Asset not found" {
		t.Errorf("message = %q, want Asset not found", body.Message)
	}
}

func TestAssetHandler_Get_PassesID(t *testing.T) {
	var gotID string
	svc := &mockAssetService{
		getFn: func(ctx context.Context, id string) (*model.Asset, error) {
			gotID = id
			return &model.Asset{ID: id}, nil
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	req := httptest.NewRequest(http.MethodGet, "/api/assets/asset-42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotID != "asset-42" {
		t.Errorf("id = %q, want asset-42", gotID)
	}
}

// --- POST /api/assets/upload ---

// multipartUploadBody はfile・name・typeフィールドを持つmultipartボディを組み立てる。
func multipartUploadBody(t *testing.T, fields map[string]string, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("failed to write field %s: %v", key, err)
		}
	}

	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		fw.Write(fileData)
	}

	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestAssetHandler_Upload_Success(t *testing.T) {
	var gotInput asset.UploadInput
	svc := &mockAssetService{
		uploadFn: func(ctx context.Context, input asset.UploadInput) (*model.Asset, error) {
			gotInput = input
			return &model.Asset{ID: "asset-1", Name: input.Name, Type: input.Type}, nil
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	body, contentType := multipartUploadBody(t, map[string]string{
		"name":     "Company Logo",
		"type":     "image",
		"category": "branding",
	}, "logo.png", []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/api/assets/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	if gotInput.Name != "Company Logo" || gotInput.Type != "image" || gotInput.Category != "branding" {
		t.Errorf("input = %+v", gotInput)
	}
	if gotInput.Filename != "logo.png" {
		t.Errorf("filename = %q, want logo.png", gotInput.Filename)
	}
	if string(gotInput.Data) != "png-bytes" {
		t.Errorf("data = %q, want png-bytes", gotInput.Data)
	}
	// multipartにContent-Typeが無いので拡張子からMIMEを推定
	if gotInput.MimeType != "image/png" {
		t.Errorf("mime type = %q, want image/png", gotInput.MimeType)
	}

	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["message"] != "Asset uploaded successfully" {
		t.Errorf("message = %v", resp["message"])
	}
}

func TestAssetHandler_Upload_FileMissing(t *testing.T) {
	router := newAssetRouter(NewAssetHandler(&mockAssetService{}, testMaxUploadSize))

	body, contentType := multipartUploadBody(t, map[string]string{
		"name": "No File",
		"type": "image",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/assets/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	var respBody middleware.ErrorResponseBody
	json.NewDecoder(w.Body).Decode(&respBody)
	if msgs := respBody.Errors["file"]; len(msgs) != 1 || msgs[0] != "The file field is required." {
		t.Errorf("errors[file] = %v", msgs)
	}
}

// --- GET /api/assets/translations ---

func TestAssetHandler_ListTranslations_PassesLanguage(t *testing.T) {
	var gotLanguage string
	svc := &mockAssetService{
		listTranslationsFn: func(ctx context.Context, language string) ([]*model.Asset, error) {
			gotLanguage = language
			return []*model.Asset{}, nil
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	req := httptest.NewRequest(http.MethodGet, "/api/assets/translations?language=id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotLanguage != "id" {
		t.Errorf("language = %q, want id", gotLanguage)
	}
}

// --- POST /api/assets/translations ---

func TestAssetHandler_CreateTranslation_Success(t *testing.T) {
	var gotInput asset.TranslationInput
	svc := &mockAssetService{
		createTranslationFn: func(ctx context.Context, input asset.TranslationInput) (*model.Asset, error) {
			gotInput = input
			return &model.Asset{ID: "tr-1", Type: model.AssetTypeTranslation}, nil
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	body := `{"name":"Indonesian","language":"id","translations":{"greeting":"Halo","farewell":"Sampai jumpa"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/assets/translations", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if gotInput.Language != "id" || gotInput.Name != "Indonesian" {
		t.Errorf("input = %+v", gotInput)
	}
	if gotInput.Content["greeting"] != "Halo" {
		t.Errorf("content[greeting] = %v, want Halo", gotInput.Content["greeting"])
	}
}

// --- GET /api/assets/translations/{language} ---

func TestAssetHandler_GetTranslationContent(t *testing.T) {
	svc := &mockAssetService{
		getTranslationContentFn: func(ctx context.Context, language string) (map[string]any, error) {
			if language != "id" {
				t.Errorf("language = %q, want id", language)
			}
			return map[string]any{"greeting": "Halo"}, nil
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	req := httptest.NewRequest(http.MethodGet, "/api/assets/translations/id", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Data map[string]any `json:"data"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Data["greeting"] != "Halo" {
		t.Errorf("data = %v", resp.Data)
	}
}

func TestAssetHandler_GetTranslationContent_NotFound(t *testing.T) {
	svc := &mockAssetService{
		getTranslationContentFn: func(ctx context.Context, language string) (map[string]any, error) {
			return nil, model.NewTranslationNotFoundError()
		},
	}

	router := newAssetRouter(NewAssetHandler(svc, testMaxUploadSize))

	req := httptest.NewRequest(http.MethodGet, "/api/assets/translations/xx", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
