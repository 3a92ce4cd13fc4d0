package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/WiMProject/backend-hamim/internal/model"
)

const testBaseURL = "http://localhost:8080"

// --- モック定義 ---

// mockAssetRepo はAssetRepositoryのモック実装。
type mockAssetRepo struct {
	createFn                    func(ctx context.Context, asset *model.Asset) error
	findByIDFn                  func(ctx context.Context, id string) (*model.Asset, error)
	listFn                      func(ctx context.Context, assetType, category string) ([]*model.Asset, error)
	listTranslationsFn          func(ctx context.Context, language string) ([]*model.Asset, error)
	findTranslationByLanguageFn func(ctx context.Context, language string) (*model.Asset, error)
}

func (m *mockAssetRepo) Create(ctx context.Context, asset *model.Asset) error {
	if m.createFn != nil {
		return m.createFn(ctx, asset)
	}
	return nil
}

func (m *mockAssetRepo) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAssetRepo) List(ctx context.Context, assetType, category string) ([]*model.Asset, error) {
	if m.listFn != nil {
		return m.listFn(ctx, assetType, category)
	}
	return nil, nil
}

func (m *mockAssetRepo) ListTranslations(ctx context.Context, language string) ([]*model.Asset, error) {
	if m.listTranslationsFn != nil {
		return m.listTranslationsFn(ctx, language)
	}
	return nil, nil
}

func (m *mockAssetRepo) FindTranslationByLanguage(ctx context.Context, language string) (*model.Asset, error) {
	if m.findTranslationByLanguageFn != nil {
		return m.findTranslationByLanguageFn(ctx, language)
	}
	return nil, nil
}

// memStore はインメモリのFileStore実装。
type memStore struct {
	files map[string][]byte
	seq   int
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (s *memStore) Save(category, filename string, data []byte) (string, error) {
	s.seq++
	relPath := fmt.Sprintf("%s/%d_%s", category, s.seq, filename)
	s.files[relPath] = data
	return relPath, nil
}

func (s *memStore) SaveAs(relPath string, data []byte) error {
	s.files[relPath] = data
	return nil
}

func (s *memStore) Open(relPath string) (io.ReadCloser, error) {
	data, ok := s.files[relPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", relPath)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) ReadFile(relPath string) ([]byte, error) {
	data, ok := s.files[relPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", relPath)
	}
	return data, nil
}

// stubExtractor は固定のメタデータを返すMetadataExtractor実装。
type stubExtractor struct {
	meta model.Metadata
}

func (e *stubExtractor) Extract(mimeType string, data []byte) model.Metadata {
	return e.meta
}

// passthroughSanitizer は前後空白のみ除去するサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Clean(raw string) string {
	return strings.TrimSpace(raw)
}

// newTestService はテスト用の依存一式でServiceを組み立てる。
func newTestService(repo *mockAssetRepo, store *memStore, extractor MetadataExtractor) *Service {
	if extractor == nil {
		extractor = &stubExtractor{meta: model.Metadata{}}
	}
	return NewService(repo, store, extractor, passthroughSanitizer{}, nil, testBaseURL, 10<<20)
}

// encodePNG は指定サイズの単色PNGバイト列を生成する。
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// --- Upload ---

// アップロード成功時のアセット構築内容を検証
func TestService_Upload_Success(t *testing.T) {
	var created *model.Asset
	repo := &mockAssetRepo{
		createFn: func(ctx context.Context, asset *model.Asset) error {
			created = asset
			return nil
		},
	}
	store := newMemStore()
	extractor := &stubExtractor{meta: model.Metadata{"duration": 12.5, "format": "audio"}}

	svc := newTestService(repo, store, extractor)

	uploaded, err := svc.Upload(context.Background(), UploadInput{
		Name:     "  Jingle  ",
		Type:     "audio",
		Category: "sounds",
		Filename: "jingle.mp3",
		MimeType: "audio/mpeg",
		Data:     []byte("mp3-bytes"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if created == nil {
		t.Fatal("asset was not persisted")
	}
	if uploaded.Name != "Jingle" {
		t.Errorf("name = %q, want sanitized Jingle", uploaded.Name)
	}
	if uploaded.FileSize != int64(len("mp3-bytes")) {
		t.Errorf("file size = %d", uploaded.FileSize)
	}
	if uploaded.Category == nil || *uploaded.Category != "sounds" {
		t.Errorf("category = %v, want sounds", uploaded.Category)
	}
	if uploaded.Metadata["duration"] != 12.5 {
		t.Errorf("metadata = %v", uploaded.Metadata)
	}
	if !uploaded.IsActive {
		t.Error("asset should be active")
	}
	if !strings.HasPrefix(uploaded.FileURL, testBaseURL+"/files/assets/") {
		t.Errorf("file URL = %q", uploaded.FileURL)
	}
	if uploaded.ThumbnailURL != nil {
		t.Errorf("thumbnail URL = %v, want nil for non-image", uploaded.ThumbnailURL)
	}

	// ファイル本体がストアに保存されている
	data, err := store.ReadFile(uploaded.FilePath)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("stored data = %q", data)
	}
}

// 画像アップロードでサムネイルが生成されることを検証
func TestService_Upload_ImageThumbnail(t *testing.T) {
	repo := &mockAssetRepo{}
	store := newMemStore()
	svc := newTestService(repo, store, &stubExtractor{meta: model.Metadata{"width": 640, "height": 480}})

	uploaded, err := svc.Upload(context.Background(), UploadInput{
		Name:     "Banner",
		Type:     "image",
		Filename: "banner.png",
		MimeType: "image/png",
		Data:     encodePNG(t, 640, 480),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if uploaded.ThumbnailURL == nil {
		t.Fatal("thumbnail URL = nil, want generated thumbnail")
	}
	if !strings.HasPrefix(*uploaded.ThumbnailURL, testBaseURL+"/files/assets/thumbs/") {
		t.Errorf("thumbnail URL = %q", *uploaded.ThumbnailURL)
	}
	if !strings.HasSuffix(*uploaded.ThumbnailURL, ".jpg") {
		t.Errorf("thumbnail URL = %q, want .jpg suffix", *uploaded.ThumbnailURL)
	}

	// サムネイル本体がストアに保存されている
	thumbRel := strings.TrimPrefix(*uploaded.ThumbnailURL, testBaseURL+"/files/")
	if _, err := store.ReadFile(thumbRel); err != nil {
		t.Errorf("thumbnail file missing: %v", err)
	}
}

// 壊れた画像データでもアップロード自体は成功することを検証
func TestService_Upload_BrokenImageSkipsThumbnail(t *testing.T) {
	svc := newTestService(&mockAssetRepo{}, newMemStore(), nil)

	uploaded, err := svc.Upload(context.Background(), UploadInput{
		Name:     "Broken",
		Type:     "image",
		Filename: "broken.png",
		MimeType: "image/png",
		Data:     []byte("not an image"),
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if uploaded.ThumbnailURL != nil {
		t.Errorf("thumbnail URL = %v, want nil", uploaded.ThumbnailURL)
	}
}

// アップロード入力バリデーションの境界を検証
func TestService_Upload_Validation(t *testing.T) {
	valid := UploadInput{
		Name:     "Logo",
		Type:     "image",
		Filename: "logo.png",
		MimeType: "image/png",
		Data:     []byte("data"),
	}

	cases := []struct {
		name      string
		mutate    func(input *UploadInput)
		wantField string
	}{
		{"empty data", func(in *UploadInput) { in.Data = nil }, "file"},
		{"empty name", func(in *UploadInput) { in.Name = "" }, "name"},
		{"name too long", func(in *UploadInput) { in.Name = strings.Repeat("a", 256) }, "name"},
		{"empty type", func(in *UploadInput) { in.Type = "" }, "type"},
		{"type too long", func(in *UploadInput) { in.Type = strings.Repeat("a", 51) }, "type"},
		{"category too long", func(in *UploadInput) { in.Category = strings.Repeat("a", 101) }, "category"},
	}

	svc := newTestService(&mockAssetRepo{}, newMemStore(), nil)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := valid
			tc.mutate(&input)

			_, err := svc.Upload(context.Background(), input)

			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("Upload() error = %v, want APIError", err)
			}
			if apiErr.Field != tc.wantField {
				t.Errorf("field = %q, want %q", apiErr.Field, tc.wantField)
			}
		})
	}
}

// サイズ上限超過のバリデーションを検証
func TestService_Upload_TooLarge(t *testing.T) {
	svc := NewService(&mockAssetRepo{}, newMemStore(),
		&stubExtractor{meta: model.Metadata{}}, passthroughSanitizer{}, nil, testBaseURL, 8)

	_, err := svc.Upload(context.Background(), UploadInput{
		Name:     "Big",
		Type:     "image",
		Filename: "big.bin",
		MimeType: "application/octet-stream",
		Data:     []byte("123456789"), // 9バイト > 上限8バイト
	})

	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Field != "file" {
		t.Errorf("Upload() error = %v, want file size validation error", err)
	}
}

// --- Get ---

func TestService_Get_NotFound(t *testing.T) {
	svc := newTestService(&mockAssetRepo{}, newMemStore(), nil)

	_, err := svc.Get(context.Background(), "missing")

	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeAssetNotFound {
		t.Errorf("Get() error = %v, want asset not found", err)
	}
}

// --- 翻訳 ---

// 翻訳作成とメタデータの内容を検証
func TestService_CreateTranslation_Success(t *testing.T) {
	var created *model.Asset
	repo := &mockAssetRepo{
		createFn: func(ctx context.Context, asset *model.Asset) error {
			created = asset
			return nil
		},
	}
	store := newMemStore()
	svc := newTestService(repo, store, nil)

	translation, err := svc.CreateTranslation(context.Background(), TranslationInput{
		Name:     "Indonesian",
		Language: "id",
		Content: map[string]any{
			"greeting": "Halo",
			"farewell": "Sampai jumpa",
		},
	})
	if err != nil {
		t.Fatalf("CreateTranslation() error = %v", err)
	}

	if created == nil {
		t.Fatal("translation asset was not persisted")
	}
	if translation.Type != model.AssetTypeTranslation {
		t.Errorf("type = %q, want %q", translation.Type, model.AssetTypeTranslation)
	}
	if translation.MimeType != "application/json" {
		t.Errorf("mime type = %q", translation.MimeType)
	}
	if translation.Metadata["language"] != "id" {
		t.Errorf("metadata[language] = %v", translation.Metadata["language"])
	}
	if translation.Metadata["format"] != "json" {
		t.Errorf("metadata[format] = %v", translation.Metadata["format"])
	}
	if translation.Metadata["keys"] != 2 {
		t.Errorf("metadata[keys] = %v, want 2", translation.Metadata["keys"])
	}
}

// 翻訳作成入力バリデーションを検証
func TestService_CreateTranslation_Validation(t *testing.T) {
	cases := []struct {
		name      string
		input     TranslationInput
		wantField string
	}{
		{"empty name", TranslationInput{Language: "id", Content: map[string]any{"a": "b"}}, "name"},
		{"empty language", TranslationInput{Name: "x", Content: map[string]any{"a": "b"}}, "language"},
		{"language too long", TranslationInput{Name: "x", Language: strings.Repeat("a", 11), Content: map[string]any{"a": "b"}}, "language"},
		{"empty content", TranslationInput{Name: "x", Language: "id"}, "translations"},
	}

	svc := newTestService(&mockAssetRepo{}, newMemStore(), nil)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateTranslation(context.Background(), tc.input)

			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("CreateTranslation() error = %v, want APIError", err)
			}
			if apiErr.Field != tc.wantField {
				t.Errorf("field = %q, want %q", apiErr.Field, tc.wantField)
			}
		})
	}
}

// 作成した翻訳内容がキー・バリュー単位で完全に往復することを検証
func TestService_TranslationContent_RoundTrip(t *testing.T) {
	var created *model.Asset
	repo := &mockAssetRepo{
		createFn: func(ctx context.Context, asset *model.Asset) error {
			created = asset
			return nil
		},
		findTranslationByLanguageFn: func(ctx context.Context, language string) (*model.Asset, error) {
			return created, nil
		},
	}
	store := newMemStore()
	svc := newTestService(repo, store, nil)

	content := map[string]any{
		"greeting": "Halo",
		"nested":   map[string]any{"title": "Selamat datang"},
	}
	if _, err := svc.CreateTranslation(context.Background(), TranslationInput{
		Name:     "Indonesian",
		Language: "id",
		Content:  content,
	}); err != nil {
		t.Fatalf("CreateTranslation() error = %v", err)
	}

	got, err := svc.GetTranslationContent(context.Background(), "id")
	if err != nil {
		t.Fatalf("GetTranslationContent() error = %v", err)
	}

	if got["greeting"] != "Halo" {
		t.Errorf("greeting = %v", got["greeting"])
	}
	nested, ok := got["nested"].(map[string]any)
	if !ok || nested["title"] != "Selamat datang" {
		t.Errorf("nested = %v", got["nested"])
	}
}

// 未登録言語でTranslationNotFoundが返ることを検証
func TestService_GetTranslationContent_NotFound(t *testing.T) {
	svc := newTestService(&mockAssetRepo{}, newMemStore(), nil)

	_, err := svc.GetTranslationContent(context.Background(), "xx")

	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeTranslationNotFound {
		t.Errorf("GetTranslationContent() error = %v, want translation not found", err)
	}
}

// アセットは存在するがファイルが消えている場合もTranslationNotFoundになることを検証
func TestService_GetTranslationContent_FileMissing(t *testing.T) {
	repo := &mockAssetRepo{
		findTranslationByLanguageFn: func(ctx context.Context, language string) (*model.Asset, error) {
			return &model.Asset{
				ID:       "tr-1",
				Type:     model.AssetTypeTranslation,
				FilePath: "assets/gone.json",
			}, nil
		},
	}
	svc := newTestService(repo, newMemStore(), nil)

	_, err := svc.GetTranslationContent(context.Background(), "id")

	apiErr, ok := err.(*model.APIError)
	if !ok || apiErr.Code != model.ErrCodeTranslationNotFound {
		t.Errorf("GetTranslationContent() error = %v, want translation not found", err)
	}
}
