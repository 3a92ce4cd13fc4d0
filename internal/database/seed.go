package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// seedAsset は初期データとして投入するアセット1件を表す。
type seedAsset struct {
	Name     string
	Type     string
	Category string
	FilePath string
	FileURL  string
	FileSize int64
	MimeType string
	Metadata map[string]any
}

// seedAssets は開発・デモ環境向けのサンプルアセット。
var seedAssets = []seedAsset{
	{
		Name:     "Banner Homepage",
		Type:     "image",
		Category: "banner",
		FilePath: "assets/banner-homepage.jpg",
		FileURL:  "https://picsum.photos/1920/1080?random=1",
		FileSize: 245760,
		MimeType: "image/jpeg",
		Metadata: map[string]any{"width": 1920, "height": 1080, "alt_text": "Homepage Banner"},
	},
	{
		Name:     "Banner Promo",
		Type:     "image",
		Category: "banner",
		FilePath: "assets/banner-promo.jpg",
		FileURL:  "https://picsum.photos/1920/600?random=2",
		FileSize: 180000,
		MimeType: "image/jpeg",
		Metadata: map[string]any{"width": 1920, "height": 600, "alt_text": "Promo Banner"},
	},
	{
		Name:     "Product Image 1",
		Type:     "image",
		Category: "product",
		FilePath: "assets/product-1.jpg",
		FileURL:  "https://picsum.photos/800/800?random=3",
		FileSize: 120000,
		MimeType: "image/jpeg",
		Metadata: map[string]any{"width": 800, "height": 800, "alt_text": "Product 1"},
	},
	{
		Name:     "Logo Company",
		Type:     "image",
		Category: "logo",
		FilePath: "assets/logo.png",
		FileURL:  "https://via.placeholder.com/300x100/4F46E5/FFFFFF?text=LOGO",
		FileSize: 15000,
		MimeType: "image/png",
		Metadata: map[string]any{"width": 300, "height": 100, "alt_text": "Company Logo"},
	},
}

// SeedAssets はassetsテーブルが空の場合のみサンプルアセットを投入する。
// 既にレコードが存在する場合は何もしない（冪等）。
func SeedAssets(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count assets: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, a := range seedAssets {
		meta, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal seed metadata: %w", err)
		}

		_, err = db.ExecContext(ctx,
			`INSERT INTO assets (id, name, type, category, file_path, file_url, file_size, mime_type, metadata, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true)`,
			uuid.New().String(), a.Name, a.Type, a.Category, a.FilePath, a.FileURL, a.FileSize, a.MimeType, meta,
		)
		if err != nil {
			return fmt.Errorf("failed to insert seed asset %q: %w", a.Name, err)
		}
	}

	return nil
}
