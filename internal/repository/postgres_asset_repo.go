package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// PostgresAssetRepo はPostgreSQLを使用したアセットリポジトリ。
// metadataカラムはJSONBとして保存し、読み書き時にmodel.Metadataと相互変換する。
type PostgresAssetRepo struct {
	db *sql.DB
}

// NewPostgresAssetRepo はPostgresAssetRepoを生成する。
func NewPostgresAssetRepo(db *sql.DB) *PostgresAssetRepo {
	return &PostgresAssetRepo{db: db}
}

// assetColumns はアセット取得系クエリで共通のSELECT列リスト。
const assetColumns = `id, name, type, category, file_path, file_url, thumbnail_url,
	file_size, mime_type, metadata, is_active, created_at, updated_at`

// Create はアセットを作成する。
func (r *PostgresAssetRepo) Create(ctx context.Context, asset *model.Asset) error {
	metadata, err := marshalMetadata(asset.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO assets (id, name, type, category, file_path, file_url,
		 thumbnail_url, file_size, mime_type, metadata, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		asset.ID, asset.Name, asset.Type, asset.Category, asset.FilePath,
		asset.FileURL, asset.ThumbnailURL, asset.FileSize, asset.MimeType,
		metadata, asset.IsActive, asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}

	return nil
}

// FindByID は指定IDの有効なアセットを取得する。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 AND is_active = true`,
		id,
	)
	return scanAsset(row)
}

// List は有効なアセット一覧を作成日時の降順で返す。
// assetType・categoryが空でない場合はそれぞれで絞り込む。
func (r *PostgresAssetRepo) List(ctx context.Context, assetType, category string) ([]*model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE is_active = true`
	args := []any{}

	if assetType != "" {
		args = append(args, assetType)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if category != "" {
		args = append(args, category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	return r.queryAssets(ctx, query, args...)
}

// ListTranslations は有効な翻訳アセット一覧を作成日時の降順で返す。
// languageが空でない場合はmetadataのlanguageキーで絞り込む。
func (r *PostgresAssetRepo) ListTranslations(ctx context.Context, language string) ([]*model.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets
		 WHERE is_active = true AND type = $1`
	args := []any{model.AssetTypeTranslation}

	if language != "" {
		args = append(args, language)
		query += fmt.Sprintf(" AND metadata->>'language' = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	return r.queryAssets(ctx, query, args...)
}

// FindTranslationByLanguage は指定言語の有効な翻訳アセットを取得する。
// 複数ある場合は最新の1件。見つからない場合はnilを返す。
func (r *PostgresAssetRepo) FindTranslationByLanguage(ctx context.Context, language string) (*model.Asset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assetColumns+` FROM assets
		 WHERE is_active = true AND type = $1 AND metadata->>'language' = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		model.AssetTypeTranslation, language,
	)
	return scanAsset(row)
}

// queryAssets は複数行クエリを実行してアセットのスライスに読み出す。
func (r *PostgresAssetRepo) queryAssets(ctx context.Context, query string, args ...any) ([]*model.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := []*model.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// scanAsset は1行をmodel.Assetに読み出す。sql.ErrNoRowsはnilとして扱う。
func scanAsset(row rowScanner) (*model.Asset, error) {
	asset := &model.Asset{}
	var metadata []byte

	err := row.Scan(
		&asset.ID, &asset.Name, &asset.Type, &asset.Category,
		&asset.FilePath, &asset.FileURL, &asset.ThumbnailURL,
		&asset.FileSize, &asset.MimeType, &metadata, &asset.IsActive,
		&asset.CreatedAt, &asset.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}

	asset.Metadata = model.Metadata{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &asset.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode asset metadata: %w", err)
		}
	}

	return asset, nil
}

// marshalMetadata はメタデータをJSONBカラム用にエンコードする。
// nilは空オブジェクトとして保存する。
func marshalMetadata(metadata model.Metadata) ([]byte, error) {
	if metadata == nil {
		metadata = model.Metadata{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode asset metadata: %w", err)
	}
	return encoded, nil
}

// compile-time interface check
var _ AssetRepository = (*PostgresAssetRepo)(nil)
