// Package model はドメインモデルを定義する。
package model

import "time"

// AssetTypeTranslation は翻訳アセットのtype値。
// 翻訳アセットはmetadataのlanguageキーで言語を識別する。
const AssetTypeTranslation = "translation"

// Metadata はアセットの派生メタデータを表すオープンなキー・バリュー集合。
// 含まれるキーはアップロード時のMIMEタイプのみで決まり、以後再計算されない。
// 値は数値（寸法・フレーム数はint、秒数はfloat64）または文字列（formatタグ）。
type Metadata map[string]any

// Asset は保存済みファイル1件とその派生メタデータを表す。
// is_active=false のアセットは全ての読み取り系エンドポイントから除外されるが、
// 物理削除はされない。
type Asset struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Category     *string   `json:"category"`
	FilePath     string    `json:"file_path"`
	FileURL      string    `json:"file_url"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	FileSize     int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	Metadata     Metadata  `json:"metadata"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Language は翻訳アセットのmetadataから言語コードを取り出す。
// 翻訳アセットでない場合は空文字列を返す。
func (a *Asset) Language() string {
	if a.Type != AssetTypeTranslation || a.Metadata == nil {
		return ""
	}
	lang, _ := a.Metadata["language"].(string)
	return lang
}
