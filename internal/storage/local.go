// Package storage はアップロードファイルの永続化と読み出しを提供する。
//
// ファイルは論理カテゴリ（"assets"等）で名前空間化されたディレクトリ配下に、
// Unixタイムスタンプのプレフィックスで重複回避したファイル名で保存される。
// データベースにはストレージルートからの相対パスのみを記録する。
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore はファイル保存・読み出しのインターフェース。
// ローカルディスク以外のバックエンド（オブジェクトストレージ等）への
// 差し替えを想定した抽象化。
type FileStore interface {
	// Save はdataをcategory配下にタイムスタンプ付きファイル名で保存し、
	// ストレージ相対パスを返す。
	Save(category, filename string, data []byte) (string, error)
	// SaveAs はdataを指定の相対パスにそのまま保存する。タイムスタンプ
	// プレフィックスは付与されず、派生ファイル（サムネイル等）用に
	// 命名を呼び出し側が完全に制御できる。
	SaveAs(relPath string, data []byte) error
	// Open は相対パスのファイルを読み出し用に開く。
	// 存在しない場合はos.ErrNotExistをラップしたエラーを返す。
	Open(relPath string) (io.ReadCloser, error)
	// ReadFile は相対パスのファイル内容をすべて読み出す。
	ReadFile(relPath string) ([]byte, error)
}

// LocalStore はローカルファイルシステム上のFileStore実装。
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore はrootをストレージルートとするLocalStoreを生成する。
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{
		root: root,
		now:  time.Now,
	}
}

// Save はファイルを保存し、ストレージ相対パスを返す。
// ファイル名は「<unixタイムスタンプ>_<サニタイズ済み元ファイル名>」となる。
func (s *LocalStore) Save(category, filename string, data []byte) (string, error) {
	name := fmt.Sprintf("%d_%s", s.now().Unix(), sanitizeFilename(filename))
	relPath := filepath.ToSlash(filepath.Join(category, name))

	if err := s.SaveAs(relPath, data); err != nil {
		return "", err
	}

	return relPath, nil
}

// SaveAs は指定の相対パスにファイルを書き込む。
func (s *LocalStore) SaveAs(relPath string, data []byte) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// Open は相対パスのファイルを開く。
func (s *LocalStore) Open(relPath string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", relPath, err)
	}

	return f, nil
}

// ReadFile は相対パスのファイル内容をすべて読み出す。
func (s *LocalStore) ReadFile(relPath string) ([]byte, error) {
	f, err := s.Open(relPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", relPath, err)
	}

	return data, nil
}

// resolve は相対パスをルート配下の絶対パスに解決する。
// パストラバーサルでルート外に出るパスは拒否する。
func (s *LocalStore) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) ||
		filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage path: %s", relPath)
	}

	return filepath.Join(s.root, cleaned), nil
}

// sanitizeFilename は元ファイル名からパス区切りと制御的な文字を取り除く。
func sanitizeFilename(filename string) string {
	name := filepath.Base(filepath.ToSlash(filename))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)

	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// compile-time interface check
var _ FileStore = (*LocalStore)(nil)
