package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/WiMProject/backend-hamim/internal/middleware"
	"github.com/WiMProject/backend-hamim/internal/model"
	"github.com/WiMProject/backend-hamim/internal/storage"
)

// fileCacheControl は配信ファイルのキャッシュ指示。
// ファイル名にタイムスタンプが含まれ内容が変わらないため、1年の不変キャッシュとする。
const fileCacheControl = "public, max-age=31536000"

// FileHandler はストレージ上のファイル配信ハンドラー。
type FileHandler struct {
	store storage.FileStore
}

// NewFileHandler はFileHandlerを生成する。
func NewFileHandler(store storage.FileStore) *FileHandler {
	return &FileHandler{store: store}
}

// Serve はストレージ相対パスのファイルを配信する。
// Content-Typeはファイル拡張子から決定する。
// GET /files/*
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	relPath := chi.URLParam(r, "*")
	if relPath == "" {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewFileNotFoundError())
		return
	}

	f, err := h.store.Open(relPath)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewFileNotFoundError())
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(relPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", fileCacheControl)
	io.Copy(w, f)
}
