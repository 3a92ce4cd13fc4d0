// Package logger はサービス共通の構造化ログ設定を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New はlevel以上のレコードをwへ1行1件のJSONで出力するロガーを生成する。
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetupDefault はINFOレベルのJSONロガーをプロセス全体のデフォルトに設定する。
// wがnilの場合はos.Stdoutへ出力する。コンテナ環境でのログ収集を前提に
// 1レコード1行のJSONを出力する。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(New(w, slog.LevelInfo))
}
