// Package metadata はアップロードファイルからの派生メタデータ抽出を提供する。
//
// 抽出は宣言されたMIMEタイプによる分岐で行い、ファイルは必ず1つの分岐にのみ
// 分類される。すべてのプローブはベストエフォートであり、壊れたファイルや
// 解釈不能なファイルでもアップロード自体を失敗させない。プローブの失敗は
// フィールドの欠落（画像・JSON）または最小限のformatタグ（音声・動画）に
// 縮退する。
package metadata

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"math"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	mp4 "github.com/abema/go-mp4"
	mp3 "github.com/tcolgate/mp3"

	"github.com/WiMProject/backend-hamim/internal/model"
)

// Extractor はMIMEタイプ別のメタデータ抽出を提供する。
type Extractor struct{}

// NewExtractor はExtractorの新しいインスタンスを生成する。
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract はファイル内容からメタデータを抽出する。
// 分岐は先頭一致で決まり、最初にマッチした1つのプローブのみが実行される:
//
//	image/*            → 画像ヘッダー解析（width, height）
//	application/json   → Lottieアニメーション判定（width, height, format, frame_rate, frames）
//	audio/*            → MP3フレーム解析（duration, bitrate, sample_rate, format）
//	video/*            → MP4コンテナ解析（duration, width, height, format）
//	それ以外           → 空のメタデータ
//
// エラーは返さない。どのプローブが失敗しても空または部分的なメタデータに
// 縮退する。
func (e *Extractor) Extract(mimeType string, data []byte) model.Metadata {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return probeImage(data)
	case mimeType == "application/json":
		return probeLottie(data)
	case strings.HasPrefix(mimeType, "audio/"):
		return probeAudio(data)
	case strings.HasPrefix(mimeType, "video/"):
		return probeVideo(data)
	default:
		return model.Metadata{}
	}
}

// probeImage は画像ヘッダーのみを解析して寸法を取得する。
// image.DecodeConfigはピクセルデータを読まずヘッダーだけを解釈するため、
// サイズの大きい画像でも軽量に動作する。
// ヘッダーが解釈できない場合はエラーではなく空のメタデータを返す。
func probeImage(data []byte) model.Metadata {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Metadata{}
	}

	return model.Metadata{
		"width":  cfg.Width,
		"height": cfg.Height,
	}
}

// probeLottie はJSONファイルをLottieアニメーションとして判定する。
// トップレベルに数値のw（幅）とh（高さ）の両方を持つJSONオブジェクトのみを
// Lottieとして分類する。どちらかが欠けるJSONは空のメタデータに縮退する
// （Lottieではない通常のJSONファイル）。
// fr（フレームレート）とop（終了フレーム）は、存在する場合のみ含める。
func probeLottie(data []byte) model.Metadata {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Metadata{}
	}

	w, wok := jsonInt(doc["w"])
	h, hok := jsonInt(doc["h"])
	if !wok || !hok {
		return model.Metadata{}
	}

	meta := model.Metadata{
		"width":  w,
		"height": h,
		"format": "lottie",
	}

	if fr, ok := jsonInt(doc["fr"]); ok {
		meta["frame_rate"] = fr
	}
	if op, ok := jsonInt(doc["op"]); ok {
		meta["frames"] = op
	}

	return meta
}

// jsonInt はJSON値を整数として解釈する。値が存在しないか数値でない場合はfalse。
func jsonInt(raw json.RawMessage) (int, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return int(f), true
}

// probeAudio はMP3フレームを走査して再生時間・ビットレート・サンプルレートを
// 取得する。コンテナが解釈できない場合でも必ず {format: "audio"} を返し、
// 呼び出し元が最低限のformat分類を記録できるようにする。
// サードパーティのコンテナパーサーは不正入力に対して信頼できないため、
// panicも含めてこの関数内で吸収する。
func probeAudio(data []byte) (meta model.Metadata) {
	meta = model.Metadata{"format": "audio"}

	defer func() {
		if r := recover(); r != nil {
			meta = model.Metadata{"format": "audio"}
		}
	}()

	dec := mp3.NewDecoder(bytes.NewReader(data))

	var (
		frame    mp3.Frame
		skipped  int
		total    float64
		bitrate  int
		sampleHz int
		frames   int
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err != io.EOF && frames == 0 {
				// 1フレームも解釈できない入力はMP3として扱わない
				return model.Metadata{"format": "audio"}
			}
			break
		}

		if frames == 0 {
			bitrate = int(frame.Header().BitRate())
			sampleHz = int(frame.Header().SampleRate())
		}
		total += frame.Duration().Seconds()
		frames++
	}

	if frames == 0 {
		return model.Metadata{"format": "audio"}
	}

	meta["duration"] = round2(total)
	if bitrate > 0 {
		meta["bitrate"] = bitrate
	}
	if sampleHz > 0 {
		meta["sample_rate"] = sampleHz
	}

	return meta
}

// probeVideo はMP4コンテナを解析して再生時間と解像度を取得する。
// コンテナが解釈できない場合でも必ず {format: "video"} を返す。
// probeAudioと同じ理由でpanicもこの関数内で吸収する。
func probeVideo(data []byte) (meta model.Metadata) {
	meta = model.Metadata{"format": "video"}

	defer func() {
		if r := recover(); r != nil {
			meta = model.Metadata{"format": "video"}
		}
	}()

	info, err := mp4.Probe(bytes.NewReader(data))
	if err != nil {
		return model.Metadata{"format": "video"}
	}

	if info.Timescale > 0 && info.Duration > 0 {
		meta["duration"] = round2(float64(info.Duration) / float64(info.Timescale))
	}

	// 最初の映像トラックから解像度を取得する
	for _, track := range info.Tracks {
		if track.AVC != nil && track.AVC.Width > 0 && track.AVC.Height > 0 {
			meta["width"] = int(track.AVC.Width)
			meta["height"] = int(track.AVC.Height)
			break
		}
	}

	return meta
}

// round2 は秒数を小数第2位に丸める。
func round2(seconds float64) float64 {
	return math.Round(seconds*100) / 100
}
