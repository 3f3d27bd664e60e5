package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel         = "gemini-3-pro-image-preview"
	DefaultBaseURL       = "https://generativelanguage.googleapis.com"
	DefaultHTTPTimeout   = 120 * time.Second
	DefaultRateInterval  = 10 * time.Second
	DefaultReferenceDir  = "config/references" // 参照画像レジストリの保存先なのだ
	DefaultOutputDir     = "output/pages"      // 生成したページ画像の保存先なのだ
	DefaultImageSize     = "2K"                // 参照画像の解像度
	DefaultPageImageSize = "4K"                // ページ画像はより高解像度で生成するのだ
	DefaultAspectRatio   = "3:4"
	DefaultStyle         = "日漫风格"
)

// Config はアプリケーション全体の環境設定（APIキーや保存先）を保持する構造体なのだ。
type Config struct {
	GeminiAPIKey string
	GeminiModel  string
	BaseURL      string

	Options GenerateOptions
}

// LoadConfig は .env と環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	// .env はあれば読む。無くてもエラーにしないのだ
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIKey: envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:  envutil.GetEnv("GEMINI_MODEL", DefaultModel),
		BaseURL:      envutil.GetEnv("GEMINI_BASE_URL", DefaultBaseURL),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 保存先関連
	ReferenceDir string // --reference-dir
	OutputDir    string // --output-dir

	// 生成パラメータ
	ImageSize   string // --image-size
	AspectRatio string // --aspect-ratio
	Style       string // --style

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	RateInterval time.Duration // --rate-interval
}
