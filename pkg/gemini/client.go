package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL は Gemini API の既定のベースアドレスです。
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel は既定の画像生成モデルです。
	DefaultModel = "gemini-3-pro-image-preview"
	// DefaultTimeout は1回の生成リクエストに許容する既定のウォールクロック時間です。
	DefaultTimeout = 120 * time.Second
)

// markdownImageRegex はテキストパートに埋め込まれた Markdown 形式の画像参照に一致します。
// 例: ![image](data:image/png;base64,....)
var markdownImageRegex = regexp.MustCompile(`!\[.*?\]\((data:image/[^)]+)\)`)

// Config は Client を初期化するための設定です。
type Config struct {
	APIKey       string
	BaseURL      string        // 省略時は DefaultBaseURL
	Model        string        // 省略時は DefaultModel
	Timeout      time.Duration // 省略時は DefaultTimeout
	RateInterval time.Duration // 生成呼び出しの最小間隔。0 なら制限なし
}

// Client は Gemini の画像生成エンドポイントへのプロトコルアダプタです。
// プロンプトと参照画像を1リクエストに変換し、レスポンスから画像データを抽出します。
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	limiter    *rate.Limiter
}

// NewClient は新しい Client を生成します。APIキーは必須です。
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("APIキーが設定されていません")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, model),
		apiKey:     cfg.APIKey,
		model:      model,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Model は生成に使用するモデル識別子を返します。
func (c *Client) Model() string { return c.model }

// --- リクエスト形式 ---

type generateRequest struct {
	Contents         []requestContent `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type requestContent struct {
	Role  string        `json:"role"`
	Parts []requestPart `json:"parts"`
}

type requestPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string    `json:"responseModalities"`
	ImageConfig        imageConfig `json:"imageConfig"`
}

type imageConfig struct {
	ImageSize   string `json:"imageSize"`
	AspectRatio string `json:"aspectRatio"`
}

// --- レスポンス形式 ---

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *apiError   `json:"error,omitempty"`
}

type candidate struct {
	Content struct {
		Parts []responsePart `json:"parts"`
	} `json:"content"`
}

type responsePart struct {
	Text       string              `json:"text,omitempty"`
	InlineData *responseInlineData `json:"inlineData,omitempty"`
}

type responseInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateWithReferences はプロンプトと参照画像群から1枚の画像を生成します。
// 参照画像は data URL プレフィックス付きでも受け付け、送信前にプレフィックスを
// 取り除きます。成功時は正規化された "data:<mime>;base64,<payload>" を返します。
func (c *Client) GenerateWithReferences(ctx context.Context, prompt string, imageRefs []string, imageSize, aspectRatio string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("リミッター待機中にエラーが発生しました: %w", err)
	}

	// parts はテキストが先頭、参照画像がその後に続く順序で構築する
	parts := []requestPart{{Text: prompt}}
	for _, ref := range imageRefs {
		parts = append(parts, requestPart{
			InlineData: &inlineData{
				MimeType: "image/jpeg",
				Data:     RawPayload(ref),
			},
		})
	}

	payload := generateRequest{
		Contents: []requestContent{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
			ImageConfig: imageConfig{
				ImageSize:   imageSize,
				AspectRatio: aspectRatio,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "Gemini APIへリクエストを送信します",
		"endpoint", c.endpoint,
		"reference_count", len(imageRefs),
		"image_size", imageSize,
		"aspect_ratio", aspectRatio)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &TransportError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(respBody))}
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", &MalformedResponseError{Err: err}
	}
	if result.Error != nil && result.Error.Message != "" {
		return "", &MalformedResponseError{Message: result.Error.Message}
	}

	return c.extractImage(ctx, &result, respBody)
}

// extractImage はレスポンスから画像データを取り出します。2つの戦略を順に試し、
// 最初に成功したものを採用します。どちらも失敗した場合は診断のために
// レスポンス全体をログへ残した上で ErrEmptyResult を返します。
func (c *Client) extractImage(ctx context.Context, result *generateResponse, respBody []byte) (string, error) {
	if len(result.Candidates) == 0 {
		slog.ErrorContext(ctx, "APIレスポンスに candidates が含まれていません", "response", string(respBody))
		return "", ErrEmptyResult
	}

	parts := result.Candidates[0].Content.Parts

	// 戦略1: inlineData パートに直接含まれる画像データ
	for _, part := range parts {
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MimeType, "image/") {
			return fmt.Sprintf("data:%s;base64,%s", part.InlineData.MimeType, part.InlineData.Data), nil
		}
	}

	// 戦略2: テキストパートに Markdown として埋め込まれた data URL。
	// 構造化された画像パートを返さず、出力を文章として語るモデルへの対応
	for _, part := range parts {
		if part.Text == "" {
			continue
		}
		if m := markdownImageRegex.FindStringSubmatch(part.Text); m != nil {
			mimeType, payload := SplitDataURL(m[1])
			if payload != "" {
				return fmt.Sprintf("data:%s;base64,%s", mimeType, payload), nil
			}
		}
	}

	slog.ErrorContext(ctx, "APIレスポンスに画像データが見つかりませんでした", "response", string(respBody))
	return "", ErrEmptyResult
}
