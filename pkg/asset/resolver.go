// Package asset は参照画像の入力元（data URL・ローカルファイル・HTTP URL）を
// 生成APIへ渡せる base64 ペイロードへ解決します。
package asset

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/shouni/go-comic-kit/pkg/gemini"
)

const (
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
)

// Resolver は参照元の読み込み結果をTTL付きでキャッシュする解決器です。
// 同じシード画像を複数エンティティの生成に使い回す場合の再読込を避けます。
type Resolver struct {
	httpClient *http.Client
	cache      *cache.Cache
}

// NewResolver は新しい Resolver を生成します。
func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(defaultCacheExpiration, cacheCleanupInterval),
	}
}

// Resolve は参照指定を生の base64 ペイロードへ解決します。
//   - "data:..." はプレフィックスを剥がしてそのまま返す（キャッシュ不要）
//   - "http://" / "https://" は取得してエンコード
//   - それ以外はローカルファイルパスとして読み込んでエンコード
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("参照指定が空です")
	}
	if strings.HasPrefix(ref, "data:") {
		return gemini.RawPayload(ref), nil
	}

	if payload, ok := r.cache.Get(ref); ok {
		slog.DebugContext(ctx, "参照画像をキャッシュから解決しました", "ref", ref)
		return payload.(string), nil
	}

	var raw []byte
	var err error
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		raw, err = r.fetch(ctx, ref)
	} else {
		raw, err = os.ReadFile(ref)
	}
	if err != nil {
		return "", fmt.Errorf("参照画像の読み込みに失敗しました (%s): %w", ref, err)
	}

	payload := base64.StdEncoding.EncodeToString(raw)
	r.cache.Set(ref, payload, cache.DefaultExpiration)
	return payload, nil
}

func (r *Resolver) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("参照画像の取得に失敗しました (status=%d)", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
