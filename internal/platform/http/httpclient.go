package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は相場APIへのポーリング用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout / KeepAlive: 短い接続タイムアウトと長めのキープアライブ
//   - MaxIdleConns / MaxIdleConnsPerHost: 接続先はtickとklineの2ホストのみのため小さめ
//   - IdleConnTimeout: ポーリング間隔(30s)より長く保持し、毎回の再接続を避ける
//   - ResponseHeaderTimeout: ヘッダー待ちもリクエスト全体と同じ上限で打ち切る
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// 注意: http.DefaultClientにはタイムアウトがないため、常にこのクライアントを使用すること
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
