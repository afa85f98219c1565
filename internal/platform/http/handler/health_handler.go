// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ReadinessProbe は相場データの提供準備ができているかを報告します。
type ReadinessProbe interface {
	Ready() bool
}

// HealthHandler は /healthz と /readyz を処理します。
type HealthHandler struct {
	probe ReadinessProbe
}

// NewHealthHandler はHealthHandlerを生成します。probe が nil の場合は常に準備完了とみなします。
func NewHealthHandler(probe ReadinessProbe) *HealthHandler {
	return &HealthHandler{probe: probe}
}

func (h *HealthHandler) ready() bool {
	return h.probe == nil || h.probe.Ready()
}

// Health はプロセスの生存確認を処理します。相場データの有無に関わらず 200 を返し、
// 準備状況は "ready" フィールドで知らせます。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ready": h.ready()})
	}
}

// Ready はポーリングが動作し、少なくとも1銘柄の価格を取得済みの場合に 200、それ以外は 503 を返します。
func (h *HealthHandler) Ready(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if !h.ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
