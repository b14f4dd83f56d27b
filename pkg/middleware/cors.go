package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS はブラウザ上の閲覧画面から閲覧APIを呼べるようにするGinミドルウェアを返す。
// APIは読み取り専用のため、許可するのはGETとプリフライトのOPTIONS、
// 送信を許可するヘッダーは閲覧用トークンのAuthorizationのみ。
// allowedOriginsに "*" を含む場合はすべてのオリジンを許可し、Originを反射する。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originsSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = struct{}{}
	}
	_, allowAll := originsSet["*"]

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := originsSet[origin]; origin != "" && (ok || allowAll) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization")
			c.Header("Access-Control-Max-Age", "86400")
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
