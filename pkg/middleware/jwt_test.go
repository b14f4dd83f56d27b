package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// signClaims は任意のクレームと署名方式でトークンを生成する。
func signClaims(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
	t.Helper()

	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}
	return s
}

// TestGenerateJWT はGenerateJWT関数を検証する。
func TestGenerateJWT(t *testing.T) {
	t.Parallel()

	t.Run("閲覧者と読み取りスコープを含むトークンを生成できること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, "viewer", time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims, err := ParseJWT(testSecret, tokenStr)
		if err != nil {
			t.Fatalf("ParseJWT()でエラーが発生: %v", err)
		}
		if claims.Subject != "viewer" {
			t.Errorf("Subject = %q, want %q", claims.Subject, "viewer")
		}
		if claims.Scope != ScopeRead {
			t.Errorf("Scope = %q, want %q", claims.Scope, ScopeRead)
		}
		if claims.Issuer != "photoslibrary" {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, "photoslibrary")
		}
	})

	t.Run("ttlが0の場合は有効期限が24時間後であること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := GenerateJWT(testSecret, "viewer", 0)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}
		claims, err := ParseJWT(testSecret, tokenStr)
		if err != nil {
			t.Fatalf("ParseJWT()でエラーが発生: %v", err)
		}

		expectedExpiry := before.Add(24 * time.Hour)
		if claims.ExpiresAt.Time.Before(expectedExpiry.Add(-1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v, 期待する最小値: %v", claims.ExpiresAt.Time, expectedExpiry.Add(-1*time.Minute))
		}
		if claims.ExpiresAt.Time.After(expectedExpiry.Add(1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v, 期待する最大値: %v", claims.ExpiresAt.Time, expectedExpiry.Add(1*time.Minute))
		}
	})

	t.Run("署名アルゴリズムがHS256であること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, "viewer", time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		token, _, err := new(jwt.Parser).ParseUnverified(tokenStr, &ViewerClaims{})
		if err != nil {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}
		if token.Method.Alg() != "HS256" {
			t.Errorf("署名アルゴリズム = %q, want %q", token.Method.Alg(), "HS256")
		}
	})

	t.Run("シークレットが空の場合はエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := GenerateJWT("", "viewer", time.Hour); err == nil {
			t.Error("GenerateJWT()がエラーを返すべきだが、nilが返った")
		}
	})
}

// TestParseJWT はParseJWT関数の拒否条件を検証する。
func TestParseJWT(t *testing.T) {
	t.Parallel()

	valid := func() ViewerClaims {
		return ViewerClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "viewer",
				Issuer:    tokenIssuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Scope: ScopeRead,
		}
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "異なるシークレットで署名されたトークン",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS256, valid(), []byte("wrong-secret"))
			},
		},
		{
			name: "HS256以外で署名されたトークン",
			token: func(t *testing.T) string {
				return signClaims(t, jwt.SigningMethodHS512, valid(), []byte(testSecret))
			},
		},
		{
			name: "期限切れのトークン",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return signClaims(t, jwt.SigningMethodHS256, c, []byte(testSecret))
			},
		},
		{
			name: "有効期限のないトークン",
			token: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = nil
				return signClaims(t, jwt.SigningMethodHS256, c, []byte(testSecret))
			},
		},
		{
			name: "発行者が異なるトークン",
			token: func(t *testing.T) string {
				c := valid()
				c.Issuer = "mediahub-gateway"
				return signClaims(t, jwt.SigningMethodHS256, c, []byte(testSecret))
			},
		},
		{
			name: "読み取りスコープのないトークン",
			token: func(t *testing.T) string {
				c := valid()
				c.Scope = "library:write"
				return signClaims(t, jwt.SigningMethodHS256, c, []byte(testSecret))
			},
		},
		{
			name:  "JWT形式でない文字列",
			token: func(_ *testing.T) string { return "not-a-jwt" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"は拒否されること", func(t *testing.T) {
			t.Parallel()

			if _, err := ParseJWT(testSecret, tt.token(t)); err == nil {
				t.Error("ParseJWT()がエラーを返すべきだが、nilが返った")
			}
		})
	}
}

// setupAuthRouter はJWTAuthを適用したテスト用ルーターを生成する。
func setupAuthRouter() *gin.Engine {
	router := gin.New()
	router.Use(JWTAuth(testSecret))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": GetSubject(c)})
	})
	return router
}

// TestJWTAuth はJWTAuthミドルウェアを検証する。
func TestJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンで閲覧者がコンテキストに設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, "viewer-1", time.Hour)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()
		setupAuthRouter().ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("レスポンスボディのパースに失敗: %v", err)
		}
		if body["subject"] != "viewer-1" {
			t.Errorf("subject = %q, want %q", body["subject"], "viewer-1")
		}
	})

	tests := []struct {
		name      string
		header    string
		wantError string
	}{
		{name: "Authorizationヘッダーがない", header: "", wantError: "Authorizationヘッダーが必要です"},
		{name: "Bearer形式でない", header: "Basic dXNlcjpwYXNz", wantError: "Bearer トークン形式が不正です"},
		{name: "トークンが不正", header: "Bearer invalid.token.value", wantError: "トークンが無効です"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"場合は401が返ること", func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			setupAuthRouter().ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("レスポンスボディのパースに失敗: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", body["error"], tt.wantError)
			}
		})
	}
}

// TestGetSubject はGetSubject関数を検証する。
func TestGetSubject(t *testing.T) {
	t.Parallel()

	t.Run("未設定の場合は空文字列を返すこと", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		if got := GetSubject(c); got != "" {
			t.Errorf("GetSubject() = %q, want 空文字列", got)
		}
	})

	t.Run("文字列以外が設定されている場合は空文字列を返すこと", func(t *testing.T) {
		t.Parallel()

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(contextKeySubject, 42)
		if got := GetSubject(c); got != "" {
			t.Errorf("GetSubject() = %q, want 空文字列", got)
		}
	})
}
