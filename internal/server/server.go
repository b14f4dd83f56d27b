package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/photoslibrary/internal/config"
	"github.com/nao1215/photoslibrary/pkg/middleware"
	"github.com/nao1215/photoslibrary/pkg/photosdb"
)

// serviceName はヘルスチェックで返すサービス名。
const serviceName = "photoslibrary"

// Server はライブラリ閲覧APIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// lib は読み取り専用のライブラリハンドル。
	lib *photosdb.Library
	// cfg はサーバーの設定。
	cfg config.Serve
}

// NewServer は新しい閲覧APIサーバーを生成する。
// libの所有権は呼び出し元に残り、Serverはクローズしない。
func NewServer(lib *photosdb.Library, cfg config.Serve) *Server {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	if len(cfg.AllowedOrigins) > 0 {
		router.Use(middleware.CORS(cfg.AllowedOrigins))
	}

	s := &Server{
		router: router,
		lib:    lib,
		cfg:    cfg,
	}
	s.setupRoutes()
	return s
}

// Handler はルーターをhttp.Handlerとして返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるとグレースフルシャットダウンする。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("閲覧APIを起動: addr=%s library=%s auth=%t", srv.Addr, s.lib.Root(), s.cfg.AuthEnabled())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	log.Printf("閲覧APIを停止中...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	if s.cfg.AuthEnabled() {
		api.Use(middleware.JWTAuth(s.cfg.JWTSecret))
	}
	{
		assets := api.Group("/assets")
		{
			// 可視アセット一覧
			assets.GET("", s.handleList())
			// 可視アセット取得
			assets.GET("/:pk", s.handleGet())
			// 追加属性取得
			assets.GET("/:pk/extra", s.handleExtra())
		}
		// 可視アセット件数
		api.GET("/stats", s.handleStats())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}

// handleList は可視アセットを主キーの昇順で1ページ分返すハンドラ。
// 変換に失敗した行はerrorsに記録して除外する。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := photosdb.QueryOptions{Limit: s.cfg.PageLimit}

		if v := c.Query("after_pk"); v != "" {
			pk, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "after_pkは整数で指定してください"})
				return
			}
			opts.AfterPK = &pk
		}
		if v := c.Query("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil || limit < 1 || limit > config.MaxPageLimit {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("limitは1から%dの範囲で指定してください", config.MaxPageLimit)})
				return
			}
			opts.Limit = limit
		}
		withExtra := c.Query("extra") == "true"

		ctx := c.Request.Context()
		stream, err := s.lib.VisibleAssets(ctx, opts)
		if err != nil {
			log.Printf("可視アセットのクエリに失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "アセット一覧の取得に失敗しました"})
			return
		}
		defer func() { _ = stream.Close() }()

		page := AssetPage{
			Assets: make([]AssetResponse, 0, opts.Limit),
			Errors: []RowError{},
		}
		var (
			seen   int
			lastPK int64
		)
		for a, err := range stream.All() {
			seen++
			if err != nil {
				var qErr *photosdb.QueryError
				if errors.As(err, &qErr) {
					log.Printf("可視アセットの読み出しに失敗: %v", err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "アセット一覧の取得に失敗しました"})
					return
				}
				rowErr := NewRowError(err)
				if rowErr.PK > lastPK {
					lastPK = rowErr.PK
				}
				page.Errors = append(page.Errors, rowErr)
				continue
			}

			lastPK = a.PK
			resp := NewAssetResponse(a)
			if withExtra {
				if err := s.attachExtra(ctx, a, &resp); err != nil {
					page.Errors = append(page.Errors, NewRowError(err))
				}
			}
			page.Assets = append(page.Assets, resp)
		}

		page.Count = len(page.Assets)
		if seen == opts.Limit && lastPK > 0 {
			page.NextAfterPK = &lastPK
		}
		c.JSON(http.StatusOK, page)
	}
}

// attachExtra は追加属性を取得してrespに設定する。
// 追加属性がないアセットはエラーとせず、original_filenameを省略する。
func (s *Server) attachExtra(ctx context.Context, a *photosdb.Asset, resp *AssetResponse) error {
	extra, err := a.Extra(ctx)
	if errors.Is(err, photosdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	resp.OriginalFilename = &extra.OriginalFilename
	return nil
}

// handleGet は主キーを指定して可視アセットを1件返すハンドラ。
func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := s.visibleAsset(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, NewAssetResponse(a))
	}
}

// handleExtra は可視アセットの追加属性を返すハンドラ。
func (s *Server) handleExtra() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := s.visibleAsset(c)
		if !ok {
			return
		}

		extra, err := a.Extra(c.Request.Context())
		if errors.Is(err, photosdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "追加属性が見つかりません"})
			return
		}
		if err != nil {
			log.Printf("追加属性の取得に失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "追加属性の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, ExtraResponse{PK: a.PK, OriginalFilename: extra.OriginalFilename})
	}
}

// handleStats は可視アセットの件数を返すハンドラ。
func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := s.lib.CountVisible(c.Request.Context())
		if err != nil {
			log.Printf("可視アセットの件数取得に失敗: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "件数の取得に失敗しました"})
			return
		}
		c.JSON(http.StatusOK, StatsResponse{VisibleCount: n})
	}
}

// visibleAsset はパスパラメータのpkで可視アセットを取得する。
// 失敗した場合はレスポンスを書き込んでfalseを返す。
func (s *Server) visibleAsset(c *gin.Context) (*photosdb.Asset, bool) {
	pk, err := strconv.ParseInt(c.Param("pk"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pkは整数で指定してください"})
		return nil, false
	}

	a, err := s.lib.VisibleAsset(c.Request.Context(), pk)
	if errors.Is(err, photosdb.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "アセットが見つかりません"})
		return nil, false
	}
	if err != nil {
		log.Printf("可視アセットの取得に失敗 (pk=%d): %v", pk, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "アセットの取得に失敗しました"})
		return nil, false
	}
	return a, true
}
