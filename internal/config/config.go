// Package config はserveコマンドの設定を環境変数から読み込む。
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MaxPageLimit はPAGE_LIMITに指定できる上限。
const MaxPageLimit = 1000

// Serve は閲覧APIサーバーの設定。
type Serve struct {
	// Port は待ち受けるポート番号。
	Port string `env:"PORT" envDefault:"8080"`
	// Library はPhotosライブラリのルートディレクトリ。
	Library string `env:"PHOTOS_LIBRARY"`
	// JWTSecret はトークン検証用のシークレット。空の場合は認証を行わない。
	JWTSecret string `env:"JWT_SECRET"`
	// AllowedOrigins はCORSで許可するオリジン。
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	// PageLimit は一覧APIのlimitの既定値。
	PageLimit int `env:"PAGE_LIMIT" envDefault:"100"`
	// ShutdownTimeout はグレースフルシャットダウンの待機時間。
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadServe は環境変数からServeを読み込む。検証はValidateで行う。
func LoadServe() (Serve, error) {
	return parse(env.Options{})
}

// parse はoptsを指定して環境変数を読み込む。テストではEnvironmentを差し替える。
func parse(opts env.Options) (Serve, error) {
	var cfg Serve
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Serve{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AllowedOrigins = compact(cfg.AllowedOrigins)
	return cfg, nil
}

// Validate は設定値を検証する。
func (c Serve) Validate() error {
	var errs []error
	if c.Library == "" {
		errs = append(errs, errors.New("PHOTOS_LIBRARYまたは引数でライブラリを指定してください"))
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		errs = append(errs, fmt.Errorf("PORTの値 %q が不正です", c.Port))
	}
	if c.PageLimit < 1 || c.PageLimit > MaxPageLimit {
		errs = append(errs, fmt.Errorf("PAGE_LIMITは1から%dの範囲で指定してください: %d", MaxPageLimit, c.PageLimit))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUTは正の値で指定してください: %s", c.ShutdownTimeout))
	}
	return errors.Join(errs...)
}

// Addr はListen用のアドレスを返す。
func (c Serve) Addr() string {
	return ":" + c.Port
}

// AuthEnabled はJWT認証が有効かどうかを返す。
func (c Serve) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
