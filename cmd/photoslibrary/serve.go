package main

import (
	"github.com/nao1215/photoslibrary/internal/config"
	"github.com/nao1215/photoslibrary/internal/server"
	"github.com/nao1215/photoslibrary/pkg/photosdb"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      string
		pageLimit int
	)

	cmd := &cobra.Command{
		Use:   "serve [library]",
		Short: "閲覧APIを起動する",
		Long: `ライブラリを読み取り専用で公開するHTTP APIを起動する。
設定は環境変数（PORT, PHOTOS_LIBRARY, JWT_SECRET, CORS_ALLOWED_ORIGINS,
PAGE_LIMIT, SHUTDOWN_TIMEOUT）から読み込み、引数とフラグで上書きできる。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServe()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Library = args[0]
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("page-limit") {
				cfg.PageLimit = pageLimit
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			return withLibrary(ctx, cfg.Library, func(lib *photosdb.Library) error {
				return server.NewServer(lib, cfg).Run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "待ち受けるポート番号（PORTを上書き）")
	cmd.Flags().IntVar(&pageLimit, "page-limit", 0, "一覧APIのlimitの既定値（PAGE_LIMITを上書き）")
	return cmd
}
