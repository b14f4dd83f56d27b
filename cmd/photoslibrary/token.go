package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nao1215/photoslibrary/pkg/middleware"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "閲覧API用のトークンを発行する",
		Long: `serveコマンドと同じJWT_SECRETで署名した閲覧用トークンを出力する。
--secret を省略した場合は環境変数JWT_SECRETを使用する。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("JWT_SECRET")
			}
			if secret == "" {
				return errors.New("--secretまたはJWT_SECRETを指定してください")
			}
			token, err := middleware.GenerateJWT(secret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "署名に使うシークレット")
	cmd.Flags().StringVar(&subject, "subject", "viewer", "トークンの利用者名")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "有効期間")
	return cmd
}
