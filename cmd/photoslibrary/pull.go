package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/nao1215/photoslibrary/internal/server"
	"github.com/nao1215/photoslibrary/pkg/httpclient"
	"github.com/spf13/cobra"
)

// pullOptions はpullコマンドのフラグ。
type pullOptions struct {
	token   string
	afterPK int64
	resume  bool
	limit   int
	extra   bool
}

func newPullCmd() *cobra.Command {
	var opts pullOptions

	cmd := &cobra.Command{
		Use:   "pull <base-url>",
		Short: "リモートの閲覧APIから可視アセットを取得する",
		Long: `serveコマンドで起動した閲覧APIからnext_after_pkをたどって全ページを取得し、
1行1件のJSONとして出力する。変換に失敗した行は標準エラーに報告する。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.resume = cmd.Flags().Changed("after-pk")
			return runPull(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.token, "token", "", "閲覧用トークン（tokenコマンドで発行）")
	cmd.Flags().Int64Var(&opts.afterPK, "after-pk", 0, "このpkより後のアセットから取得する")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "1ページあたりの件数（0はサーバーの既定値）")
	cmd.Flags().BoolVar(&opts.extra, "extra", false, "元のファイル名（追加属性）を含める")
	return cmd
}

func runPull(ctx context.Context, out, errOut io.Writer, baseURL string, opts pullOptions) error {
	client := httpclient.New(baseURL)
	if opts.token != "" {
		ctx = httpclient.WithToken(ctx, opts.token)
	}

	query := url.Values{}
	if opts.limit > 0 {
		query.Set("limit", strconv.Itoa(opts.limit))
	}
	if opts.extra {
		query.Set("extra", "true")
	}
	if opts.resume {
		query.Set("after_pk", strconv.FormatInt(opts.afterPK, 10))
	}

	enc := json.NewEncoder(out)
	for {
		var page server.AssetPage
		if err := client.GetJSON(ctx, "/api/v1/assets", query, &page); err != nil {
			return fmt.Errorf("アセット一覧の取得に失敗: %w", err)
		}
		for _, a := range page.Assets {
			if err := enc.Encode(a); err != nil {
				return err
			}
		}
		for _, e := range page.Errors {
			fmt.Fprintf(errOut, "skip: pk=%d %s\n", e.PK, e.Error)
		}

		if page.NextAfterPK == nil {
			return nil
		}
		query.Set("after_pk", strconv.FormatInt(*page.NextAfterPK, 10))
	}
}
