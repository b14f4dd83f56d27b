package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/nao1215/photoslibrary/internal/server"
	"github.com/nao1215/photoslibrary/pkg/photosdb"
	"github.com/spf13/cobra"
)

// listOptions はlistコマンドのフラグ。
type listOptions struct {
	afterPK    int64
	limit      int
	extra      bool
	skipErrors bool
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list <library>",
		Short: "可視アセットをJSON Linesで出力する",
		Long: `可視アセットを主キーの昇順で1行1件のJSONとして出力する。
--after-pk に最後に出力したpkを渡すと、その続きから再開できる。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := photosdb.QueryOptions{Limit: opts.limit}
			if cmd.Flags().Changed("after-pk") {
				q.AfterPK = &opts.afterPK
			}
			return runList(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], q, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.afterPK, "after-pk", 0, "このpkより後のアセットから出力する")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "出力する件数の上限（0は無制限）")
	cmd.Flags().BoolVar(&opts.extra, "extra", false, "元のファイル名（追加属性）を含める")
	cmd.Flags().BoolVar(&opts.skipErrors, "skip-errors", false, "変換に失敗した行を報告して処理を続ける")
	return cmd
}

func runList(ctx context.Context, out, errOut io.Writer, root string, q photosdb.QueryOptions, opts listOptions) error {
	return withLibrary(ctx, root, func(lib *photosdb.Library) error {
		stream, err := lib.VisibleAssets(ctx, q)
		if err != nil {
			return err
		}
		defer func() { _ = stream.Close() }()

		enc := json.NewEncoder(out)
		for a, err := range stream.All() {
			if err != nil {
				if !opts.skipErrors || !isRowError(err) {
					return err
				}
				reportRowError(errOut, err)
				continue
			}

			resp := server.NewAssetResponse(a)
			if opts.extra {
				extra, err := a.Extra(ctx)
				switch {
				case err == nil:
					resp.OriginalFilename = &extra.OriginalFilename
				case errors.Is(err, photosdb.ErrNotFound):
				default:
					return err
				}
			}
			if err := enc.Encode(resp); err != nil {
				return err
			}
		}
		return nil
	})
}

// isRowError はその行だけの失敗で、続行できるエラーかを判定する。
func isRowError(err error) bool {
	var mErr *photosdb.MappingError
	return errors.As(err, &mErr)
}
