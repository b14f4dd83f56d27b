package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nao1215/photoslibrary/pkg/photosdb"
	"github.com/spf13/cobra"
)

func newCountCmd() *cobra.Command {
	var skipErrors bool

	cmd := &cobra.Command{
		Use:   "count <library>",
		Short: "可視アセットの件数を表示する",
		Long: `可視アセットのストリームを最後まで読み、件数を "count: N" の形式で表示する。
変換に失敗した行があった場合はその時点でエラー終了する。--skip-errors を指定すると
失敗した行を標準エラーに報告して数えずに続行する。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], skipErrors)
		},
	}
	cmd.Flags().BoolVar(&skipErrors, "skip-errors", false, "変換に失敗した行を報告して処理を続ける")
	return cmd
}

func runCount(ctx context.Context, out, errOut io.Writer, root string, skipErrors bool) error {
	return withLibrary(ctx, root, func(lib *photosdb.Library) error {
		stream, err := lib.VisibleAssets(ctx, photosdb.QueryOptions{})
		if err != nil {
			return err
		}
		defer func() { _ = stream.Close() }()

		n := 0
		for _, err := range stream.All() {
			if err != nil {
				if !skipErrors || !isRowError(err) {
					return err
				}
				reportRowError(errOut, err)
				continue
			}
			n++
		}
		fmt.Fprintf(out, "count: %d\n", n)
		return nil
	})
}
