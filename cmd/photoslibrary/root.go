package main

import (
	"context"
	"fmt"
	"io"

	"github.com/nao1215/photoslibrary/pkg/photosdb"
	"github.com/spf13/cobra"
)

// newRootCmd はルートコマンドを生成する。
// 引数にライブラリを1つ指定した場合はcountと同じ動作をする。
func newRootCmd() *cobra.Command {
	var skipErrors bool

	root := &cobra.Command{
		Use:   "photoslibrary [library]",
		Short: "Photosライブラリの可視アセットを読み取り専用で参照する",
		Long: `Photosライブラリ（<library>/database/Photos.sqlite）を読み取り専用で開き、
ゴミ箱に入っておらず非表示でもないアセットを参照する。

例:
  photoslibrary ~/Pictures/Photos\ Library.photoslibrary
  photoslibrary list ~/Pictures/Photos\ Library.photoslibrary --extra
  photoslibrary serve ~/Pictures/Photos\ Library.photoslibrary`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runCount(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], skipErrors)
		},
	}
	root.Flags().BoolVar(&skipErrors, "skip-errors", false, "変換に失敗した行を報告して処理を続ける")

	root.AddCommand(
		newCountCmd(),
		newListCmd(),
		newServeCmd(),
		newTokenCmd(),
		newPullCmd(),
	)
	return root
}

// withLibrary はライブラリを開いてfnを実行し、終了後にクローズする。
func withLibrary(ctx context.Context, root string, fn func(*photosdb.Library) error) (err error) {
	lib, err := photosdb.Open(ctx, root)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("ライブラリのクローズに失敗: %w", cerr)
		}
	}()
	return fn(lib)
}

// reportRowError は行単位のエラーを出力する。
func reportRowError(w io.Writer, err error) {
	fmt.Fprintf(w, "skip: %v\n", err)
}
