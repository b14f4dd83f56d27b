// Photosライブラリ閲覧ツールのエントリポイント。
// 可視アセットの件数表示・一覧出力、閲覧APIの起動、
// 閲覧用トークンの発行、リモートAPIからの取得を行う。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Printf("photoslibrary: %v", err)
		stop()
		os.Exit(1)
	}
}
