package photosdb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// データベースファイルのライブラリ相対パス。
const (
	databaseDir  = "database"
	databaseFile = "Photos.sqlite"
)

// busyTimeoutMillis はPhotos.appが書き込み中の場合に待機する時間。
const busyTimeoutMillis = 5000

// querier はLibraryが発行する読み取りクエリの実行先。
// *sql.DBが満たす。テストでは呼び出し回数を数えるために差し替える。
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Library はPhotosライブラリへの読み取り専用ハンドル。
//
// 生成したすべてのAssetから共有され、ストリームを読み切った後でも
// Assetが追加属性を取得できるよう、Assetより長く生存する必要がある。
// 複数のゴルーチンから同時に使用してよい。
type Library struct {
	// root はライブラリのルートディレクトリ（絶対パス）。
	root string
	// dbPath はPhotos.sqliteの絶対パス。
	dbPath string
	// db は読み取り専用のコネクションプール。
	db *sql.DB
	// q はクエリの発行先。通常はdbと同一。
	q querier
	// closed はCloseが呼ばれたかどうか。
	closed atomic.Bool
}

// Open はライブラリのルートディレクトリからLibraryを生成する。
// <root>/database/Photos.sqlite を読み取り専用で開き、疎通を確認する。
// 失敗した場合は *ConnectionError を返す。
func Open(ctx context.Context, root string) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ConnectionError{Path: root, Err: fmt.Errorf("ライブラリパスの解決に失敗: %w", err)}
	}
	dbPath := filepath.Join(abs, databaseDir, databaseFile)

	info, err := os.Stat(dbPath)
	if err != nil {
		return nil, &ConnectionError{Path: dbPath, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &ConnectionError{Path: dbPath, Err: fmt.Errorf("通常ファイルではありません")}
	}

	db, err := sql.Open("sqlite", readOnlyDSN(dbPath))
	if err != nil {
		return nil, &ConnectionError{Path: dbPath, Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &ConnectionError{Path: dbPath, Err: fmt.Errorf("疎通確認に失敗: %w", err)}
	}

	return &Library{
		root:   abs,
		dbPath: dbPath,
		db:     db,
		q:      db,
	}, nil
}

// readOnlyDSN は読み取り専用で開くためのmodernc.org/sqlite用URIを組み立てる。
func readOnlyDSN(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	q := url.Values{}
	q.Set("mode", "ro")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeoutMillis))
	q.Add("_pragma", "query_only(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Root はライブラリのルートディレクトリを返す。
func (l *Library) Root() string { return l.root }

// DatabasePath はPhotos.sqliteの絶対パスを返す。
func (l *Library) DatabasePath() string { return l.dbPath }

// Close はコネクションプールを閉じる。
// 以降のクエリおよび未取得の追加属性の取得はErrClosedで失敗する。
func (l *Library) Close() error {
	if l == nil || !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.db.Close()
}

// query はクローズ済みかを確認してからクエリを発行する。
func (l *Library) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if l == nil || l.closed.Load() {
		return nil, ErrClosed
	}
	return l.q.QueryContext(ctx, query, args...)
}
