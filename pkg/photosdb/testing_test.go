package photosdb_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/photoslibrary/internal/fixture"
	"github.com/nao1215/photoslibrary/pkg/photosdb"
)

// openTestLibrary はテスト用ライブラリを作成して開く。
func openTestLibrary(t *testing.T, assets ...fixture.Asset) *photosdb.Library {
	t.Helper()

	root := fixture.NewLibrary(t, assets...)
	lib, err := photosdb.Open(context.Background(), root)
	if err != nil {
		t.Fatalf("ライブラリのオープンに失敗: %v", err)
	}
	t.Cleanup(func() {
		_ = lib.Close()
	})
	return lib
}

// countingQuerier は発行されたクエリを記録する。
// gateが設定されている場合、追加属性の検索はreleaseが閉じられるまで待機する。
type countingQuerier struct {
	inner photosdb.Querier

	mu      sync.Mutex
	queries []string

	gate        bool
	startedOnce sync.Once
	started     chan struct{}
	release     chan struct{}
}

func (c *countingQuerier) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	c.mu.Unlock()

	if c.gate && isExtraQuery(query) {
		c.startedOnce.Do(func() { close(c.started) })
		<-c.release
	}
	return c.inner.QueryContext(ctx, query, args...)
}

// extraQueries は追加属性テーブルへの検索回数を返す。
func (c *countingQuerier) extraQueries() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, q := range c.queries {
		if isExtraQuery(q) {
			n++
		}
	}
	return n
}

// total は発行されたクエリの総数を返す。
func (c *countingQuerier) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

func isExtraQuery(query string) bool {
	return strings.Contains(query, "ZADDITIONALASSETATTRIBUTES")
}

// instrument はライブラリのクエリ発行先をcountingQuerierに差し替える。
func instrument(lib *photosdb.Library) *countingQuerier {
	c := &countingQuerier{}
	photosdb.InstrumentQuerier(lib, func(q photosdb.Querier) photosdb.Querier {
		c.inner = q
		return c
	})
	return c
}

// instrumentWithGate は追加属性の検索を外部から解放するまで止めるcountingQuerierを設定する。
func instrumentWithGate(lib *photosdb.Library) *countingQuerier {
	c := instrument(lib)
	c.gate = true
	c.started = make(chan struct{})
	c.release = make(chan struct{})
	return c
}

// querierFunc は関数をQuerierとして扱う。
type querierFunc func(ctx context.Context, query string, args ...any) (*sql.Rows, error)

func (f querierFunc) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return f(ctx, query, args...)
}

// collect はストリームを最後まで読み、成功した要素と失敗した要素を分けて返す。
func collect(t *testing.T, s *photosdb.AssetStream) ([]*photosdb.Asset, []error) {
	t.Helper()

	var (
		assets []*photosdb.Asset
		errs   []error
	)
	for a, err := range s.All() {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		assets = append(assets, a)
	}
	return assets, errs
}

// streamVisible はVisibleAssetsを呼び出してcollectの結果を返す。
func streamVisible(t *testing.T, lib *photosdb.Library, opts photosdb.QueryOptions) ([]*photosdb.Asset, []error) {
	t.Helper()

	s, err := lib.VisibleAssets(context.Background(), opts)
	if err != nil {
		t.Fatalf("VisibleAssetsでエラーが発生: %v", err)
	}
	return collect(t, s)
}

// pks はアセットの主キーを順に取り出す。
func pks(assets []*photosdb.Asset) []int64 {
	out := make([]int64, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.PK)
	}
	return out
}

// hidden は非表示のアセットを生成する。
func hidden(pk int64, filename string) fixture.Asset {
	a := fixture.Photo(pk, filename)
	a.Hidden = true
	return a
}
