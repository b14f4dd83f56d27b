package photosdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
)

// visiblePredicate は可視アセットの条件。
// ゴミ箱に入っておらず、非表示でもなく、標準の可視状態のもの。
const visiblePredicate = `
	ZASSET.ZTRASHEDSTATE = 0 AND
	ZASSET.ZHIDDEN = 0 AND
	ZASSET.ZVISIBILITYSTATE = 0
`

// QueryOptions は可視アセットクエリの設定。
type QueryOptions struct {
	// AfterPK が設定されている場合、主キーがこの値より大きい行のみを返す。
	// 最後に受け取ったPKを渡すことで中断した位置から再開できる。
	AfterPK *int64
	// Limit は返す行数の上限。0以下は無制限。
	Limit int
}

// After はAfterPKを設定したQueryOptionsを返す。
func After(pk int64) QueryOptions {
	return QueryOptions{AfterPK: &pk}
}

// buildVisibleQuery はSQLとバインド引数を組み立てる。
func buildVisibleQuery(opts QueryOptions) (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT")
	b.WriteString(assetColumns)
	b.WriteString("FROM ZASSET\nWHERE")
	b.WriteString(visiblePredicate)
	if opts.AfterPK != nil {
		b.WriteString("\tAND ZASSET.Z_PK > ?\n")
		args = append(args, *opts.AfterPK)
	}
	b.WriteString("ORDER BY ZASSET.Z_PK")
	if opts.Limit > 0 {
		b.WriteString("\nLIMIT ?")
		args = append(args, opts.Limit)
	}
	return b.String(), args
}

// VisibleAssets は可視アセットを主キーの昇順で返すストリームを生成する。
//
// SQLはこの呼び出しの中で実行され、開始に失敗した場合は *QueryError を返す。
// 行はストリームから取り出すたびに読み込まれるため、メモリ使用量は
// ライブラリの大きさに依存しない。ストリームは一度しか走査できず、
// 再開するにはAfterPKを指定して改めて呼び出す。
func (l *Library) VisibleAssets(ctx context.Context, opts QueryOptions) (*AssetStream, error) {
	query, args := buildVisibleQuery(opts)

	rows, err := l.query(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Op: "可視アセットのクエリ実行", Err: err}
	}

	cols, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, &QueryError{Op: "列情報の取得", Err: err}
	}
	if len(cols) != assetColumnCount {
		_ = rows.Close()
		return nil, &QueryError{
			Op:  "列数の検証",
			Err: fmt.Errorf("列数が %d です（期待値 %d）", len(cols), assetColumnCount),
		}
	}

	return &AssetStream{library: l, rows: rows}, nil
}

// AssetStream は可視アセットの遅延シーケンス。
// 途中で走査をやめた場合やCloseを呼んだ場合はカーソルが解放される。
type AssetStream struct {
	library *Library
	rows    *sql.Rows
	started atomic.Bool
	closed  atomic.Bool
}

// All はアセットを1件ずつ返すイテレータを返す。
//
// 変換に失敗した行は (nil, *MappingError) として返され、走査は継続する。
// 行の読み出し自体が失敗した場合は最後に (nil, *QueryError) を返して終了する。
// 2回目以降の呼び出しでは ErrClosed を含む *QueryError を1件だけ返す。
func (s *AssetStream) All() iter.Seq2[*Asset, error] {
	return func(yield func(*Asset, error) bool) {
		if !s.started.CompareAndSwap(false, true) || s.closed.Load() {
			yield(nil, &QueryError{Op: "ストリームの走査", Err: ErrClosed})
			return
		}
		defer func() { _ = s.Close() }()

		for s.rows.Next() {
			a, err := mapAsset(s.library, s.rows)
			if !yield(a, err) {
				return
			}
		}
		if err := s.rows.Err(); err != nil {
			yield(nil, &QueryError{Op: "行の読み出し", Err: err})
		}
	}
}

// Close はカーソルを解放する。複数回呼んでもよい。
func (s *AssetStream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.rows.Close()
}

// VisibleAsset は主キーを指定して可視アセットを1件取得する。
// 該当する可視アセットがない場合は ErrNotFound を含む *LookupError を返す。
func (l *Library) VisibleAsset(ctx context.Context, pk int64) (a *Asset, err error) {
	query := "SELECT" + assetColumns + "FROM ZASSET\nWHERE" + visiblePredicate + "\tAND ZASSET.Z_PK = ?\nLIMIT 1"

	rows, err := l.query(ctx, query, pk)
	if err != nil {
		return nil, &LookupError{Kind: LookupStoreError, PK: pk, Err: err}
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = &LookupError{Kind: LookupStoreError, PK: pk, Err: cerr}
		}
	}()

	if !rows.Next() {
		if rerr := rows.Err(); rerr != nil {
			return nil, &LookupError{Kind: LookupStoreError, PK: pk, Err: rerr}
		}
		return nil, &LookupError{Kind: LookupNotFound, PK: pk, Err: ErrNotFound}
	}
	return mapAsset(l, rows)
}

// CountVisible は可視アセットの件数を返す。
func (l *Library) CountVisible(ctx context.Context) (n int64, err error) {
	rows, err := l.query(ctx, "SELECT COUNT(*) FROM ZASSET\nWHERE"+visiblePredicate)
	if err != nil {
		return 0, &QueryError{Op: "可視アセットの件数取得", Err: err}
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		err := rows.Err()
		if err == nil {
			err = errors.New("結果が空です")
		}
		return 0, &QueryError{Op: "可視アセットの件数取得", Err: err}
	}
	if err := rows.Scan(&n); err != nil {
		return 0, &QueryError{Op: "可視アセットの件数取得", Err: err}
	}
	return n, nil
}
