package photosdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ExtraAttributes はZADDITIONALASSETATTRIBUTESに保存されている追加属性。
// 必要になったときにだけ取得する。
type ExtraAttributes struct {
	// OriginalFilename は取り込み時点の元のファイル名（リネーム前）。
	OriginalFilename string
}

const extraQuery = `
	SELECT
		ZADDITIONALASSETATTRIBUTES.ZORIGINALFILENAME
	FROM ZADDITIONALASSETATTRIBUTES
	WHERE
		ZADDITIONALASSETATTRIBUTES.ZASSET = ?
`

// Extra はアセットの追加属性を返す。
//
// 最初の呼び出しで主キーによる検索を1回だけ行い、結果（エラーを含む）を
// アセットの生存期間中保持する。並行して呼び出された場合も検索は1回で、
// すべての呼び出し元が同じ結果を受け取る。ただしコンテキストのキャンセルや
// タイムアウトで失敗した場合は結果を保持せず、次の呼び出しで再試行する。
//
// 対応する行がない場合は ErrNotFound を含む *LookupError を返す。
func (a *Asset) Extra(ctx context.Context) (*ExtraAttributes, error) {
	return a.extra.get(ctx, func(ctx context.Context) (*ExtraAttributes, error) {
		return a.library.lookupExtra(ctx, a.PK)
	})
}

// lookupExtra は追加属性テーブルを主キーで1回検索する。
func (l *Library) lookupExtra(ctx context.Context, pk int64) (ex *ExtraAttributes, err error) {
	rows, err := l.query(ctx, extraQuery, pk)
	if err != nil {
		return nil, &LookupError{Kind: LookupStoreError, PK: pk, Err: err}
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			ex, err = nil, &LookupError{Kind: LookupStoreError, PK: pk, Err: cerr}
		}
	}()

	if !rows.Next() {
		if rerr := rows.Err(); rerr != nil {
			return nil, &LookupError{Kind: LookupStoreError, PK: pk, Err: rerr}
		}
		return nil, &LookupError{Kind: LookupNotFound, PK: pk, Err: ErrNotFound}
	}

	var name sql.NullString
	if err := rows.Scan(&name); err != nil {
		return nil, &LookupError{Kind: LookupStoreError, PK: pk, Err: fmt.Errorf("行の読み取りに失敗: %w", err)}
	}
	if !name.Valid {
		return nil, &LookupError{Kind: LookupNotFound, PK: pk, Err: fmt.Errorf("ZORIGINALFILENAMEがNULLです: %w", ErrNotFound)}
	}
	return &ExtraAttributes{OriginalFilename: name.String}, nil
}

// extraCell は一度だけ初期化される追加属性の保持領域。
// 最初に空を観測した呼び出し元が取得を行い、他の呼び出し元はwaitの
// クローズを待って同じ結果を読む。
type extraCell struct {
	mu   sync.Mutex
	done bool
	val  *ExtraAttributes
	err  error
	wait chan struct{}
}

func (c *extraCell) get(ctx context.Context, fetch func(context.Context) (*ExtraAttributes, error)) (*ExtraAttributes, error) {
	for {
		c.mu.Lock()
		if c.done {
			val, err := c.val, c.err
			c.mu.Unlock()
			return val, err
		}
		if c.wait == nil {
			wait := make(chan struct{})
			c.wait = wait
			c.mu.Unlock()
			return c.fill(ctx, wait, fetch)
		}
		wait := c.wait
		c.mu.Unlock()

		select {
		case <-wait:
			// 完了またはキャンセルされたので状態を読み直す
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// fill はfetchを実行して結果を保持する。キャンセルによる失敗は保持しない。
func (c *extraCell) fill(ctx context.Context, wait chan struct{}, fetch func(context.Context) (*ExtraAttributes, error)) (val *ExtraAttributes, err error) {
	completed := false
	defer func() {
		c.mu.Lock()
		if completed && (err == nil || !canceled(ctx, err)) {
			c.done = true
			c.val, c.err = val, err
		}
		c.wait = nil
		c.mu.Unlock()
		close(wait)
	}()

	val, err = fetch(ctx)
	completed = true
	return val, err
}

// canceled はerrが呼び出し元のキャンセルまたはタイムアウトによるものかを判定する。
func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
