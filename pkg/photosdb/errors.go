package photosdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound は参照先の行が存在しないことを表す。
	ErrNotFound = errors.New("photosdb: 該当する行が存在しません")
	// ErrInvalidTimestamp はライブラリ形式のタイムスタンプを解釈できないことを表す。
	ErrInvalidTimestamp = errors.New("photosdb: 不正なタイムスタンプ")
	// ErrClosed はクローズ済みのLibraryまたはストリームを使用したことを表す。
	ErrClosed = errors.New("photosdb: クローズ済みです")
)

// ConnectionError はPhotos.sqliteを開けなかったことを表す。
// Libraryの生成に対して致命的であり、内部でのリトライは行わない。
type ConnectionError struct {
	// Path はオープンしようとしたデータベースファイルのパス。
	Path string
	// Err は原因となったエラー。
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("ライブラリデータベースへの接続に失敗 (path=%s): %v", e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError はストリームを定義するSQLの実行開始、または行の読み出しに失敗したことを表す。
type QueryError struct {
	// Op は失敗した処理の名前。
	Op string
	// Err は原因となったエラー。
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%sに失敗: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// MappingError は1行をAssetに変換できなかったことを表す。
// ストリーム全体ではなく、その要素1件だけの失敗として扱われる。
type MappingError struct {
	// PK は変換に失敗した行の主キー。読み出し前に失敗した場合は0。
	PK int64
	// Filename は処理中だったファイル名。診断用。
	Filename string
	// Field は失敗したフィールド名（created, modified, added 等）。
	Field string
	// Err は原因となったエラー。
	Err error
}

func (e *MappingError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("行の変換に失敗 (pk=%d file=%s): %v", e.PK, e.Filename, e.Err)
	}
	return fmt.Sprintf("%sの日時が不正 (pk=%d file=%s): %v", e.Field, e.PK, e.Filename, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// LookupKind は追加属性の取得失敗の分類。
type LookupKind int

const (
	// LookupStoreError は接続またはSQL実行の失敗。
	LookupStoreError LookupKind = iota
	// LookupNotFound は対応する行が存在しないデータ不整合。
	LookupNotFound
)

// String はLookupKindの名前を返す。
func (k LookupKind) String() string {
	switch k {
	case LookupNotFound:
		return "not_found"
	default:
		return "store_error"
	}
}

// LookupError は追加属性の遅延取得が失敗したことを表す。
// 影響範囲はそのAssetの追加属性アクセスのみ。
type LookupError struct {
	// Kind は失敗の分類。
	Kind LookupKind
	// PK は対象のAssetの主キー。
	PK int64
	// Err は原因となったエラー。NotFoundの場合はErrNotFoundを含む。
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("追加属性の取得に失敗 (pk=%d kind=%s): %v", e.PK, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }
