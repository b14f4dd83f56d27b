package photosdb

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// assetColumns は可視アセットクエリのSELECT句。
// 列の順序はmapAssetの位置と一致させること。名前ではなく位置で対応付ける。
const assetColumns = `
	ZASSET.Z_PK,                   -- 0
	ZASSET.ZUUID,                  -- 1

	ZASSET.ZKIND,                  -- 2
	ZASSET.ZUNIFORMTYPEIDENTIFIER, -- 3
	ZASSET.ZKINDSUBTYPE,           -- 4

	ZASSET.ZDIRECTORY,             -- 5
	ZASSET.ZFILENAME,              -- 6

	ZASSET.ZDATECREATED,           -- 7
	ZASSET.ZMODIFICATIONDATE,      -- 8
	ZASSET.ZADDEDDATE,             -- 9

	ZASSET.ZHEIGHT,                -- 10
	ZASSET.ZWIDTH                  -- 11
`

// assetColumnCount はassetColumnsの列数。ストリーム生成時に検証する。
const assetColumnCount = 12

// rowScanner は*sql.Rowsと*sql.Rowが満たす。
type rowScanner interface {
	Scan(dest ...any) error
}

// mapAsset は現在の行をAssetに変換する。
// 失敗した場合は *MappingError を返し、副作用はない。
func mapAsset(lib *Library, row rowScanner) (*Asset, error) {
	var (
		pk                       sql.NullInt64
		uuidStr                  sql.NullString
		kind                     sql.NullInt64
		uti                      sql.NullString
		subtype                  sql.NullInt64
		dir                      sql.NullString
		filename                 sql.NullString
		created, modified, added any
		height, width            sql.NullInt64
	)

	err := row.Scan(
		&pk, &uuidStr,
		&kind, &uti, &subtype,
		&dir, &filename,
		&created, &modified, &added,
		&height, &width,
	)
	if err != nil {
		return nil, &MappingError{PK: pk.Int64, Filename: filename.String, Err: fmt.Errorf("行の読み取りに失敗: %w", err)}
	}

	m := mapping{pk: pk.Int64, filename: filename.String}
	a := &Asset{
		library:               lib,
		PK:                    m.requireInt64("Z_PK", pk),
		UUID:                  m.requireString("ZUUID", uuidStr),
		Kind:                  KindFromCode(m.requireInt32("ZKIND", kind)),
		UniformTypeIdentifier: m.requireString("ZUNIFORMTYPEIDENTIFIER", uti),
		KindSubtype:           m.requireInt64("ZKINDSUBTYPE", subtype),
		Directory:             m.requireString("ZDIRECTORY", dir),
		Filename:              m.requireString("ZFILENAME", filename),
		Height:                m.requireInt32("ZHEIGHT", height),
		Width:                 m.requireInt32("ZWIDTH", width),
	}
	if m.err != nil {
		return nil, m.err
	}

	if a.Created, err = m.timestamp("created", created); err != nil {
		return nil, err
	}
	if a.Modified, err = m.timestamp("modified", modified); err != nil {
		return nil, err
	}
	if a.Added, err = m.timestamp("added", added); err != nil {
		return nil, err
	}
	return a, nil
}

// mapping は1行分の変換で最初に発生したエラーを保持する。
type mapping struct {
	pk       int64
	filename string
	err      error
}

func (m *mapping) fail(err error) {
	if m.err == nil {
		m.err = &MappingError{PK: m.pk, Filename: m.filename, Err: err}
	}
}

func (m *mapping) requireString(column string, v sql.NullString) string {
	if !v.Valid {
		m.fail(fmt.Errorf("%sがNULLです", column))
	}
	return v.String
}

func (m *mapping) requireInt64(column string, v sql.NullInt64) int64 {
	if !v.Valid {
		m.fail(fmt.Errorf("%sがNULLです", column))
	}
	return v.Int64
}

func (m *mapping) requireInt32(column string, v sql.NullInt64) int32 {
	n := m.requireInt64(column, v)
	if n < math.MinInt32 || n > math.MaxInt32 {
		m.fail(fmt.Errorf("%sの値 %d が32ビット整数の範囲外です", column, n))
		return 0
	}
	return int32(n)
}

// timestamp はSQLiteから取得した値を10進数文字列にそろえてから復号する。
// 数値として保存された値だけを受け付ける。
// 失敗した場合はフィールド名とファイル名を含む *MappingError を返す。
func (m *mapping) timestamp(field string, v any) (time.Time, error) {
	raw, err := timestampText(v)
	if err == nil {
		var t time.Time
		if t, err = DecodeTimestamp(raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MappingError{PK: m.pk, Filename: m.filename, Field: field, Err: err}
}

func timestampText(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", errors.New("値がNULLです")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case time.Time:
		// TIMESTAMP列の日時文字列はドライバがtime.Timeに変換するが、
		// ライブラリ形式は経過秒数のみなので不正な値として扱う
		return "", fmt.Errorf("経過秒数ではなく日時文字列です (%s)", x.Format(time.RFC3339Nano))
	default:
		return "", fmt.Errorf("想定外の型 %T です", v)
	}
}
