// Package fixture はテスト用のPhotosライブラリを生成する。
//
// <root>/database/Photos.sqlite を作成し、可視アセットクエリが参照する
// テーブルと行を書き込む。生成後は書き込み用の接続を閉じるため、
// photosdb.Openで読み取り専用として開き直せる。
package fixture

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/photoslibrary/pkg/photosdb"

	_ "modernc.org/sqlite"
)

// BaseTime はPhotoが設定する作成日時。
var BaseTime = time.Date(2023, time.April, 1, 9, 30, 0, 0, time.UTC)

// Asset はZASSETに挿入する1行。
type Asset struct {
	PK                    int64
	UUID                  string
	Kind                  int32
	UniformTypeIdentifier string
	KindSubtype           int64
	Directory             string
	Filename              string
	// Created, Modified, Added は列にそのまま書き込む値。
	// 通常はfloat64や10進数文字列、異常系ではnilや不正な文字列を入れる。
	Created  any
	Modified any
	Added    any
	Height   int64
	Width    int64

	Trashed         bool
	Hidden          bool
	VisibilityState int64

	// OriginalFilename がnilでない場合はZADDITIONALASSETATTRIBUTESに行を追加する。
	OriginalFilename *string
}

// Photo は可視状態の写真アセットを生成する。
// 日時はBaseTimeからpk時間ずつずらした値になる。
func Photo(pk int64, filename string) Asset {
	created := BaseTime.Add(time.Duration(pk) * time.Hour)
	original := "IMG_" + filename
	return Asset{
		PK:                    pk,
		UUID:                  uuid.NewString(),
		Kind:                  0,
		UniformTypeIdentifier: "public.jpeg",
		Directory:             fmt.Sprintf("%X", pk%16),
		Filename:              filename,
		Created:               photosdb.EncodeTimestamp(created),
		Modified:              photosdb.EncodeTimestamp(created.Add(time.Minute)),
		Added:                 photosdb.EncodeTimestamp(created.Add(2 * time.Minute)),
		Height:                3024,
		Width:                 4032,
		OriginalFilename:      &original,
	}
}

// Create はrootの下にPhotos.sqliteを作成してアセットを書き込む。
func Create(root string, assets ...Asset) error {
	dir := filepath.Join(root, "database")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("databaseディレクトリの作成に失敗: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "Photos.sqlite"))
	if err != nil {
		return fmt.Errorf("Photos.sqliteの作成に失敗: %w", err)
	}
	defer db.Close()

	if err := applySchema(db); err != nil {
		return err
	}
	if err := Insert(db, assets...); err != nil {
		return err
	}
	return nil
}

// Insert はZASSETと追加属性テーブルにアセットを挿入する。
func Insert(db *sql.DB, assets ...Asset) error {
	for _, a := range assets {
		_, err := db.Exec(
			`INSERT INTO ZASSET (
				Z_PK, ZUUID, ZKIND, ZUNIFORMTYPEIDENTIFIER, ZKINDSUBTYPE,
				ZDIRECTORY, ZFILENAME,
				ZDATECREATED, ZMODIFICATIONDATE, ZADDEDDATE,
				ZHEIGHT, ZWIDTH,
				ZTRASHEDSTATE, ZHIDDEN, ZVISIBILITYSTATE
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.PK, a.UUID, a.Kind, a.UniformTypeIdentifier, a.KindSubtype,
			a.Directory, a.Filename,
			a.Created, a.Modified, a.Added,
			a.Height, a.Width,
			boolToInt(a.Trashed), boolToInt(a.Hidden), a.VisibilityState,
		)
		if err != nil {
			return fmt.Errorf("ZASSET (pk=%d) の挿入に失敗: %w", a.PK, err)
		}

		if a.OriginalFilename == nil {
			continue
		}
		_, err = db.Exec(
			`INSERT INTO ZADDITIONALASSETATTRIBUTES (ZASSET, ZORIGINALFILENAME) VALUES (?, ?)`,
			a.PK, *a.OriginalFilename,
		)
		if err != nil {
			return fmt.Errorf("ZADDITIONALASSETATTRIBUTES (pk=%d) の挿入に失敗: %w", a.PK, err)
		}
	}
	return nil
}

// NewLibrary はt.TempDir()にライブラリを作成してそのルートを返す。
func NewLibrary(t testing.TB, assets ...Asset) string {
	t.Helper()

	root := t.TempDir()
	if err := Create(root, assets...); err != nil {
		t.Fatalf("テスト用ライブラリの作成に失敗: %v", err)
	}
	return root
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
