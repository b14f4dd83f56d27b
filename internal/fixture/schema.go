package fixture

import (
	"cmp"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
)

//go:embed schema
var schemaFS embed.FS

// schemaFile は順序付きで適用するスキーマファイル。
type schemaFile struct {
	version int
	name    string
	path    string
}

// applySchema はembedされたスキーマファイルをバージョン順に適用し、
// 最後に適用したバージョンをPRAGMA user_versionに記録する。
// ファイル名形式: 000001_description.up.sql
func applySchema(db *sql.DB) error {
	files, err := collectSchemaFiles(schemaFS, "schema")
	if err != nil {
		return fmt.Errorf("スキーマファイルの収集に失敗: %w", err)
	}

	for _, f := range files {
		if err := applySchemaFile(db, schemaFS, f); err != nil {
			return fmt.Errorf("スキーマ %06d_%s の適用に失敗: %w", f.version, f.name, err)
		}
	}
	return nil
}

// collectSchemaFiles はディレクトリからup.sqlファイルを収集してバージョン順にソートする。
func collectSchemaFiles(fsys fs.FS, dir string) ([]schemaFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []schemaFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		version, rest, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(version)
		if err != nil {
			continue
		}

		files = append(files, schemaFile{
			version: v,
			name:    strings.TrimSuffix(rest, ".up.sql"),
			path:    dir + "/" + entry.Name(),
		})
	}

	slices.SortFunc(files, func(a, b schemaFile) int {
		return cmp.Compare(a.version, b.version)
	})
	for i := 1; i < len(files); i++ {
		if files[i].version == files[i-1].version {
			return nil, fmt.Errorf("バージョン %06d が重複しています", files[i].version)
		}
	}
	return files, nil
}

// applySchemaFile は1つのスキーマファイルをトランザクション内で適用する。
func applySchemaFile(db *sql.DB, fsys fs.FS, f schemaFile) error {
	content, err := fs.ReadFile(fsys, f.path)
	if err != nil {
		return fmt.Errorf("ファイル読み込みに失敗: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(string(content)); err != nil {
		return fmt.Errorf("SQL実行に失敗: %w", err)
	}
	// PRAGMAはプレースホルダを受け付けないため数値を埋め込む
	if _, err := tx.Exec("PRAGMA user_version = " + strconv.Itoa(f.version)); err != nil {
		return fmt.Errorf("バージョン記録に失敗: %w", err)
	}
	return tx.Commit()
}
