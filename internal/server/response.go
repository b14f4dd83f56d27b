package server

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/photoslibrary/pkg/photosdb"
)

// AssetResponse はアセットのJSON表現。
type AssetResponse struct {
	// PK はZASSETの主キー。
	PK int64 `json:"pk"`
	// UUID はライブラリに保存されている値そのまま。
	UUID string `json:"uuid"`
	// UUIDValid はUUIDがUUID形式として解釈できるかどうか。
	UUIDValid bool `json:"uuid_valid"`
	// Kind は photo, video, unknown(N) のいずれか。
	Kind string `json:"kind"`
	// KindCode はZKINDの生の値。
	KindCode              int32  `json:"kind_code"`
	UniformTypeIdentifier string `json:"uniform_type_identifier"`
	KindSubtype           int64  `json:"kind_subtype"`
	Directory             string `json:"directory"`
	Filename              string `json:"filename"`
	// Created, Modified, Added はUTCの日時。
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
	Added    time.Time `json:"added"`
	Height   int32     `json:"height"`
	Width    int32     `json:"width"`
	// OriginalFilename は追加属性を要求した場合のみ設定される。
	OriginalFilename *string `json:"original_filename,omitempty"`
}

// NewAssetResponse はAssetをJSON表現に変換する。
func NewAssetResponse(a *photosdb.Asset) AssetResponse {
	_, err := uuid.Parse(a.UUID)
	return AssetResponse{
		PK:                    a.PK,
		UUID:                  a.UUID,
		UUIDValid:             err == nil,
		Kind:                  a.Kind.String(),
		KindCode:              a.Kind.Code(),
		UniformTypeIdentifier: a.UniformTypeIdentifier,
		KindSubtype:           a.KindSubtype,
		Directory:             a.Directory,
		Filename:              a.Filename,
		Created:               a.Created,
		Modified:              a.Modified,
		Added:                 a.Added,
		Height:                a.Height,
		Width:                 a.Width,
	}
}

// RowError は一覧から除外された行の失敗内容。
type RowError struct {
	// PK は失敗した行の主キー。不明な場合は0。
	PK int64 `json:"pk"`
	// Filename は失敗した行のファイル名。
	Filename string `json:"filename,omitempty"`
	// Field は失敗したフィールド名。
	Field string `json:"field,omitempty"`
	// Kind は失敗の分類（mapping, not_found, store_error）。
	Kind string `json:"kind"`
	// Error はエラーメッセージ。
	Error string `json:"error"`
}

// NewRowError は行単位のエラーをJSON表現に変換する。
func NewRowError(err error) RowError {
	var (
		mErr *photosdb.MappingError
		lErr *photosdb.LookupError
	)
	switch {
	case errors.As(err, &mErr):
		return RowError{PK: mErr.PK, Filename: mErr.Filename, Field: mErr.Field, Kind: "mapping", Error: err.Error()}
	case errors.As(err, &lErr):
		return RowError{PK: lErr.PK, Kind: lErr.Kind.String(), Error: err.Error()}
	default:
		return RowError{Kind: "unknown", Error: err.Error()}
	}
}

// AssetPage は一覧APIのレスポンス。
type AssetPage struct {
	Assets []AssetResponse `json:"assets"`
	// Count はAssetsの件数。
	Count int `json:"count"`
	// NextAfterPK は次のページを取得するためのafter_pk。最後のページではnull。
	NextAfterPK *int64 `json:"next_after_pk"`
	// Errors は変換に失敗して除外された行。
	Errors []RowError `json:"errors"`
}

// ExtraResponse は追加属性APIのレスポンス。
type ExtraResponse struct {
	PK               int64  `json:"pk"`
	OriginalFilename string `json:"original_filename"`
}

// StatsResponse は件数APIのレスポンス。
type StatsResponse struct {
	VisibleCount int64 `json:"visible_count"`
}
