package photosdb

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// AssetKind はアセットの種類を表す。
// 0と1以外のコードは未知の種類として生の値を保持する。
type AssetKind struct {
	code int32
}

var (
	// KindPhoto は写真を表す。
	KindPhoto = AssetKind{code: 0}
	// KindVideo は動画を表す。
	KindVideo = AssetKind{code: 1}
)

// KindFromCode はZKINDの値からAssetKindを生成する。
func KindFromCode(code int32) AssetKind {
	return AssetKind{code: code}
}

// Code はZKINDの生の値を返す。
func (k AssetKind) Code() int32 { return k.code }

// IsUnknown はPhotoでもVideoでもない場合にtrueを返す。
func (k AssetKind) IsUnknown() bool {
	return k != KindPhoto && k != KindVideo
}

// String は種類の名前を返す。未知の場合は "unknown(<code>)"。
func (k AssetKind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	default:
		return "unknown(" + strconv.FormatInt(int64(k.code), 10) + ")"
	}
}

// Asset は可視アセットの1行を表す。構築後は不変。
// 追加属性を後から取得するために、生成元のLibraryへの参照を保持する。
type Asset struct {
	library *Library
	extra   extraCell

	// PK はZ_PK。ライブラリ内で一意な主キー。
	PK int64
	// UUID はZUUID。ライブラリ操作をまたいで安定した外部識別子。
	UUID string
	// Kind はZKIND。
	Kind AssetKind
	// UniformTypeIdentifier はZUNIFORMTYPEIDENTIFIER（例: public.jpeg）。
	UniformTypeIdentifier string
	// KindSubtype はZKINDSUBTYPE。
	KindSubtype int64

	// Directory はライブラリ相対の保存ディレクトリ。
	Directory string
	// Filename は保存ファイル名。
	Filename string

	// Created は作成日時（UTC）。
	Created time.Time
	// Modified は更新日時（UTC）。
	Modified time.Time
	// Added はライブラリへの追加日時（UTC）。
	Added time.Time

	// Height は高さ（ピクセル）。
	Height int32
	// Width は幅（ピクセル）。
	Width int32
}

// ParsedUUID はUUIDを解析して返す。
// ライブラリ側の値は不透明な文字列として扱うため、解析できない場合はエラーを返す。
func (a *Asset) ParsedUUID() (uuid.UUID, error) {
	return uuid.Parse(a.UUID)
}

// Library はこのAssetを生成したLibraryを返す。
func (a *Asset) Library() *Library { return a.library }
