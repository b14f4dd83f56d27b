// Package server はPhotosライブラリを読み取り専用で公開するHTTP APIを提供する。
//
// 可視アセットの一覧（after_pkによるページング）、主キーによる取得、
// 追加属性の取得を提供する。ライブラリへの書き込みは行わない。
package server
