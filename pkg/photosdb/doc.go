// Package photosdb はPhotosライブラリのデータベース（Photos.sqlite）を
// 読み取り専用で扱うためのアクセス層を提供する。
//
// ゴミ箱に入っておらず非表示でもない「可視」アセットを主キーの昇順で
// 遅延ストリームとして返す。ライブラリ全体をメモリに展開することはない。
// タイムスタンプは2001-01-01T00:00:00Zからの経過秒数として保存されており、
// UTCの時刻に変換して返す。元のファイル名などの追加属性は別テーブルにあり、
// Asset.Extraを呼んだときに一度だけ取得して保持する。
//
// 書き込み、スキーマのマイグレーション、プロセスをまたいだキャッシュは行わない。
package photosdb
