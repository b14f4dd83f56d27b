// Package httpclient はライブラリ閲覧APIを呼び出すHTTPクライアントを提供する。
//
// CLIのpullコマンドがリモートの閲覧APIからアセットをページ単位で
// 取得する際に使用する。
package httpclient
