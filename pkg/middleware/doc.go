// Package middleware はライブラリ閲覧APIで使用するGinミドルウェアを提供する。
//
// 閲覧用JWTトークンの発行と検証、パニックリカバリ、
// 読み取り専用APIのCORS設定を含む。
package middleware
