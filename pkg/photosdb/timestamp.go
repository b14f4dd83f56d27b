package photosdb

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AppleEpochOffset は2001-01-01T00:00:00ZのUnix時刻（秒）。
// ライブラリのタイムスタンプはこの時点からの経過秒数で保存されている。
const AppleEpochOffset = 978307200

// 表現可能な範囲。RFC3339でそのまま出力できる年に限定する。
var (
	minInstant = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxInstant = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC).Unix()
)

// decimalPattern は受け付ける10進数の書式。16進数などの接頭辞付きリテラルや分数は含まない。
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

var (
	bigEpochOffset = big.NewInt(AppleEpochOffset)
	bigNanosPerSec = big.NewInt(int64(time.Second))
)

// DecodeTimestamp はライブラリ形式の10進数文字列をUTCの時刻に変換する。
//
// 値にエポックオフセットを加算し、整数秒と小数部に分ける。
// 小数部は10^9倍してナノ秒に切り捨てる。float64を経由しないため
// ナノ秒までの桁は失われない。
func DecodeTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if !decimalPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q を10進数として解釈できません", ErrInvalidTimestamp, raw)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q を10進数として解釈できません", ErrInvalidTimestamp, raw)
	}

	r.Add(r, new(big.Rat).SetInt(bigEpochOffset))

	// 分母は常に正なのでユークリッド除算は床関数と一致する
	secs, rem := new(big.Int).DivMod(r.Num(), r.Denom(), new(big.Int))
	if !secs.IsInt64() || secs.Int64() < minInstant || secs.Int64() > maxInstant {
		return time.Time{}, fmt.Errorf("%w: %q は表現可能な範囲外です", ErrInvalidTimestamp, raw)
	}
	nsecs := rem.Mul(rem, bigNanosPerSec)
	nsecs.Quo(nsecs, r.Denom())

	return time.Unix(secs.Int64(), nsecs.Int64()).UTC(), nil
}

// EncodeTimestamp はUTCの時刻をライブラリ形式の10進数文字列に変換する。
// DecodeTimestampの逆変換で、ナノ秒精度で出力する。
func EncodeTimestamp(t time.Time) string {
	secs := t.Unix() - AppleEpochOffset
	nsecs := t.Nanosecond()
	if nsecs == 0 {
		return strconv.FormatInt(secs, 10)
	}
	if secs < 0 {
		// -1.25 のような負の値は (secs+1) 秒と (1e9-nsecs) ナノ秒で表す
		secs++
		nsecs = int(time.Second) - nsecs
		if secs == 0 {
			return fmt.Sprintf("-0.%09d", nsecs)
		}
	}
	return fmt.Sprintf("%d.%09d", secs, nsecs)
}
