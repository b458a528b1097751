// Package apperr は生成・取り込み・ライブ通信で共有するエラー分類を提供します。
// どの Kind も自動リトライの対象にはなりません。呼び出し側（オーケストレーター）が
// スロット単位またはセッション単位で記録します。
package apperr

import (
	"errors"
	"fmt"
)

// Kind はエラーの分類です。
type Kind int

const (
	KindUnknown Kind = iota

	// KindValidation は呼び出し側の入力不足です。
	KindValidation
	// KindFetch はリモート画像の取得失敗です（HTTP ステータス・ネットワーク・
	// 制限ネットワークへのアクセスブロックを含む）。
	KindFetch
	// KindImageDecode は画像としてデコードできないデータです。
	KindImageDecode
	// KindContentBlocked はプロンプト自体がブロックされた応答です。
	KindContentBlocked
	// KindSafetyBlocked は安全フィルターによる生成中断です。
	KindSafetyBlocked
	// KindTruncatedByLength はトークン上限による打ち切りです。
	KindTruncatedByLength
	// KindRecitationBlocked は引用検出による生成中断です。
	KindRecitationBlocked
	// KindNoImageProduced は画像が生成されなかった終了理由です。
	KindNoImageProduced
	// KindIncompleteGeneration は上記以外の異常な終了理由の受け皿です。
	KindIncompleteGeneration
	// KindUnexpectedText は画像の代わりに説明テキストが返ったケースです。
	// ハードエラーとは区別して利用者へ提示します。
	KindUnexpectedText
	// KindEmptyResult は候補も画像も得られなかった応答です。
	KindEmptyResult
	// KindTransport はライブチャネルの通信エラーです。
	KindTransport
)

// String は Kind の表示名を返します。
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindFetch:
		return "fetch"
	case KindImageDecode:
		return "image_decode"
	case KindContentBlocked:
		return "content_blocked"
	case KindSafetyBlocked:
		return "safety_blocked"
	case KindTruncatedByLength:
		return "truncated_by_length"
	case KindRecitationBlocked:
		return "recitation_blocked"
	case KindNoImageProduced:
		return "no_image_produced"
	case KindIncompleteGeneration:
		return "incomplete_generation"
	case KindUnexpectedText:
		return "unexpected_text"
	case KindEmptyResult:
		return "empty_result"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// Error は分類付きエラーです。Detail には安全カテゴリ、ブロック理由、
// あるいは画像の代わりに返ったテキストなどの付帯情報を保持します。
type Error struct {
	kind   Kind
	msg    string
	Detail string
	cause  error
}

// New は分類とメッセージから Error を作成します。
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf は書式付きで Error を作成します。
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap は既存のエラーを分類付きで包みます。
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// WithDetail は付帯情報を設定した自身を返します。
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// Kind はエラーの分類を返します。
func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.kind, e.msg)
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf はエラー連鎖から分類を取り出します。分類なしは KindUnknown です。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// Is は err が指定の分類かどうかを返します。
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// DetailOf はエラー連鎖から付帯情報を取り出します。
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}
