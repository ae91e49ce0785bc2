// Package errors はプロジェクト全体のエラーハンドリングを提供します。
// 予測パイプラインのエラー分類（入力検証、モデル未ロード、CSV構造、行単位の失敗）と、
// モデル層の構造化エラーを cockroachdb/errors のスタックトレース付きで表現します。
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	予測パイプラインのエラー型
//
// ===========================================================================

// ValidationError は入力値の検証に失敗した場合のエラーです。
// Error() は利用者にそのまま返せるメッセージ (Reason) のみを返し、
// どのフィールドで失敗したかは構造化ログ用に ParamName に保持します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ModelsUnavailableError は起動時に必要なアーティファクト（3つのモデルとスケーラー）の
// いずれかがロードされていない場合のエラーです。プロセスは停止せず、ヘルスチェックで報告します。
type ModelsUnavailableError struct {
	Missing []string
}

func (e *ModelsUnavailableError) Error() string {
	return "ML models not loaded. Please place the model artifacts in the model directory."
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ModelsUnavailableError) MarshalZerologObject(event *zerolog.Event) {
	event.Strs("missing", e.Missing).
		Str("type", "ModelsUnavailableError")
}

// NewModelsUnavailableError は新しいModelsUnavailableErrorを作成します。
func NewModelsUnavailableError(missing ...string) error {
	err := &ModelsUnavailableError{Missing: missing}
	return errors.WithStack(err)
}

// StructuralInputError は表形式入力に必須カラムが欠けている場合のエラーです。
// バッチ全体を行の処理前に中断します。
type StructuralInputError struct {
	Required []string
	Missing  []string
}

func (e *StructuralInputError) Error() string {
	return fmt.Sprintf("CSV must contain columns: %s", strings.Join(e.Required, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *StructuralInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Strs("required", e.Required).
		Strs("missing", e.Missing).
		Str("type", "StructuralInputError")
}

// NewStructuralInputError は新しいStructuralInputErrorを作成します。
func NewStructuralInputError(required, missing []string) error {
	err := &StructuralInputError{Required: required, Missing: missing}
	return errors.WithStack(err)
}

// RowError はバッチ処理中の1行に閉じた失敗です。他の行の処理には影響しません。
type RowError struct {
	Row     int // 1始まりの行番号
	Message string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *RowError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("row", e.Row).
		Str("message", e.Message).
		Str("type", "RowError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewRowError は新しいRowErrorを作成します。行エラーは結果に埋め込まれるため、スタックは付与しません。
func NewRowError(row int, message string, cause error) *RowError {
	return &RowError{Row: row, Message: message, Err: cause}
}

// ===========================================================================
//
//	モデル層の構造化エラー型
//
// ===========================================================================

// NotFittedError はパラメータがロードされていないモデルで `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("housepredict: %s: parameters are not loaded. Load the model artifact before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("housepredict: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ModelError はモデルのロードや推論に関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("housepredict: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("housepredict: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError はモデル出力に NaN や Inf が含まれた場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
}

func (e *NumericalInstabilityError) Error() string {
	var b strings.Builder
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		if i >= 5 {
			b.WriteString("...")
			break
		}
		fmt.Fprintf(&b, "%.6g", v)
	}
	return fmt.Sprintf("housepredict: numerical instability detected in %s. Values: [%s]", e.Operation, b.String())
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	err := &NumericalInstabilityError{Operation: operation, Values: values}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// UnwrapAll は最も内側の原因エラーを返します。
func UnwrapAll(err error) error {
	return errors.UnwrapAll(err)
}

// IsModelsUnavailable reports whether err carries a ModelsUnavailableError.
func IsModelsUnavailable(err error) bool {
	var target *ModelsUnavailableError
	return errors.As(err, &target)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsStructural reports whether err carries a StructuralInputError.
func IsStructural(err error) bool {
	var target *StructuralInputError
	return errors.As(err, &target)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrUnsupportedModel はアーティファクトのモデル種別が想定外の場合のエラーです。
	ErrUnsupportedModel = New("unsupported model type")
)
