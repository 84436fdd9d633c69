package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies the stage of the hexbait pipeline that produced an
// error: grammar loading, lexing, parsing, static analysis, and evaluation
// are distinct stages, each with its own context to attach.
type ErrorType string

const (
	// Grammar pipeline errors
	ErrorTypeGrammarLoad    ErrorType = "grammar_load"
	ErrorTypeLex            ErrorType = "lex"
	ErrorTypeParse          ErrorType = "parse"
	ErrorTypeStaticAnalysis ErrorType = "static_analysis"
	ErrorTypeEval           ErrorType = "eval"

	// Byte source / file errors
	ErrorTypeIO           ErrorType = "io"
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// GrammarLoadError represents a failure reading or reloading a grammar file
// from disk, as distinct from a failure lexing/parsing its contents once
// read.
type GrammarLoadError struct {
	Type        ErrorType
	GrammarPath string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewGrammarLoadError creates a new grammar load error with context.
func NewGrammarLoadError(op string, err error) *GrammarLoadError {
	return &GrammarLoadError{
		Type:       ErrorTypeGrammarLoad,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithGrammarPath adds the source grammar file path to the error.
func (e *GrammarLoadError) WithGrammarPath(path string) *GrammarLoadError {
	e.GrammarPath = path
	return e
}

// WithRecoverable marks the error as recoverable (e.g. a watched grammar
// file that failed to reload can keep serving the last good lowering).
func (e *GrammarLoadError) WithRecoverable(recoverable bool) *GrammarLoadError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface.
func (e *GrammarLoadError) Error() string {
	if e.GrammarPath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.GrammarPath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *GrammarLoadError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the error can be retried.
func (e *GrammarLoadError) IsRecoverable() bool {
	return e.Recoverable
}

// LexError represents a failure tokenizing grammar source text, reported
// with a line/column position rather than a token since the lexer itself
// produced the bad token.
type LexError struct {
	Type        ErrorType
	GrammarPath string
	Line        int
	Column      int
	Underlying  error
	Timestamp   time.Time
}

// NewLexError creates a new lex error.
func NewLexError(path string, line, column int, err error) *LexError {
	return &LexError{
		Type:        ErrorTypeLex,
		GrammarPath: path,
		Line:        line,
		Column:      column,
		Underlying:  err,
		Timestamp:   time.Now(),
	}
}

// Error implements the error interface.
func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s:%d:%d: %v", e.GrammarPath, e.Line, e.Column, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *LexError) Unwrap() error {
	return e.Underlying
}

// ParseError represents a failure parsing a token stream into an AST.
type ParseError struct {
	Type        ErrorType
	GrammarPath string
	Line        int
	Column      int
	Token       string
	Underlying  error
	Timestamp   time.Time
}

// NewParseError creates a new parse error.
func NewParseError(path string, line, column int, token string, err error) *ParseError {
	return &ParseError{
		Type:        ErrorTypeParse,
		GrammarPath: path,
		Line:        line,
		Column:      column,
		Token:       token,
		Underlying:  err,
		Timestamp:   time.Now(),
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near token %q): %v",
		e.GrammarPath, e.Line, e.Column, e.Token, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// StaticAnalysisError represents a failure during lowering/binding
// resolution: an unresolved Named reference, a type constraint violation in
// a computed field, or a similar structural problem caught before any bytes
// are evaluated.
type StaticAnalysisError struct {
	Type        ErrorType
	GrammarPath string
	FieldName   string
	Underlying  error
	Timestamp   time.Time
}

// NewStaticAnalysisError creates a new static analysis error.
func NewStaticAnalysisError(path, fieldName string, err error) *StaticAnalysisError {
	return &StaticAnalysisError{
		Type:        ErrorTypeStaticAnalysis,
		GrammarPath: path,
		FieldName:   fieldName,
		Underlying:  err,
		Timestamp:   time.Now(),
	}
}

// Error implements the error interface.
func (e *StaticAnalysisError) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf("static analysis error in %s (field %s): %v", e.GrammarPath, e.FieldName, e.Underlying)
	}
	return fmt.Sprintf("static analysis error in %s: %v", e.GrammarPath, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *StaticAnalysisError) Unwrap() error {
	return e.Underlying
}

// EvaluationError represents a failure while walking a lowered grammar
// against a live byte source: an out-of-range read, a malformed switch
// discriminant, or similar. Distinct from eval.EvalError, which is a
// structured diagnostic surfaced to the UI rather than a Go error returned
// up a call stack.
type EvaluationError struct {
	Type       ErrorType
	FieldPath  string
	Offset     int64
	Underlying error
	Timestamp  time.Time
}

// NewEvaluationError creates a new evaluation error.
func NewEvaluationError(fieldPath string, offset int64, err error) *EvaluationError {
	return &EvaluationError{
		Type:       ErrorTypeEval,
		FieldPath:  fieldPath,
		Offset:     offset,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("eval error at %s (offset %d): %v", e.FieldPath, e.Offset, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error {
	return e.Underlying
}

// IOError represents a byte-source or file-related error: the source file
// could not be opened, read, or was rejected for being too large to map.
type IOError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewIOError creates a new IO error, classifying it as a permission failure
// or a plain IO failure based on the underlying error.
func NewIOError(op, path string, err error) *IOError {
	errorType := ErrorTypeIO
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &IOError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// isPermissionError checks if the error is a permission error.
func isPermissionError(err error) bool {
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors collected from independent
// operations (e.g. every --parser-definition candidate a glob expanded to
// failing to parse).
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error.
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface.
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors.
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
