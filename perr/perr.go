// Package perr implements the tagged error taxonomy used across every
// stage of the redaction pipeline, so the orchestrator can recover a
// specific failure kind with errors.As instead of matching on message
// text.
package perr

import (
	"errors"
	"fmt"
)

// Kind identifies which pipeline stage produced an error.
type Kind string

const (
	KindConfig         Kind = "ConfigError"
	KindPdfRead        Kind = "PdfReadError"
	KindPdfWrite       Kind = "PdfWriteError"
	KindContentStream  Kind = "ContentStreamError"
	KindOutlineConvert Kind = "OutlineConvertError"
	KindRender         Kind = "RenderError"
	KindSegmentation   Kind = "SegmentationError"
	KindJbig2Encode    Kind = "Jbig2EncodeError"
	KindJpegEncode     Kind = "JpegEncodeError"
	KindImageXObject   Kind = "ImageXObjectError"
	KindCache          Kind = "CacheError"
	KindLinearize      Kind = "LinearizeError"
	KindIO             Kind = "IoError"
)

// Error is the concrete error type for every taxonomy member. PageIndex
// is -1 when the error is not page-scoped (e.g. ConfigError, CacheError
// at the job level).
type Error struct {
	Kind      Kind
	Message   string
	PageIndex int
	Err       error
}

func (e *Error) Error() string {
	if e.PageIndex >= 0 {
		return fmt.Sprintf("%s (page %d): %s", e.Kind, e.PageIndex, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func new_(kind Kind, page int, format string, args ...any) *Error {
	return &Error{Kind: kind, PageIndex: page, Message: fmt.Sprintf(format, args...)}
}

func wrap(kind Kind, page int, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, PageIndex: page, Message: fmt.Sprintf(format, args...), Err: err}
}

// Config builds a job-level ConfigError.
func Config(format string, args ...any) *Error { return new_(KindConfig, -1, format, args...) }

func ConfigWrap(err error, format string, args ...any) *Error {
	return wrap(KindConfig, -1, err, format, args...)
}

func PdfRead(page int, err error, format string, args ...any) *Error {
	return wrap(KindPdfRead, page, err, format, args...)
}

func PdfWrite(page int, err error, format string, args ...any) *Error {
	return wrap(KindPdfWrite, page, err, format, args...)
}

func ContentStream(page int, err error, format string, args ...any) *Error {
	return wrap(KindContentStream, page, err, format, args...)
}

func OutlineConvert(page int, err error, format string, args ...any) *Error {
	return wrap(KindOutlineConvert, page, err, format, args...)
}

func Render(page int, err error, format string, args ...any) *Error {
	return wrap(KindRender, page, err, format, args...)
}

func Segmentation(page int, err error, format string, args ...any) *Error {
	return wrap(KindSegmentation, page, err, format, args...)
}

func Jbig2Encode(page int, err error, format string, args ...any) *Error {
	return wrap(KindJbig2Encode, page, err, format, args...)
}

func JpegEncode(page int, err error, format string, args ...any) *Error {
	return wrap(KindJpegEncode, page, err, format, args...)
}

func ImageXObject(page int, err error, format string, args ...any) *Error {
	return wrap(KindImageXObject, page, err, format, args...)
}

func Cache(err error, format string, args ...any) *Error {
	return wrap(KindCache, -1, err, format, args...)
}

func Linearize(err error, format string, args ...any) *Error {
	return wrap(KindLinearize, -1, err, format, args...)
}

func IO(err error, format string, args ...any) *Error {
	return wrap(KindIO, -1, err, format, args...)
}

// Is reports whether err's taxonomy Kind matches k, unwrapping through
// any number of fmt.Errorf %w wrappers.
func Is(err error, k Kind) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == k
}
