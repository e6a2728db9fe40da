// Package pdferror defines the error type returned by document operations.
package pdferror

import (
	"errors"
	"fmt"
)

// Code is a stable numeric error code.
type Code int

const (
	InvalidUnit                Code = -1
	InvalidOrientation         Code = -2
	InvalidZoomMode            Code = -3
	InvalidLayoutMode          Code = -4
	InvalidPageSize            Code = -5
	UndefinedFont              Code = -6
	UnsupportedFont            Code = -7
	InvalidFontFile            Code = -8
	InvalidFontPath            Code = -9
	InvalidImage               Code = -10
	UnsupportedImage           Code = -11
	ImageNotWritable           Code = -12
	HeaderAlreadySent          Code = -13
	InvalidCacheFolder         Code = -14
	ExtensionNotAvailable      Code = -15
	InvalidStream              Code = -16
	InvalidColorProfilePath    Code = -17
	AttachmentInvalidPath      Code = -18
	OutputInvalidPath          Code = -19
	OutputInvalidDestination   Code = -20
	BarcodeIncorrectDigitCheck Code = -21
	Barcode39InvalidValue      Code = -22
)

var codeNames = map[Code]string{
	InvalidUnit:                "invalid unit",
	InvalidOrientation:         "invalid orientation",
	InvalidZoomMode:            "invalid zoom mode",
	InvalidLayoutMode:          "invalid layout mode",
	InvalidPageSize:            "invalid page size",
	UndefinedFont:              "undefined font",
	UnsupportedFont:            "unsupported font",
	InvalidFontFile:            "invalid font file",
	InvalidFontPath:            "invalid font path",
	InvalidImage:               "invalid image",
	UnsupportedImage:           "unsupported image",
	ImageNotWritable:           "image not writable",
	HeaderAlreadySent:          "header already sent",
	InvalidCacheFolder:         "invalid cache folder",
	ExtensionNotAvailable:      "extension not available",
	InvalidStream:              "invalid stream",
	InvalidColorProfilePath:    "invalid color profile path",
	AttachmentInvalidPath:      "invalid attachment path",
	OutputInvalidPath:          "invalid output path",
	OutputInvalidDestination:   "invalid output destination",
	BarcodeIncorrectDigitCheck: "incorrect barcode check digit",
	Barcode39InvalidValue:      "invalid Code 39 value",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("error %d", int(c))
}

// Error is the single error type produced by the document layer.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates an error with a formatted message.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error wrapping err.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or 0.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}
