package validation

import "errors"

var (
	ErrInvalidFileType   = errors.New("invalid file type")
	ErrFileTooLarge      = errors.New("file size exceeds limit")
	ErrCountExceeded     = errors.New("too many files")
	ErrExtensionMismatch = errors.New("file extension does not match content")
)
