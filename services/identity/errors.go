package identity

import "errors"

var (
	ErrUnknownCollege  = errors.New("college does not exist")
	ErrNotFound        = errors.New("not found")
	ErrEmailTaken      = errors.New("email is already in use")
	ErrInvalidPosition = errors.New("position must be Dean or Chair")
	ErrMailFailed      = errors.New("failed to send email")
)
