package models

import "errors"

// Ошибки входных данных. Возвращаются обернутыми в ErrInvalidInput и отдаются клиенту как 400.
var (
	ErrInvalidInput      = errors.New("invalid input data")
	ErrEmptyConversation = errors.New("no messages provided")
	ErrInvalidChoice     = errors.New("choice must be A or B")
	ErrMissingStyles     = errors.New("missing choice or styles")
	ErrUnknownStyle      = errors.New("unknown style label")
)
