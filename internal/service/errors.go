package service

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrInvalidPlatform = errors.New("invalid platform")
)
