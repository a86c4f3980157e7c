package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// File related errors
	ErrFileNotFound = errors.New("file not found")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Share related errors
	ErrLinkNotFound = errors.New("share link not found")
	ErrLinkInvalid  = errors.New("share link not found or inactive")
	ErrLinkExpired  = errors.New("share link has expired")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
