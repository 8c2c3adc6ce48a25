package repository

import "errors"

var (
	// ErrImageNotFound indicates the image was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrUndecodable indicates the stored bytes are not a supported image
	ErrUndecodable = errors.New("image could not be decoded")

	// ErrImageTooLarge indicates the stored image exceeds the read limit
	ErrImageTooLarge = errors.New("image exceeds size limit")
)
