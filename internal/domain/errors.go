package domain

import "errors"

var (
	ErrJobNotFound        = errors.New("job not found")
	ErrUnknownImportKind  = errors.New("unknown import kind")
	ErrLookupFailed       = errors.New("batched lookup failed")
	ErrUnknownFileFormat  = errors.New("unknown file format")
	ErrInvalidJobStatus   = errors.New("invalid job status")
	ErrEntityAlreadyExist = errors.New("entity already exists")
	ErrEntityNotFound     = errors.New("entity not found")
)
