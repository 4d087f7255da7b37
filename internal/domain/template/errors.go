package template

import "errors"

var (
	// ErrTemplateNotFound indicates the template or version document doesn't exist.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrCatalogUnavailable indicates the catalog could not be read.
	ErrCatalogUnavailable = errors.New("template catalog unavailable")
)
