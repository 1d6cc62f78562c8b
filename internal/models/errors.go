package models

import "errors"

// ErrObjectNotFound is returned by object store adapters when the requested object does not exist.
var ErrObjectNotFound = errors.New("object not found")
