package view

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound matches the error SetFilename returns when the
	// resolver has no file for a name.
	ErrTemplateNotFound = errors.New("view: template not found")
	// ErrNoTemplate is returned by Render when no template was ever set.
	ErrNoTemplate = errors.New("view: no template set before rendering")
)

// NotFoundError reports a name the resolver could not map to a file.
type NotFoundError struct {
	Name     string
	Category string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("view: the requested view %q could not be found in %q", e.Name, e.Category)
}

// Is lets errors.Is match ErrTemplateNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrTemplateNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}
