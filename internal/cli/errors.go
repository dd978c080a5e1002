package cli

import (
	"errors"
	"fmt"
	"strings"

	"rehabinv-cli/internal/editstore"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type confirmRequiredError struct {
	action string
}

func (e confirmRequiredError) Error() string {
	return fmt.Sprintf("refusing to %s without --yes", e.action)
}

// describeSaveError lists every failed id of an aggregate save error.
func describeSaveError(err error) error {
	var se *editstore.SaveError
	if !errors.As(err, &se) {
		return err
	}
	var b strings.Builder
	b.WriteString(se.Error())
	for _, f := range se.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.ID, f.Err)
	}
	return errors.New(b.String())
}
