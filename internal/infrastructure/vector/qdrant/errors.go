package qdrant

import (
	"errors"
	"fmt"
)

type httpStatusError struct {
	Operation  string
	StatusCode int
	Status     string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
}

func asHTTPStatusError(err error, target **httpStatusError) bool {
	return errors.As(err, target)
}
