package searchclient

import (
	"errors"
	"fmt"
)

// ErrSearchFailed matches every error returned by Client.FetchSearchPage.
var ErrSearchFailed = errors.New("search failed")

// SearchError is a failed remote call on the paginated search path.
type SearchError struct {
	Op  string
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSearchFailed, e.Op, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Is reports ErrSearchFailed as matching so callers need not know the concrete type.
func (e *SearchError) Is(target error) bool {
	return target == ErrSearchFailed
}
