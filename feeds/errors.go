package feeds

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFeed is returned when a feed without sources is counted, loaded or rendered
	ErrEmptyFeed = errors.New("feed has no sources")

	// ErrEmptyTag is returned when a source was added without a tag
	ErrEmptyTag = errors.New("feed source tag is empty")

	// ErrQuery matches every QueryError
	ErrQuery = errors.New("feed query failed")

	// ErrIntegrity matches every IntegrityError
	ErrIntegrity = errors.New("feed integrity check failed")
)

// QueryError wraps a failure from the database while running a feed operation
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("feed %s: query error: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQuery
}

// IntegrityError is returned when a row of the combined query has no matching
// record after the per type reload, i.e. the record changed in between.
type IntegrityError struct {
	TypeName string
	ID       int64
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("record %s with id %d is in the feed but could not be loaded", e.TypeName, e.ID)
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// IsEmptyFeed checks if an error is an empty feed error
func IsEmptyFeed(err error) bool {
	return errors.Is(err, ErrEmptyFeed)
}

// IsQueryError checks if an error is a query error
func IsQueryError(err error) bool {
	return errors.Is(err, ErrQuery)
}

// IsIntegrity checks if an error is an integrity error
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}
