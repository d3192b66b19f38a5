package aggregation

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every error type below unwraps to one of them.
var (
	ErrAmbiguousAssociation = errors.New("ambiguous subject association")
	ErrMalformedValue       = errors.New("malformed value")
	ErrDuplicateEntry       = errors.New("duplicate entry")
	ErrIncompleteRow        = errors.New("incomplete row")
	ErrMissingFile          = errors.New("missing value file")
)

// AmbiguousAssociationError is returned when a value file path names more
// than one requested subject.
type AmbiguousAssociationError struct {
	Path     string
	Region   string
	Subjects []string
}

func (e *AmbiguousAssociationError) Error() string {
	return fmt.Sprintf("%v: %s (region %s) matches subjects %s",
		ErrAmbiguousAssociation, e.Path, e.Region, strings.Join(e.Subjects, ", "))
}

func (e *AmbiguousAssociationError) Unwrap() error { return ErrAmbiguousAssociation }

// MalformedValueError is returned when a value file does not hold exactly
// one floating point literal.
type MalformedValueError struct {
	Subject string
	Region  string
	Path    string
	Content string
	Err     error
}

func (e *MalformedValueError) Error() string {
	msg := fmt.Sprintf("%v: subject %s, region %s, file %s: content %q",
		ErrMalformedValue, e.Subject, e.Region, e.Path, e.Content)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedValueError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedValue}
	}
	return []error{ErrMalformedValue, e.Err}
}

// DuplicateEntryError is returned when two files produce the same table key.
type DuplicateEntryError struct {
	Subject string
	Key     string
	Path    string
	Prior   string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%v: subject %s, key %s produced by %s and %s",
		ErrDuplicateEntry, e.Subject, e.Key, e.Prior, e.Path)
}

func (e *DuplicateEntryError) Unwrap() error { return ErrDuplicateEntry }

// IncompleteRowError is returned when a subject lacks a column that another
// subject has and null-fill was not requested.
type IncompleteRowError struct {
	Subject string
	Column  string
}

func (e *IncompleteRowError) Error() string {
	return fmt.Sprintf("%v: subject %s has no value for column %s", ErrIncompleteRow, e.Subject, e.Column)
}

func (e *IncompleteRowError) Unwrap() error { return ErrIncompleteRow }

// MissingFileError is returned when a requested subject has no value file
// in a region folder.
type MissingFileError struct {
	Subject string
	Region  string
	Dir     string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%v: subject %s, region %s under %s", ErrMissingFile, e.Subject, e.Region, e.Dir)
}

func (e *MissingFileError) Unwrap() error { return ErrMissingFile }
