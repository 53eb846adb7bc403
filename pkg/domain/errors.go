package domain

import "fmt"

// ValidationError reports a malformed or out-of-range field on an otherwise
// well-formed record. No write is committed when one is returned.
type ValidationError struct {
	Entity EntityType
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Entity, e.Field, e.Reason)
}

// ReferenceError reports a foreign key pointing at a non-existent parent.
type ReferenceError struct {
	Entity EntityType
	Parent EntityType
	Key    string
}

func (e ReferenceError) Error() string {
	return fmt.Sprintf("%s: %s %s does not exist", e.Entity, e.Parent, e.Key)
}

// DuplicateKeyError reports an insertion colliding with an existing key.
type DuplicateKeyError struct {
	Entity EntityType
	Key    string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

// IntegrityError reports an operation that would violate the ownership
// invariant: removing a parent with live children, a cascade that could not be
// applied atomically, or a bulk load referencing an as-yet-unseen parent.
type IntegrityError struct {
	Entity EntityType
	Key    string
	Reason string
}

func (e IntegrityError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.Key, e.Reason)
}

// NotFoundError reports a lookup of a non-existent key.
type NotFoundError struct {
	Entity EntityType
	Key    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}
