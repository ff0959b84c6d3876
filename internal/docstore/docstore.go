// Package docstore defines the document store the rest of the application
// talks to, and an in-memory implementation of it.
//
// The store is collection oriented: every document is a JSON object addressed
// by (collection, id). Besides plain get/add/set/delete it offers field-level
// array union/remove, which backends must apply atomically to a single
// document. Callers rely on that atomicity for the ownership index and must
// never emulate it with Get + UpdateField.
//
// Backends:
//   - Memory (this package)      tests and throwaway CLI sessions
//   - sqlite.Store               embedded default (modernc.org/sqlite)
//   - postgres.Store             jsonb documents over pgxpool
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/sakif/vocapp/internal/apperror"
)

// Collection names.
const (
	Users    = "users"
	Decks    = "decks"
	Accounts = "accounts"
)

// Store is the capability contract of the document store.
type Store interface {
	// Get decodes the document into dst. Returns apperror.ErrNotFound when
	// the document does not exist.
	Get(ctx context.Context, collection, id string, dst any) error

	// Query returns every document whose top-level field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]Document, error)

	// Add writes a new document under a store-generated id.
	Add(ctx context.Context, collection string, doc any) (string, error)

	// Set creates or replaces the document at id.
	Set(ctx context.Context, collection, id string, doc any) error

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// ArrayUnion appends each value not already present in the string array
	// field, in order. A missing field is treated as an empty array.
	ArrayUnion(ctx context.Context, collection, id, field string, values ...string) error

	// ArrayRemove removes every occurrence of each value from the string
	// array field.
	ArrayRemove(ctx context.Context, collection, id, field string, values ...string) error

	// UpdateField overwrites one top-level field of an existing document.
	UpdateField(ctx context.Context, collection, id, field string, value any) error

	Close() error
}

// Document is a raw query result.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into dst.
func (d Document) Decode(dst any) error {
	if err := json.Unmarshal(d.Data, dst); err != nil {
		return fmt.Errorf("docstore: decoding document %s: %w", d.ID, err)
	}
	return nil
}

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateField rejects field names that are not plain top-level keys.
// Backends splice the name into JSON paths, so it is checked first.
func ValidateField(field string) error {
	if !fieldName.MatchString(field) {
		return apperror.ValidationFailed("field", fmt.Sprintf("invalid document field %q", field))
	}
	return nil
}

// Union returns arr with each value appended unless already present.
func Union(arr []string, values []string) []string {
	out := append([]string(nil), arr...)
	for _, v := range values {
		if !contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// Remove returns arr without any occurrence of values.
func Remove(arr []string, values []string) []string {
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if !contains(values, v) {
			out = append(out, v)
		}
	}
	return out
}

func contains(arr []string, v string) bool {
	for _, a := range arr {
		if a == v {
			return true
		}
	}
	return false
}

// ApplyArrayOp decodes field from a JSON object, applies op and re-encodes
// the object. Used by backends that mutate documents inside their own lock or
// transaction.
func ApplyArrayOp(data []byte, field string, op func([]string) []string) ([]byte, error) {
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("docstore: decoding document: %w", err)
	}
	var arr []string
	if raw, ok := obj[field]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, apperror.ValidationFailed(field, fmt.Sprintf("field %q is not a string array", field))
		}
	}
	encoded, err := json.Marshal(nonNil(op(arr)))
	if err != nil {
		return nil, fmt.Errorf("docstore: encoding field %s: %w", field, err)
	}
	obj[field] = encoded
	return json.Marshal(obj)
}

// SetField replaces field in a JSON object.
func SetField(data []byte, field string, value any) ([]byte, error) {
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("docstore: decoding document: %w", err)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore: encoding field %s: %w", field, err)
	}
	obj[field] = encoded
	return json.Marshal(obj)
}

func nonNil(arr []string) []string {
	if arr == nil {
		return []string{}
	}
	return arr
}
