// Package docstoretest holds the behaviour every docstore.Store backend must
// share. Backend packages call Run from their own tests.
package docstoretest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/vocapp/internal/apperror"
	"github.com/sakif/vocapp/internal/docstore"
)

type profileDoc struct {
	VocabIDs []string `json:"vocabIDs"`
	Name     string   `json:"name"`
}

type deckDoc struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
}

// Run exercises a fresh store returned by newStore in every subtest.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	ctx := context.Background()

	t.Run("get missing document", func(t *testing.T) {
		s := newStore(t)
		var d deckDoc
		err := s.Get(ctx, docstore.Decks, "nope", &d)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("add then get", func(t *testing.T) {
		s := newStore(t)
		id1, err := s.Add(ctx, docstore.Decks, deckDoc{Name: "first", Words: []string{"a"}})
		require.NoError(t, err)
		id2, err := s.Add(ctx, docstore.Decks, deckDoc{Name: "second"})
		require.NoError(t, err)
		assert.NotEmpty(t, id1)
		assert.NotEqual(t, id1, id2)

		var got deckDoc
		require.NoError(t, s.Get(ctx, docstore.Decks, id1, &got))
		assert.Equal(t, deckDoc{Name: "first", Words: []string{"a"}}, got)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "u1", profileDoc{Name: "old"}))
		require.NoError(t, s.Set(ctx, docstore.Users, "u1", profileDoc{Name: "new", VocabIDs: []string{}}))

		var got profileDoc
		require.NoError(t, s.Get(ctx, docstore.Users, "u1", &got))
		assert.Equal(t, "new", got.Name)
	})

	t.Run("delete is unconditional", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Add(ctx, docstore.Decks, deckDoc{Name: "gone"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, docstore.Decks, id))
		require.NoError(t, s.Delete(ctx, docstore.Decks, id), "second delete must not fail")

		var d deckDoc
		assert.ErrorIs(t, s.Get(ctx, docstore.Decks, id, &d), apperror.ErrNotFound)
	})

	t.Run("query by field", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "a", profileDoc{Name: "ann"}))
		require.NoError(t, s.Set(ctx, docstore.Users, "b", profileDoc{Name: "bob"}))
		require.NoError(t, s.Set(ctx, docstore.Users, "c", profileDoc{Name: "ann"}))

		docs, err := s.Query(ctx, docstore.Users, "name", "ann")
		require.NoError(t, err)
		require.Len(t, docs, 2)

		ids := []string{docs[0].ID, docs[1].ID}
		assert.ElementsMatch(t, []string{"a", "c"}, ids)

		var p profileDoc
		require.NoError(t, docs[0].Decode(&p))
		assert.Equal(t, "ann", p.Name)

		none, err := s.Query(ctx, docstore.Users, "name", "zed")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("query rejects bad field names", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Query(ctx, docstore.Users, "name') OR 1=1 --", "x")
		assert.ErrorIs(t, err, apperror.ErrValidation)
	})

	t.Run("array union appends new values in order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "u", profileDoc{VocabIDs: []string{"d1"}}))

		require.NoError(t, s.ArrayUnion(ctx, docstore.Users, "u", "vocabIDs", "d2", "d1", "d3"))
		require.NoError(t, s.ArrayUnion(ctx, docstore.Users, "u", "vocabIDs", "d2"))

		var got profileDoc
		require.NoError(t, s.Get(ctx, docstore.Users, "u", &got))
		assert.Equal(t, []string{"d1", "d2", "d3"}, got.VocabIDs)
	})

	t.Run("array union creates a missing field", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "u", map[string]string{"name": "x"}))

		require.NoError(t, s.ArrayUnion(ctx, docstore.Users, "u", "vocabIDs", "d1"))

		var got profileDoc
		require.NoError(t, s.Get(ctx, docstore.Users, "u", &got))
		assert.Equal(t, []string{"d1"}, got.VocabIDs)
		assert.Equal(t, "x", got.Name)
	})

	t.Run("array ops on missing document", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.ArrayUnion(ctx, docstore.Users, "ghost", "vocabIDs", "d1"), apperror.ErrNotFound)
		assert.ErrorIs(t, s.ArrayRemove(ctx, docstore.Users, "ghost", "vocabIDs", "d1"), apperror.ErrNotFound)
	})

	t.Run("array remove drops every occurrence", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "u", profileDoc{VocabIDs: []string{"d1", "d2", "d1", "d3"}}))

		require.NoError(t, s.ArrayRemove(ctx, docstore.Users, "u", "vocabIDs", "d1"))
		require.NoError(t, s.ArrayRemove(ctx, docstore.Users, "u", "vocabIDs", "missing"))

		var got profileDoc
		require.NoError(t, s.Get(ctx, docstore.Users, "u", &got))
		assert.Equal(t, []string{"d2", "d3"}, got.VocabIDs)
	})

	t.Run("array remove can empty the field", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "u", profileDoc{VocabIDs: []string{"d1"}}))

		require.NoError(t, s.ArrayRemove(ctx, docstore.Users, "u", "vocabIDs", "d1"))

		var got profileDoc
		require.NoError(t, s.Get(ctx, docstore.Users, "u", &got))
		assert.NotNil(t, got.VocabIDs)
		assert.Empty(t, got.VocabIDs)
	})

	t.Run("update field overwrites only that field", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Add(ctx, docstore.Decks, deckDoc{Name: "keep", Words: []string{"a"}})
		require.NoError(t, err)

		require.NoError(t, s.UpdateField(ctx, docstore.Decks, id, "words", []string{"a", "b"}))

		var got deckDoc
		require.NoError(t, s.Get(ctx, docstore.Decks, id, &got))
		assert.Equal(t, deckDoc{Name: "keep", Words: []string{"a", "b"}}, got)

		assert.ErrorIs(t, s.UpdateField(ctx, docstore.Decks, "ghost", "words", []string{}), apperror.ErrNotFound)
	})

	t.Run("concurrent unions lose nothing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, docstore.Users, "u", profileDoc{VocabIDs: []string{}}))

		const n = 16
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.ArrayUnion(ctx, docstore.Users, "u", "vocabIDs", fmt.Sprintf("d%02d", i))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var got profileDoc
		require.NoError(t, s.Get(ctx, docstore.Users, "u", &got))
		assert.Len(t, got.VocabIDs, n)
	})
}
