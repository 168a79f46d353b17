package session_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"rimloc/internal/adapters/db/sqlite"
	"rimloc/internal/adapters/db/sqlite/testutil"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/session"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	db := testutil.NewTestDB(t)
	var seed []*domain.Entry
	for i := 0; i < 5; i++ {
		e := &domain.Entry{XMLPath: fmt.Sprintf("Key%d", i), OriginalText: fmt.Sprintf("text %d", i)}
		if i < 2 {
			e.TranslatedText = "译文"
			e.Status = domain.StatusCompleted
		}
		seed = append(seed, e)
	}
	testutil.SeedEntries(t, db, "Beer", seed...)
	return session.NewManager(sqlite.NewSessionRepo(db), sqlite.NewEntryRepo(db), 2, nil)
}

func TestManager_SaveAndResume(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	s, err := m.Save(ctx, "Beer", "/mods/Beer", 1)
	require.NoError(t, err)
	require.Equal(t, 5, s.TotalEntries)
	require.Equal(t, 2, s.TranslatedEntries)
	require.InDelta(t, 40.0, s.Progress(), 0.001)

	r, err := m.Resume(ctx, "Beer")
	require.NoError(t, err)
	require.Equal(t, "/mods/Beer", r.Session.ModPath)
	require.Len(t, r.Entries, 2)
	require.Equal(t, "Key2", r.Entries[0].XMLPath)
	require.Equal(t, "Key3", r.Entries[1].XMLPath)

	latest, err := m.Latest(ctx)
	require.NoError(t, err)
	require.Equal(t, "Beer", latest.ModName)

	all, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, m.Delete(ctx, "Beer"))
	_, err = m.Resume(ctx, "Beer")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, m.Delete(ctx, "Beer"), domain.ErrNotFound)
}

func TestManager_SaveValidation(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	_, err := m.Save(ctx, " ", "", 0)
	require.ErrorIs(t, err, domain.ErrValidation)

	s, err := m.Save(ctx, "Beer", "", -3)
	require.NoError(t, err)
	require.Zero(t, s.CurrentPage)

	require.Equal(t, session.DefaultPageSize, session.NewManager(nil, nil, 0, nil).PageSize())
}
