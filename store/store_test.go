package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricardocosta23/formularioguias/model"
)

func testForm(id string) model.FormDefinition {
	return model.FormDefinition{
		ID:   id,
		Type: "guias",
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeYesNo, Text: "Gostou?", DestinationColumn: "col_a"},
		},
		HeaderData: map[string]string{"Cliente": "Acme"},
		WebhookData: model.WebhookData{
			Event: model.WebhookEvent{PulseID: 42, PulseName: "Viagem Bahia"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := NewFileStore(t.TempDir())

	form := testForm("form-1")
	require.NoError(t, s.Put(form))

	got, err := s.Get("form-1")
	require.NoError(t, err)
	assert.Equal(t, form, got)
}

func TestGetUnknownIdReturnsNotFound(t *testing.T) {
	s := NewFileStore(t.TempDir())

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetFallsBackToDurableTier(t *testing.T) {
	dir := t.TempDir()

	first := NewFileStore(dir)
	form := testForm("form-1")
	require.NoError(t, first.Put(form))

	// A fresh store over the same directory starts with a cold cache, the
	// way a restarted process would.
	second := NewFileStore(dir)
	got, err := second.Get("form-1")
	require.NoError(t, err)
	assert.Equal(t, form, got)
}

func TestPutWritesThroughToFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Put(testForm("form-1")))

	_, err := os.Stat(filepath.Join(dir, "form-1.json"))
	assert.NoError(t, err)
}

func TestPutRejectsEmptyId(t *testing.T) {
	s := NewFileStore(t.TempDir())
	assert.Error(t, s.Put(model.FormDefinition{}))
}

func TestDeleteRemovesBothTiers(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.Put(testForm("form-1")))

	assert.True(t, s.Delete("form-1"))

	_, err := s.Get("form-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(dir, "form-1.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := NewFileStore(t.TempDir())

	require.NoError(t, s.Put(testForm("form-1")))
	assert.True(t, s.Delete("form-1"))
	assert.False(t, s.Delete("form-1"))
	assert.False(t, s.Delete("never-existed"))
}

func TestDeleteFileOnlyEntry(t *testing.T) {
	dir := t.TempDir()

	first := NewFileStore(dir)
	require.NoError(t, first.Put(testForm("form-1")))

	// Cold cache: the entry only exists as a file.
	second := NewFileStore(dir)
	assert.True(t, second.Delete("form-1"))
}

func TestListMergesTiersWithoutDuplicates(t *testing.T) {
	dir := t.TempDir()

	first := NewFileStore(dir)
	require.NoError(t, first.Put(testForm("form-file")))

	second := NewFileStore(dir)
	require.NoError(t, second.Put(testForm("form-cached")))

	summaries := second.List()
	require.Len(t, summaries, 2)

	ids := []string{summaries[0].ID, summaries[1].ID}
	assert.ElementsMatch(t, []string{"form-file", "form-cached"}, ids)
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not a form"), 0o644))

	s := NewFileStore(dir)
	assert.Empty(t, s.List())
}

func TestCacheOnlyDegradeOnMissingDirectory(t *testing.T) {
	// A path that cannot be created: parent is a file.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewFileStore(filepath.Join(blocker, "forms"))

	form := testForm("form-1")
	require.NoError(t, s.Put(form))

	got, err := s.Get("form-1")
	require.NoError(t, err)
	assert.Equal(t, form, got)

	assert.True(t, s.Delete("form-1"))
	_, err = s.Get("form-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
