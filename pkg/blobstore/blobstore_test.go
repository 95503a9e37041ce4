package blobstore_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"harvestiq/internal/apperrors"
	"harvestiq/pkg/blobstore"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveOpenDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := blobstore.New(fs)

	ref, err := store.Save("Tomatoes.JPG", strings.NewReader("fake image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	f, err := store.Open(ref)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "fake image bytes", string(data))

	require.NoError(t, store.Delete(ref))
	exists, err := afero.Exists(fs, ref)
	require.NoError(t, err)
	assert.False(t, exists)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ref))
}

func TestStore_RejectsUnsupportedType(t *testing.T) {
	store := blobstore.New(afero.NewMemMapFs())
	_, err := store.Save("script.sh", strings.NewReader("#!/bin/sh"))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestStore_OpenUnknownOrTraversal(t *testing.T) {
	store := blobstore.New(afero.NewMemMapFs())
	_, err := store.Open("missing.png")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = store.Open("../etc/passwd")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
