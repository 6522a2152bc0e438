package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-admissions-api/internal/dto"
	appErrors "github.com/noah-isme/campus-admissions-api/pkg/errors"
)

func TestNoteServiceAppendAndList(t *testing.T) {
	store := newMemoryStore()
	svc := NewNoteService(memoryNotes{store}, store, nil)
	svc.now = fixedClock()
	ctx := context.Background()
	e := store.seedEnrollment(2, false)

	first, err := svc.Append(ctx, e.ID, dto.CreateNoteRequest{Content: "  Called parent  "}, testActor)
	require.NoError(t, err)
	assert.Equal(t, "Called parent", first.Content)
	assert.Equal(t, "Dana Counselor", first.AuthorName)
	assert.NotEmpty(t, first.ID)

	_, err = svc.Append(ctx, e.ID, dto.CreateNoteRequest{Content: "Scheduled visit"}, testActor)
	require.NoError(t, err)

	notes, err := svc.List(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Scheduled visit", "Called parent"}, noteContents(notes))
}

func TestNoteServiceValidation(t *testing.T) {
	store := newMemoryStore()
	svc := NewNoteService(memoryNotes{store}, store, nil)
	ctx := context.Background()
	e := store.seedEnrollment(1, false)

	_, err := svc.Append(ctx, e.ID, dto.CreateNoteRequest{Content: "   "}, testActor)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Append(ctx, e.ID, dto.CreateNoteRequest{Content: strings.Repeat("x", 4001)}, testActor)
	require.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Append(ctx, e.ID, dto.CreateNoteRequest{Content: "hi"}, nil)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
	_, err = svc.Append(ctx, "missing", dto.CreateNoteRequest{Content: "hi"}, testActor)
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	notes, err := svc.List(ctx, e.ID)
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}
