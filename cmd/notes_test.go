package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"thetool/internal/core/notes"
)

func TestNotesCommandsRoundTrip(t *testing.T) {
	global := &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	cli := &CLI{DataDir: t.TempDir()}

	require.NoError(t, (&NotesAddCmd{Title: "groceries\nand more", Content: "milk"}).Run(global, cli))

	var listed bytes.Buffer
	require.NoError(t, withBook(global, cli, func(_ context.Context, book *notes.Book) error {
		printNotes(&listed, book.Search("milk"), book)
		return nil
	}))
	require.Contains(t, listed.String(), "* ")
	require.Contains(t, listed.String(), "groceries\n")
	require.NotContains(t, listed.String(), "and more")

	err := (&NotesSyncCmd{State: "on"}).Run(global, cli)
	require.ErrorContains(t, err, "synced store unavailable")
}
