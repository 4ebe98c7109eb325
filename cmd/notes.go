package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"thetool/internal/core/notes"
)

// NotesCmd groups the note subcommands.
type NotesCmd struct {
	List   NotesListCmd   `cmd:"" default:"withargs" help:"List notes, pinned first"`
	Add    NotesAddCmd    `cmd:"" help:"Create a note"`
	Edit   NotesEditCmd   `cmd:"" help:"Replace the title and content of a note"`
	Pin    NotesPinCmd    `cmd:"" help:"Toggle the pinned flag of a note"`
	Remove NotesRemoveCmd `cmd:"" name:"rm" help:"Delete a note"`
	Sync   NotesSyncCmd   `cmd:"" help:"Choose whether notes are saved to the synced store"`
}

// NotesListCmd prints notes, optionally filtered.
type NotesListCmd struct {
	Query string `arg:"" optional:"" help:"Only show notes containing this text"`
}

func (c *NotesListCmd) Run(global *Global, cli *CLI) error {
	return withBook(global, cli, func(ctx context.Context, book *notes.Book) error {
		printNotes(os.Stdout, book.Search(c.Query), book)
		return nil
	})
}

// NotesAddCmd creates a note.
type NotesAddCmd struct {
	Title   string `arg:"" help:"Note title"`
	Content string `short:"m" help:"Note body"`
}

func (c *NotesAddCmd) Run(global *Global, cli *CLI) error {
	return withBook(global, cli, func(ctx context.Context, book *notes.Book) error {
		note, err := book.Create(ctx, c.Title, c.Content)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, note.ID)
		return nil
	})
}

// NotesEditCmd updates a note.
type NotesEditCmd struct {
	ID      string `arg:"" help:"Note ID"`
	Title   string `arg:"" help:"New title"`
	Content string `short:"m" help:"New body"`
}

func (c *NotesEditCmd) Run(global *Global, cli *CLI) error {
	return withBook(global, cli, func(ctx context.Context, book *notes.Book) error {
		return book.Update(ctx, c.ID, c.Title, c.Content)
	})
}

// NotesPinCmd toggles a pin.
type NotesPinCmd struct {
	ID string `arg:"" help:"Note ID"`
}

func (c *NotesPinCmd) Run(global *Global, cli *CLI) error {
	return withBook(global, cli, func(ctx context.Context, book *notes.Book) error {
		return book.TogglePin(ctx, c.ID)
	})
}

// NotesRemoveCmd deletes a note.
type NotesRemoveCmd struct {
	ID string `arg:"" help:"Note ID"`
}

func (c *NotesRemoveCmd) Run(global *Global, cli *CLI) error {
	return withBook(global, cli, func(ctx context.Context, book *notes.Book) error {
		return book.Delete(ctx, c.ID)
	})
}

// NotesSyncCmd switches the store notes are saved to.
type NotesSyncCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off"`
}

func (c *NotesSyncCmd) Run(global *Global, cli *CLI) error {
	return withBook(global, cli, func(ctx context.Context, book *notes.Book) error {
		if err := book.SetUseSync(ctx, c.State == "on"); err != nil {
			return err
		}
		if c.State == "on" && !book.UseSync() {
			return fmt.Errorf("synced store unavailable; set --nats-url to a reachable server")
		}
		return nil
	})
}

func withBook(global *Global, cli *CLI, fn func(context.Context, *notes.Book) error) error {
	ctx := context.Background()
	opened, err := openStores(ctx, cli, global.Logger)
	if err != nil {
		return err
	}
	defer opened.Close()

	book := notes.New(notes.Config{Local: opened.local, Synced: opened.synced, Logger: global.Logger})
	if err := book.Load(ctx); err != nil {
		return err
	}
	return fn(ctx, book)
}

func printNotes(out io.Writer, list []notes.Note, book *notes.Book) {
	active, _ := book.Active()
	for _, note := range list {
		marker := " "
		if note.ID == active.ID {
			marker = "*"
		}
		pin := ""
		if note.Pinned {
			pin = " [pinned]"
		}
		fmt.Fprintf(out, "%s %s  %s  %s%s\n", marker, note.ID, note.Modified.Local().Format(time.DateTime), firstLine(note.Title), pin)
	}
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}
