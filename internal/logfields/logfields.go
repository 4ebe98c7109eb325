package logfields

import "log/slog"

// Canonical log field names shared across packages.
const (
	KeyWidget    = "widget"
	KeyPhase     = "phase"
	KeyStore     = "store"
	KeyKey       = "key"
	KeyRemaining = "remaining_seconds"
	KeySessions  = "completed_sessions"
	KeyNoteID    = "note_id"
	KeyPath      = "path"
	KeyError     = "error"
)

func Widget(name string) slog.Attr    { return slog.String(KeyWidget, name) }
func Phase(name string) slog.Attr     { return slog.String(KeyPhase, name) }
func Store(name string) slog.Attr     { return slog.String(KeyStore, name) }
func Key(key string) slog.Attr        { return slog.String(KeyKey, key) }
func Remaining(seconds int) slog.Attr { return slog.Int(KeyRemaining, seconds) }
func Sessions(count int) slog.Attr    { return slog.Int(KeySessions, count) }
func NoteID(id string) slog.Attr      { return slog.String(KeyNoteID, id) }
func Path(path string) slog.Attr      { return slog.String(KeyPath, path) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
