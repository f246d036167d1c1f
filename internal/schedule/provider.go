// Package schedule turns the optional schedule.md file into a context block
// for prompt construction.
package schedule

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// FileName is the schedule document looked up beside the installed binary.
const FileName = "schedule.md"

const (
	contextHeader = "\n\nTEAM SCHEDULE:\n"
	notePrefix    = "\n\nNote: This game is on or around "
	noteSuffix    = ". Check the schedule for context about rivalry games, league importance, and upcoming matchups."
)

// ErrInvalidEncoding is returned when the schedule file is not valid UTF-8.
var ErrInvalidEncoding = errors.New("schedule: file is not valid UTF-8")

// Reader is the read side of the schedule directory.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Provider reads the schedule on every call; it keeps no state between calls.
type Provider struct {
	store Reader
}

// NewProvider creates a Provider reading FileName from store.
func NewProvider(store Reader) *Provider {
	return &Provider{store: store}
}

// Load returns the schedule text and true, or "" and false when the file
// does not exist. Any other failure is returned as an error.
// Line endings are normalised to "\n" ("\r\n" first, then lone "\r"); a
// byte order mark is kept.
func (p *Provider) Load() (string, bool, error) {
	data, err := p.store.Read(FileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("schedule: load: %w", err)
	}
	if !utf8.Valid(data) {
		return "", false, ErrInvalidEncoding
	}
	return normalizeNewlines(string(data)), true, nil
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return newlineReplacer.Replace(s)
}

// ContextOption customises a Context call.
type ContextOption func(*contextOptions)

type contextOptions struct {
	gameDate    string
	hasGameDate bool
}

// WithGameDate appends the game-date note. The value is embedded verbatim,
// an empty string included.
func WithGameDate(date string) ContextOption {
	return func(o *contextOptions) {
		o.gameDate = date
		o.hasGameDate = true
	}
}

// Context returns the formatted schedule block, or "" when the schedule is
// absent or empty.
func (p *Provider) Context(opts ...ContextOption) (string, error) {
	var o contextOptions
	for _, opt := range opts {
		opt(&o)
	}

	text, ok, err := p.Load()
	if err != nil {
		return "", err
	}
	if !ok || text == "" {
		return "", nil
	}

	var b strings.Builder
	b.Grow(len(contextHeader) + len(text) + len(notePrefix) + len(o.gameDate) + len(noteSuffix))
	b.WriteString(contextHeader)
	b.WriteString(text)
	if o.hasGameDate {
		b.WriteString(notePrefix)
		b.WriteString(o.gameDate)
		b.WriteString(noteSuffix)
	}
	return b.String(), nil
}

// InstallDir returns the directory holding the running executable, with
// symlinks resolved. It is the only place the schedule is looked up.
func InstallDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("schedule: locate executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("schedule: resolve executable: %w", err)
	}
	return filepath.Dir(resolved), nil
}
