// Package state implements the Persistent State facility: a named,
// process-local key-value store with debounced, atomic writes and a
// restricted on-disk grammar (spec §4.2, §6 "Persistent-state file").
package state

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"wireplumber/internal/werror"
	"wireplumber/internal/wplog"
	"wireplumber/props"
)

var log = wplog.Topic("state")

const escapeChar = '\\'

// escapeTable maps a raw rune to its two-character encoding, per §4.2.
var escapeTable = map[rune]string{
	'\\': `\\`,
	' ':  `\s`,
	'=':  `\e`,
	'[':  `\o`,
	']':  `\c`,
}

var unescapeTable = map[rune]rune{
	'\\': '\\',
	's':  ' ',
	'e':  '=',
	'o':  '[',
	'c':  ']',
}

// Encode escapes s so it is safe to use as a key in the on-disk grammar.
func Encode(s string) string {
	var b strings.Builder
	for _, r := range s {
		if enc, special := escapeTable[r]; special {
			b.WriteString(enc)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Decode reverses Encode. An unrecognised escape sequence (a backslash
// followed by something other than the table's second characters)
// passes through literally, backslash included.
func Decode(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != escapeChar || i+1 >= len(rs) {
			b.WriteRune(r)
			continue
		}
		next := rs[i+1]
		if raw, known := unescapeTable[next]; known {
			b.WriteRune(raw)
			i++
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// defaultDebounce is the debounce window used when no Option overrides
// it.
const defaultDebounce = 1000 * time.Millisecond

// State is a named, process-local key-value store backed by a file
// under the user's state directory.
type State struct {
	name     string
	path     string
	debounce time.Duration

	mu      sync.Mutex
	pending *props.Properties
	timer   *time.Timer
}

// Option configures a State at construction time.
type Option func(*State)

// WithDebounce overrides the default 1000ms debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *State) { s.debounce = d }
}

// Dir returns $STATE_HOME/wireplumber, where $STATE_HOME defaults to
// $HOME/.local/state if unset.
func Dir() string {
	if home := os.Getenv("STATE_HOME"); home != "" {
		return filepath.Join(home, "wireplumber")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state", "wireplumber")
}

// New creates a State named name, located at Dir()/name. The directory
// is created with permissions 0700 if it doesn't exist.
func New(name string, opts ...Option) (*State, error) {
	if name == "" {
		return nil, &werror.InvalidArgumentError{What: "state name must not be empty"}
	}
	dir := Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, &werror.IOError{Op: "mkdir", Path: dir, Err: err}
	}
	s := &State{
		name:     name,
		path:     filepath.Join(dir, name),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name returns the state's name.
func (s *State) Name() string { return s.name }

// Path returns the absolute location of the state's backing file.
func (s *State) Path() string { return s.path }

// Save synchronously writes every entry in props, overwriting prior
// contents. The write is atomic with respect to readers: it writes to a
// temporary file in the same directory, then renames it into place.
func (s *State) Save(p *props.Properties) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, s.name+".*.tmp")
	if err != nil {
		return &werror.IOError{Op: "save", Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	w := bufio.NewWriter(tmp)
	w.WriteString("[" + s.name + "]\n")
	p.Each(func(key, value string) {
		w.WriteString(Encode(key))
		w.WriteByte('=')
		w.WriteString(value)
		w.WriteByte('\n')
	})
	if err := w.Flush(); err != nil {
		tmp.Close()
		return &werror.IOError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &werror.IOError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return &werror.IOError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// SaveAfterTimeout schedules a debounced save. A call before the timer
// fires cancels and restarts the timer with the newly supplied props
// (last-writer-wins). props is held by reference, not copied: callers
// must not mutate it after handoff.
func (s *State) SaveAfterTimeout(p *props.Properties) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = p
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

func (s *State) fire() {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if p == nil {
		return
	}
	if err := s.Save(p); err != nil {
		log.Warn("debounced save of %q failed: %s", s.name, err)
	}
}

// Load reads the current on-disk state. It never fails: on any read or
// parse error it logs and returns an empty Properties.
func (s *State) Load() *props.Properties {
	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("load %q: %s", s.path, err)
		}
		return props.New()
	}
	defer f.Close()

	result := props.New()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		idx := unescapedEquals(line)
		if idx < 0 {
			continue
		}
		key := Decode(line[:idx])
		value := line[idx+1:]
		result.Set(key, value)
	}
	if err := scanner.Err(); err != nil {
		log.Warn("load %q: %s", s.path, err)
		return props.New()
	}
	return result
}

// unescapedEquals finds the first '=' not immediately preceded by an
// odd number of backslashes escaping it, i.e. the separator between an
// encoded key and its value.
func unescapedEquals(line string) int {
	backslashes := 0
	for i, r := range line {
		if r == '=' && backslashes%2 == 0 {
			return i
		}
		if r == escapeChar {
			backslashes++
		} else {
			backslashes = 0
		}
	}
	return -1
}

// Clear removes the on-disk file. It logs a warning on failure.
func (s *State) Clear() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.pending = nil
	}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Warn("clear %q failed: %s", s.path, err)
	}
}
