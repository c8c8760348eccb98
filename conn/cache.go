package conn

import (
	"errors"
	"sync/atomic"
)

// Command is a live backend command, typically an open result set.
type Command interface {
	Close() error
}

// Handle identifies a session leased from a Connection. The zero Handle
// denotes the session pinned by a transaction.
type Handle uint64

// Releaser gives a leased session back.
type Releaser interface {
	Release(Handle) error
}

type entry struct {
	cmd    Command
	handle Handle
}

// CommandCache holds at most one {command, handle} pair. Exactly one caller
// takes a held pair, no matter how many race for it, so the command is
// closed and the session released at most once.
//
// The cache does not own the Connection. It only refers to the leased
// session through its Handle and gives it back through the Releaser.
type CommandCache struct {
	rel   Releaser
	entry atomic.Pointer[entry]
}

// NewCommandCache returns an empty cache releasing handles to rel.
func NewCommandCache(rel Releaser) *CommandCache {
	return &CommandCache{rel: rel}
}

// Hold stores a pair. A pair held before is destroyed.
func (c *CommandCache) Hold(cmd Command, h Handle) error {
	if old := c.entry.Swap(&entry{cmd: cmd, handle: h}); old != nil {
		return c.destroy(old)
	}
	return nil
}

// Command returns the held command, or nil.
func (c *CommandCache) Command() Command {
	if e := c.entry.Load(); e != nil {
		return e.cmd
	}
	return nil
}

// Handle returns the held handle.
func (c *CommandCache) Handle() (Handle, bool) {
	if e := c.entry.Load(); e != nil {
		return e.handle, true
	}
	return 0, false
}

// Empty reports whether the cache holds nothing.
func (c *CommandCache) Empty() bool {
	return c.entry.Load() == nil
}

// Take clears the cache and returns the pair it held. Only one of many
// concurrent callers observes ok.
func (c *CommandCache) Take() (cmd Command, h Handle, ok bool) {
	e := c.entry.Swap(nil)
	if e == nil {
		return nil, 0, false
	}
	return e.cmd, e.handle, true
}

// Destroy takes the held pair, closes the command and releases the
// session. Destroying an empty cache is a no-op.
func (c *CommandCache) Destroy() error {
	e := c.entry.Swap(nil)
	if e == nil {
		return nil
	}
	return c.destroy(e)
}

func (c *CommandCache) destroy(e *entry) error {
	var errs []error
	if e.cmd != nil {
		errs = append(errs, e.cmd.Close())
	}
	if c.rel != nil {
		errs = append(errs, c.rel.Release(e.handle))
	}
	return errors.Join(errs...)
}
