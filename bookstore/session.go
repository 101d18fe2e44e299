package bookstore

import (
	"github.com/google/uuid"

	"github.com/beyondbrewing/bookstore/auth"
)

// Cursor is the select/modify state of one session: either nothing is
// selected or exactly one ISBN is.
type Cursor struct {
	isbn     string
	selected bool
}

// Selected returns the selected ISBN, if any.
func (c Cursor) Selected() (string, bool) { return c.isbn, c.selected }

func (c *Cursor) set(isbn string) { c.isbn, c.selected = isbn, true }
func (c *Cursor) clear()          { *c = Cursor{} }

// Session is one logged-in user. It belongs to the caller that obtained it
// and must not be shared between goroutines.
type Session struct {
	id        uuid.UUID
	username  string
	privilege auth.Privilege
	cursor    Cursor

	epoch  uint64
	closed bool
}

func (s *Session) ID() uuid.UUID             { return s.id }
func (s *Session) Username() string          { return s.username }
func (s *Session) Privilege() auth.Privilege { return s.privilege }
func (s *Session) Cursor() Cursor            { return s.cursor }
