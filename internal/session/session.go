// Package session holds the statements of one analysis run and enforces the
// batch admission policy: all statements must belong to the same holder
// unless the caller explicitly allows mixing.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-analyzer/internal/domain"
)

// HolderMismatchError reports a statement rejected because its holder id
// disagrees with the one the session was pinned to.
type HolderMismatchError struct {
	SourceFile string
	Got        string
	Want       string
}

func (e *HolderMismatchError) Error() string {
	return fmt.Sprintf("session: %s: holder id %q does not match session holder %q",
		e.SourceFile, e.Got, e.Want)
}

// Session is one batch of statements analysed together.
type Session struct {
	ID         string
	ClientName string
	AnchorDate time.Time

	// AllowHolderMismatch disables the same-holder check. Testing aid; the
	// default policy rejects mixed batches.
	AllowHolderMismatch bool

	holderID   string
	statements []*domain.Statement
}

// New creates an empty session anchored at the given date.
func New(clientName string, anchor time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		ClientName: clientName,
		AnchorDate: anchor,
	}
}

// Add appends a statement to the batch. The first statement pins the
// session's holder id; later statements with a different id are rejected
// with a HolderMismatchError unless AllowHolderMismatch is set.
func (s *Session) Add(stmt *domain.Statement) error {
	if s.holderID == "" {
		s.holderID = stmt.HolderID
		s.statements = append(s.statements, stmt)
		return nil
	}
	if stmt.HolderID != s.holderID && !s.AllowHolderMismatch {
		return &HolderMismatchError{
			SourceFile: stmt.SourceFile,
			Got:        stmt.HolderID,
			Want:       s.holderID,
		}
	}
	s.statements = append(s.statements, stmt)
	return nil
}

// HolderID returns the holder id the session is pinned to, empty before the
// first statement.
func (s *Session) HolderID() string {
	return s.holderID
}

// Statements returns the batch in insertion order.
func (s *Session) Statements() []*domain.Statement {
	return s.statements
}

// Len reports the number of statements in the batch.
func (s *Session) Len() int {
	return len(s.statements)
}
