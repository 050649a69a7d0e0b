// Package maildrop provides a session-scoped, numbered view over the
// message store for one POP3 connection: a snapshot taken at
// authentication time with soft-deletion marks and commit-to-disk logic.
package maildrop

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mailspool/mailspool/internal/logging"
	"github.com/mailspool/mailspool/internal/store"
)

// Entry is one (message number, size, UID) listing row.
// Message numbers are 1-based and stable for the life of one snapshot.
type Entry struct {
	Num  int
	Size int64
	UID  string
}

// Maildrop is the in-memory view of the message store for one session.
// It is not safe for concurrent use; each connection owns its own Maildrop.
type Maildrop struct {
	store    store.MessageStore
	messages []store.MessageInfo
	deleted  map[int]bool
}

// New creates a Maildrop over the given store. Call Refresh to take the
// initial snapshot.
func New(st store.MessageStore) *Maildrop {
	return &Maildrop{
		store:   st,
		deleted: make(map[int]bool),
	}
}

// Refresh re-enumerates the store, establishing the message-number
// assignment for the session and clearing all deletion marks.
func (m *Maildrop) Refresh(ctx context.Context) error {
	messages, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("refreshing maildrop: %w", err)
	}
	m.messages = messages
	m.deleted = make(map[int]bool)
	return nil
}

// Stat returns the count of non-deleted messages and the sum of their
// sizes in octets.
func (m *Maildrop) Stat() (count int, octets int64) {
	for i, msg := range m.messages {
		if !m.deleted[i+1] {
			count++
			octets += msg.Size
		}
	}
	return count, octets
}

// ListAll returns an Entry for every non-deleted message in number order.
func (m *Maildrop) ListAll() []Entry {
	var entries []Entry
	for i, msg := range m.messages {
		if !m.deleted[i+1] {
			entries = append(entries, Entry{Num: i + 1, Size: msg.Size, UID: msg.UID})
		}
	}
	return entries
}

// ListOne returns the Entry for message n.
func (m *Maildrop) ListOne(n int) (Entry, error) {
	if err := m.checkIndex(n); err != nil {
		return Entry{}, err
	}
	msg := m.messages[n-1]
	return Entry{Num: n, Size: msg.Size, UID: msg.UID}, nil
}

// Retrieve reads message n and returns its content as lines with all line
// endings normalized, together with its on-disk size. Dot-stuffing and the
// end-of-transmission marker are applied by the response writer.
func (m *Maildrop) Retrieve(ctx context.Context, n int) ([]string, int64, error) {
	if err := m.checkIndex(n); err != nil {
		return nil, 0, err
	}

	rc, err := m.store.Open(ctx, m.messages[n-1].Name)
	if err != nil {
		return nil, 0, fmt.Errorf("retrieving message %d: %w", n, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, fmt.Errorf("reading message %d: %w", n, err)
	}

	return SplitLines(string(content)), m.messages[n-1].Size, nil
}

// Top reads message n and returns its header lines plus the first
// bodyLines lines of the body.
func (m *Maildrop) Top(ctx context.Context, n, bodyLines int) ([]string, error) {
	all, _, err := m.Retrieve(ctx, n)
	if err != nil {
		return nil, err
	}

	var lines []string
	inBody := false
	bodyCount := 0
	for _, line := range all {
		if !inBody {
			lines = append(lines, line)
			if line == "" {
				inBody = true
			}
			continue
		}
		if bodyCount >= bodyLines {
			break
		}
		lines = append(lines, line)
		bodyCount++
	}
	return lines, nil
}

// MarkDeleted sets the soft-deletion mark for message n.
func (m *Maildrop) MarkDeleted(n int) error {
	if err := m.checkIndex(n); err != nil {
		return err
	}
	m.deleted[n] = true
	return nil
}

// Reset clears all deletion marks without touching disk.
func (m *Maildrop) Reset() {
	m.deleted = make(map[int]bool)
}

// Commit physically deletes every message marked for deletion, then
// re-enumerates the store. Individual deletion failures do not abort the
// remaining deletions; the re-enumeration afterwards keeps the view
// consistent either way.
func (m *Maildrop) Commit(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	for i, msg := range m.messages {
		if !m.deleted[i+1] {
			continue
		}
		if err := m.store.Remove(ctx, msg.Name); err != nil {
			logger.Error("failed to delete message",
				"name", msg.Name,
				"error", err.Error(),
			)
		}
	}
	return m.Refresh(ctx)
}

// checkIndex validates a 1-based message number against the snapshot.
func (m *Maildrop) checkIndex(n int) error {
	if n < 1 || n > len(m.messages) {
		return ErrNoSuchMessage
	}
	if m.deleted[n] {
		return ErrMessageDeleted
	}
	return nil
}

// SplitLines normalizes CRLF and bare CR line endings to LF and splits the
// content into lines, dropping the empty element a trailing newline produces.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
