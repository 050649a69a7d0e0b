// Package store persists each accepted email as one file in a flat spool
// directory. The SMTP receiver only ever creates new, uniquely named files;
// the POP3 server only reads and deletes existing ones. The directory is
// the sole shared state between the two daemons.
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// MessageInfo contains metadata about one stored message.
type MessageInfo struct {
	// Name is the spool filename; sorting names sorts by delivery time.
	Name string

	// Size is the message size in bytes on disk.
	Size int64

	// UID is a digest over filename, size, and modification time. It is
	// stable while the underlying file is unchanged and is exposed over
	// POP3 as the UIDL token. It is informational only: nothing persists
	// or verifies it across sessions.
	UID string
}

// MessageStore is the read/delete view of a spool, as consumed by the
// POP3 maildrop.
type MessageStore interface {
	List(ctx context.Context) ([]MessageInfo, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// Spool is a filesystem-backed message store rooted at one directory.
type Spool struct {
	dir string
}

// NewSpool creates a Spool rooted at dir. The directory is created on
// first delivery, not here.
func NewSpool(dir string) *Spool {
	return &Spool{dir: dir}
}

// Dir returns the spool directory path.
func (s *Spool) Dir() string {
	return s.dir
}

// Deliver writes one message to the spool and returns its filename.
// The record is a plain-text header block (one From line, one To line per
// recipient, blank separator) followed by the body exactly as assembled.
func (s *Spool) Deliver(ctx context.Context, from string, recipients []string, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return "", fmt.Errorf("creating spool directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("From: ")
	sb.WriteString(from)
	sb.WriteString("\n")
	for _, rcpt := range recipients {
		sb.WriteString("To: ")
		sb.WriteString(rcpt)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(body)

	name := generateFilename(time.Now())
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(sb.String()), 0600); err != nil {
		return "", fmt.Errorf("writing message %s: %w", name, err)
	}

	return name, nil
}

// List enumerates all stored messages in filename order. A missing spool
// directory is an empty spool, not an error.
func (s *Spool) List(ctx context.Context) ([]MessageInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading spool directory: %w", err)
	}

	var messages []MessageInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// File vanished between ReadDir and Info; another session's
			// commit may have removed it.
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		messages = append(messages, MessageInfo{
			Name: entry.Name(),
			Size: info.Size(),
			UID:  computeUID(entry.Name(), info.Size(), info.ModTime()),
		})
	}

	return messages, nil
}

// Open returns the raw content of one stored message.
// The caller is responsible for closing the returned ReadCloser.
func (s *Spool) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("opening message %s: %w", name, err)
	}
	return f, nil
}

// Remove deletes one stored message. Deleting a message that no longer
// exists is a no-op: a concurrent session may have committed first.
func (s *Spool) Remove(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing message %s: %w", name, err)
	}
	return nil
}

// computeUID derives the UIDL token for one file from its name, size,
// and modification time.
func computeUID(name string, size int64, modTime time.Time) string {
	h := sha1.New()
	h.Write([]byte(name))
	h.Write([]byte(strconv.FormatInt(size, 10)))
	h.Write([]byte(strconv.FormatInt(modTime.Unix(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}
