package pop3

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/mailspool/mailspool/internal/smtp"
	"github.com/mailspool/mailspool/internal/store"
)

// TestDeliveryRetrievalRoundTrip drives a message through the full path:
// DATA-phase un-stuffing, spool persistence, and dot-stuffed retrieval.
func TestDeliveryRetrievalRoundTrip(t *testing.T) {
	ctx := context.Background()
	spool := store.NewSpool(t.TempDir())

	// The client sends a body whose second line is a stuffed lone dot.
	wire := "Subject: hi\r\n..\r\n hello\r\n.\r\n"
	lines, err := smtp.ReadData(bufio.NewReader(strings.NewReader(wire)))
	if err != nil {
		t.Fatalf("reading data: %v", err)
	}

	if _, err := spool.Deliver(ctx, "alice@example.com", []string{"bob@example.com"}, strings.Join(lines, "\n")); err != nil {
		t.Fatalf("delivering message: %v", err)
	}

	sess := newTransactionSession(t, spool)

	stat := execute(t, sess, "STAT")
	if !strings.HasPrefix(stat.Message, "1 ") {
		t.Fatalf("STAT = %q, want one message", stat.Message)
	}

	resp := execute(t, sess, "RETR", "1")
	if !resp.OK {
		t.Fatalf("RETR failed: %s", resp.Message)
	}

	want := []string{
		"From: alice@example.com",
		"To: bob@example.com",
		"",
		"Subject: hi",
		".",
		" hello",
	}
	if len(resp.Lines) != len(want) {
		t.Fatalf("RETR returned %d lines %v, want %d", len(resp.Lines), resp.Lines, len(want))
	}
	for i := range want {
		if resp.Lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, resp.Lines[i], want[i])
		}
	}

	// On the wire, the lone dot goes back out stuffed, then the stream
	// ends with the unstuffed terminator.
	if !strings.Contains(resp.String(), "\r\n..\r\n hello\r\n.\r\n") {
		t.Errorf("wire form = %q, want stuffed dot before terminator", resp.String())
	}
}

// TestDeleteCommitRoundTrip marks messages, quits, and verifies the files
// are gone from disk and from a fresh enumeration.
func TestDeleteCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	spool := store.NewSpool(t.TempDir())

	for _, subject := range []string{"one", "two", "three"} {
		if _, err := spool.Deliver(ctx, "a@b.test", []string{"c@d.test"}, "Subject: "+subject); err != nil {
			t.Fatalf("delivering message: %v", err)
		}
	}

	sess := newTransactionSession(t, spool)
	execute(t, sess, "DELE", "1")
	execute(t, sess, "DELE", "3")

	quit := execute(t, sess, "QUIT")
	if !quit.OK {
		t.Fatalf("QUIT failed: %s", quit.Message)
	}
	if err := sess.Drop().Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	remaining, err := spool.List(ctx)
	if err != nil {
		t.Fatalf("listing spool: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("spool has %d messages after commit, want 1", len(remaining))
	}

	rc, err := spool.Open(ctx, remaining[0].Name)
	if err != nil {
		t.Fatalf("opening survivor: %v", err)
	}
	defer rc.Close()

	buf := new(strings.Builder)
	if _, err := bufio.NewReader(rc).WriteTo(buf); err != nil {
		t.Fatalf("reading survivor: %v", err)
	}
	if !strings.Contains(buf.String(), "Subject: two") {
		t.Errorf("surviving message = %q, want the middle delivery", buf.String())
	}
}
