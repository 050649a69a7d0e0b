package pop3

import (
	"strings"
	"testing"
)

func TestUserCommand(t *testing.T) {
	t.Run("accepts any username", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		resp := execute(t, sess, "USER", "whoever")
		if !resp.OK {
			t.Fatalf("USER failed: %s", resp.Message)
		}
		if sess.Username() != "whoever" {
			t.Errorf("username = %q, want %q", sess.Username(), "whoever")
		}
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		if resp := execute(t, sess, "USER"); resp.OK {
			t.Error("USER with no arguments should fail")
		}
		if resp := execute(t, sess, "USER", "a", "b"); resp.OK {
			t.Error("USER with two arguments should fail")
		}
	})

	t.Run("rejected in transaction state", func(t *testing.T) {
		sess := newTransactionSession(t, newMockStore())
		if resp := execute(t, sess, "USER", "user"); resp.OK {
			t.Error("USER should fail after authentication")
		}
	})
}

func TestPassCommand(t *testing.T) {
	t.Run("correct credentials enter transaction", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		execute(t, sess, "USER", "user")

		resp := execute(t, sess, "PASS", "pass")
		if !resp.OK {
			t.Fatalf("PASS failed: %s", resp.Message)
		}
		if sess.State() != StateTransaction {
			t.Errorf("state = %v, want %v", sess.State(), StateTransaction)
		}
		if !strings.Contains(resp.Message, "3 messages (600 octets)") {
			t.Errorf("PASS reply = %q, want maildrop summary", resp.Message)
		}
	})

	t.Run("requires USER first", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		resp := execute(t, sess, "PASS", "pass")
		if resp.OK {
			t.Error("PASS without USER should fail")
		}
	})

	t.Run("wrong password stays in authorization", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		execute(t, sess, "USER", "bad")

		resp := execute(t, sess, "PASS", "wrong")
		if resp.OK {
			t.Fatal("PASS with wrong credentials should fail")
		}
		if sess.State() != StateAuthorization {
			t.Errorf("state = %v, want %v", sess.State(), StateAuthorization)
		}

		// Transaction commands remain unavailable.
		if resp := execute(t, sess, "STAT"); resp.OK {
			t.Error("STAT should fail before authentication")
		}
	})

	t.Run("wrong username fails even with right password", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		execute(t, sess, "USER", "intruder")
		if resp := execute(t, sess, "PASS", "pass"); resp.OK {
			t.Error("PASS should fail for unknown username")
		}
	})

	t.Run("maildrop failure reported", func(t *testing.T) {
		st := newMockStore()
		st.listErr = errTest
		sess := newAuthSession(st)
		execute(t, sess, "USER", "user")

		resp := execute(t, sess, "PASS", "pass")
		if resp.OK {
			t.Fatal("PASS should fail when the maildrop cannot be read")
		}
		if sess.State() != StateAuthorization {
			t.Errorf("state = %v, want %v", sess.State(), StateAuthorization)
		}
	})
}

func TestQuitCommand(t *testing.T) {
	t.Run("from authorization", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		resp := execute(t, sess, "QUIT")
		if !resp.OK {
			t.Fatalf("QUIT failed: %s", resp.Message)
		}
		if sess.State() != StateAuthorization {
			t.Errorf("state = %v, want %v", sess.State(), StateAuthorization)
		}
	})

	t.Run("from transaction enters update", func(t *testing.T) {
		sess := newTransactionSession(t, newMockStore())
		resp := execute(t, sess, "QUIT")
		if !resp.OK {
			t.Fatalf("QUIT failed: %s", resp.Message)
		}
		if sess.State() != StateUpdate {
			t.Errorf("state = %v, want %v", sess.State(), StateUpdate)
		}
	})

	t.Run("rejects arguments", func(t *testing.T) {
		sess := newAuthSession(newMockStore())
		if resp := execute(t, sess, "QUIT", "now"); resp.OK {
			t.Error("QUIT with arguments should fail")
		}
	})
}

func TestCapaCommand(t *testing.T) {
	sess := newAuthSession(newMockStore())
	resp := execute(t, sess, "CAPA")
	if !resp.OK {
		t.Fatalf("CAPA failed: %s", resp.Message)
	}

	want := map[string]bool{"USER": false, "TOP": false, "UIDL": false}
	for _, line := range resp.Lines {
		if _, ok := want[line]; ok {
			want[line] = true
		}
	}
	for capability, seen := range want {
		if !seen {
			t.Errorf("capability %s not advertised", capability)
		}
	}
}
