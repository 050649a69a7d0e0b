package pop3

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mailspool/mailspool/internal/config"
	"github.com/mailspool/mailspool/internal/maildrop"
	"github.com/mailspool/mailspool/internal/metrics"
	"github.com/mailspool/mailspool/internal/store"
)

var errTest = errors.New("test failure")

// testConn satisfies ConnectionLogger for command tests.
type testConn struct{}

func (testConn) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore is an in-memory store.MessageStore for session tests.
type mockStore struct {
	messages []store.MessageInfo
	content  map[string]string
	removed  map[string]bool
	listErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		messages: []store.MessageInfo{
			{Name: "20240101000000_aa.eml", Size: 100, UID: "uid-1"},
			{Name: "20240102000000_bb.eml", Size: 200, UID: "uid-2"},
			{Name: "20240103000000_cc.eml", Size: 300, UID: "uid-3"},
		},
		content: map[string]string{
			"20240101000000_aa.eml": "From: a@b\nTo: c@d\n\nBody line 1\nBody line 2\n",
			"20240102000000_bb.eml": "From: a@b\nTo: c@d\n\n.dotted first line\n",
			"20240103000000_cc.eml": "From: a@b\r\nTo: c@d\r\n\r\nLine 1\r\nLine 2\r\nLine 3\r\n",
		},
		removed: make(map[string]bool),
	}
}

func (m *mockStore) List(ctx context.Context) ([]store.MessageInfo, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []store.MessageInfo
	for _, msg := range m.messages {
		if !m.removed[msg.Name] {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	content, ok := m.content[name]
	if !ok || m.removed[name] {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

func (m *mockStore) Remove(ctx context.Context, name string) error {
	m.removed[name] = true
	return nil
}

func testAuthenticator() *Authenticator {
	return NewAuthenticator(config.AuthConfig{Username: "user", Password: "pass"})
}

func testCommands() CommandSet {
	return NewCommandSet(testAuthenticator(), &metrics.NoopCollector{})
}

// newAuthSession returns a session still in AUTHORIZATION.
func newAuthSession(st store.MessageStore) *Session {
	return NewSession("test.example.com", maildrop.New(st))
}

// newTransactionSession returns an authenticated session with the
// maildrop refreshed.
func newTransactionSession(t *testing.T, st store.MessageStore) *Session {
	t.Helper()
	sess := newAuthSession(st)
	if err := sess.Drop().Refresh(context.Background()); err != nil {
		t.Fatalf("refreshing maildrop: %v", err)
	}
	sess.SetAuthenticated()
	return sess
}

// execute runs a command from the default set against a session.
func execute(t *testing.T, sess *Session, name string, args ...string) Response {
	t.Helper()
	cmd, ok := testCommands().Get(name)
	if !ok {
		t.Fatalf("command %s not registered", name)
	}
	resp, err := cmd.Execute(context.Background(), sess, testConn{}, args)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}
	return resp
}
