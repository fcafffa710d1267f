package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

type env struct {
	dir        string
	keyFile    string
	configFile string
}

func newEnv(t *testing.T, peerstorePath string) *env {
	t.Helper()
	dir := t.TempDir()
	e := &env{
		dir:        dir,
		keyFile:    filepath.Join(dir, "identity.key"),
		configFile: filepath.Join(dir, "webrtc-direct.toml"),
	}

	body := fmt.Sprintf("[identity]\nkey_file = %q\n\n[peerstore]\npath = %q\n", e.keyFile, peerstorePath)
	if err := os.WriteFile(e.configFile, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return e
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestKeygenAndID(t *testing.T) {
	e := newEnv(t, "")

	out, err := run(t, "--config", e.configFile, "keygen")
	if err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	peerID := strings.TrimSpace(out)
	if peerID == "" {
		t.Fatal("expected keygen to print the peer id")
	}

	out, err = run(t, "--config", e.configFile, "id")
	if err != nil {
		t.Fatalf("id failed: %v", err)
	}
	if !strings.Contains(out, "peer id:    "+peerID) {
		t.Errorf("expected id to print %s, got %q", peerID, out)
	}
	if !strings.Contains(out, "public key: z") {
		t.Errorf("expected base58btc public key, got %q", out)
	}

	if _, err := run(t, "--config", e.configFile, "keygen"); err == nil {
		t.Error("expected keygen to refuse to overwrite an existing key")
	}
}

func TestKeygenOut(t *testing.T) {
	e := newEnv(t, "")
	path := filepath.Join(e.dir, "other.key")

	if _, err := run(t, "--config", e.configFile, "keygen", "--out", path); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected key at %s: %v", path, err)
	}
}

func TestListenNotSupported(t *testing.T) {
	e := newEnv(t, "")
	if _, err := run(t, "--config", e.configFile, "keygen"); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	_, err := run(t, "--config", e.configFile, "listen", "/ip4/0.0.0.0/tcp/9090/http/p2p-webrtc-direct/p2p/QmPeer")
	if !errors.Is(err, transport.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

func TestListenWithoutIdentity(t *testing.T) {
	e := newEnv(t, "")

	_, err := run(t, "--config", e.configFile, "listen", "/ip4/0.0.0.0/tcp/9090/http/p2p-webrtc-direct/p2p/QmPeer")
	if !errors.Is(err, transport.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	if _, statErr := os.Stat(e.keyFile); !os.IsNotExist(statErr) {
		t.Error("expected listen not to touch the identity key")
	}
}

func TestDialUnsupportedAddress(t *testing.T) {
	e := newEnv(t, filepath.Join(t.TempDir(), "peers.sqlite3"))
	if _, err := run(t, "--config", e.configFile, "keygen"); err != nil {
		t.Fatalf("keygen failed: %v", err)
	}

	_, err := run(t, "--config", e.configFile, "dial", "/ip4/1.2.3.4/tcp/9/p2p/QmX")
	if !errors.Is(err, transport.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}

	out, err := run(t, "--config", e.configFile, "peers")
	if err != nil {
		t.Fatalf("peers failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "WHEN") {
		t.Errorf("expected only the header, got %q", out)
	}
}

func TestPeersDisabled(t *testing.T) {
	e := newEnv(t, "")

	if _, err := run(t, "--config", e.configFile, "peers"); err == nil {
		t.Error("expected error when the peer store is disabled")
	}
}

func TestBadLogLevel(t *testing.T) {
	e := newEnv(t, "")

	if _, err := run(t, "--config", e.configFile, "--log-level", "loud", "peers"); err == nil {
		t.Error("expected error for an unknown log level")
	}
}

func TestMissingConfig(t *testing.T) {
	if _, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.toml"), "id"); err == nil {
		t.Error("expected error for a missing config file")
	}
}
