package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/immxrtalbeast/codecollab/internal/config"
	"github.com/immxrtalbeast/codecollab/internal/domain"
	"github.com/immxrtalbeast/codecollab/internal/identity"
	"github.com/immxrtalbeast/codecollab/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.Equal(t, 0, execute(cmd))
	assert.Contains(t, out.String(), "codecollab dev")
}

func TestTokenCommandSignsVerifiableToken(t *testing.T) {
	path := writeConfig(t, "env: local\nauth:\n  jwt_secret: cmd-test-secret\n  issuer: codecollab\n")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", path, "--user-id", "alice", "--name", "Alice", "--ttl", "5m"})
	require.Equal(t, 0, execute(cmd))

	token := strings.TrimSpace(out.String())
	id, err := identity.NewJWTProvider("cmd-test-secret", "codecollab").Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: "alice", DisplayName: "Alice"}, id)
}

func TestTokenCommandRequiresUser(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: cmd-test-secret\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--config", path})
	assert.Equal(t, 1, execute(cmd))
}

func TestExportCommandReadsSQLiteRecord(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "codecollab.db")
	path := writeConfig(t, "auth:\n  jwt_secret: cmd-test-secret\nstorage:\n  driver: sqlite\n  dsn: "+dsn+"\n")

	store, closeStore, err := openSnapshotStore(config.StorageConfig{Driver: config.StorageSQLite, DSN: dsn})
	require.NoError(t, err)

	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	session, err := domain.NewSession(domain.Identity{UserID: "alice", DisplayName: "Alice"}, "pairing",
		domain.Settings{Language: "go", MaxParticipants: 4, AllowJoin: true, InitialCode: "package main"},
		domain.Limits{ChatHistory: 10, SignalRetention: time.Minute, SignalLimit: 10}, now)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), session.Record(now)))
	require.NoError(t, closeStore())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"export", "--config", path, session.ID})
	require.Equal(t, 0, execute(cmd))

	var rec domain.SessionRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, session.ID, rec.ID)
	assert.Equal(t, "package main", rec.Document.Content)
}

func TestExportCommandRejectsMemoryStorage(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: cmd-test-secret\n")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"export", "--config", path, "some-id"})
	assert.Equal(t, 1, execute(cmd))
}

func TestOpenSnapshotStoreMemory(t *testing.T) {
	store, closeStore, err := openSnapshotStore(config.StorageConfig{Driver: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &repository.InMemorySnapshotStore{}, store)
	assert.NoError(t, closeStore())

	_, _, err = openSnapshotStore(config.StorageConfig{Driver: "etcd"})
	assert.Error(t, err)
}

func TestNewLoggerBackends(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, envProd, config.LogBackendSlog).Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	log := newLogger(&buf, envProd, config.LogBackendZap)
	log.Info("from zap")
	assert.Contains(t, buf.String(), "from zap")
}
