package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MONGODB_URI", "")
	t.Setenv("MONGOINIT_MONGO_URI", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"verify", "replset", "version"})

	for _, flag := range []string{"config", "uri", "username", "password", "auth-source", "connect-timeout", "operation-timeout", "log-level", "log-file", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mongoinit dev")
}

func TestRun_RejectsInvalidURIBeforeConnecting(t *testing.T) {
	_, err := execute(t, "--uri", "http://localhost:27017")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo.uri")
}

func TestVerify_RejectsUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "verify", "--output", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestReplSet_RejectsEmptyName(t *testing.T) {
	_, err := execute(t, "replset", "--name", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name")
}

func TestRun_LogFileClosedAfterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mongoinit.log")

	_, err := execute(t, "--uri", "mongodb://127.0.0.1:1", "--connect-timeout", "50ms", "--log-file", path)
	require.Error(t, err)

	require.NotNil(t, logCloser)
	closeLog()
	assert.Nil(t, logCloser)
	closeLog()

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "Failed to initialize database")
}
