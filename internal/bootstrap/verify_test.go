package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestVerify_AfterRun(t *testing.T) {
	captureLog(t)
	engine := newFakeEngine()
	require.NoError(t, Run(context.Background(), engine))

	report, err := Verify(context.Background(), engine)
	require.NoError(t, err)

	assert.True(t, report.OK())
	require.Len(t, report.Databases, 2)
	assert.Equal(t, DatabaseReport{Name: "webuiDB", Present: []string{"users", "sessions"}}, report.Databases[0])
	assert.Equal(t, DatabaseReport{Name: "authdb", Present: []string{"authKeys"}}, report.Databases[1])
}

func TestVerify_ReportsMissingAndExtra(t *testing.T) {
	engine := newFakeEngine()
	engine.databases["webuiDB"] = map[string]bool{"users": true, "audit": true}

	report, err := Verify(context.Background(), engine)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Equal(t, []string{"users"}, report.Databases[0].Present)
	assert.Equal(t, []string{"sessions"}, report.Databases[0].Missing)
	assert.Equal(t, []string{"audit"}, report.Databases[0].Extra)
	assert.Equal(t, []string{"authKeys"}, report.Databases[1].Missing)
}

func TestVerify_PropagatesListError(t *testing.T) {
	engine := newFakeEngine()
	engine.listErr = errors.New("connection refused")

	_, err := Verify(context.Background(), engine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webuiDB")
}

func TestReport_WriteText(t *testing.T) {
	report := &Report{Databases: []DatabaseReport{
		{Name: "webuiDB", Present: []string{"users"}, Missing: []string{"sessions"}},
		{Name: "authdb", Present: []string{"authKeys"}, Extra: []string{"legacy"}},
	}}

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))

	assert.Equal(t,
		"webuiDB: present=[users] missing=[sessions]\n"+
			"authdb: present=[authKeys] extra=[legacy]\n",
		buf.String())
}

func TestReport_WriteYAML(t *testing.T) {
	report := &Report{Databases: []DatabaseReport{
		{Name: "webuiDB", Present: []string{"users", "sessions"}},
	}}

	var buf bytes.Buffer
	require.NoError(t, report.WriteYAML(&buf))

	var decoded Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *report, decoded)
	assert.NotContains(t, buf.String(), "missing")
}
