package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/collatz/memostore"
)

// run executes the command tree with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestFind_Lines(t *testing.T) {
	out, err := run(t, "find", "112", "1", "0", "9")
	require.NoError(t, err)
	assert.Equal(t, "112\t27\n1\t1\n0\t0\n9\t6\n", out, "argument order is kept")
}

func TestFind_OverflowPrintsMinusOne(t *testing.T) {
	out, err := run(t, "find", "--bits", "8", "20", "29")
	assert.ErrorIs(t, err, errQueriesFailed)
	assert.Equal(t, "20\t9\n29\t-1\n", out)
}

func TestFind_JSONSharedMemo(t *testing.T) {
	out, err := run(t, "find", "--json", "--shared-memo", "--workers", "3", "112", "8", "17")
	require.NoError(t, err)

	var got []findOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "27", got[0].Value)
	assert.Equal(t, "3", got[1].Value)
	assert.Equal(t, "7", got[2].Value)
	assert.Equal(t, "ok", got[2].Outcome)
}

func TestFind_BelowAndMemoCap(t *testing.T) {
	out, err := run(t, "find", "--below", "27", "112")
	assert.ErrorIs(t, err, errQueriesFailed)
	assert.Equal(t, "112\t-1\n", out)

	out, err = run(t, "find", "--json", "--max-memo", "50", "112")
	assert.ErrorIs(t, err, errQueriesFailed)
	var got []findOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "memo_limit", got[0].Outcome)

	_, err = run(t, "find", "--below", "ten", "112")
	assert.Error(t, err)
}

func TestFind_StoreKeepsOverflow(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "memo")

	_, err := run(t, "find", "--store", dir, "200")
	require.NoError(t, err)

	out, err := run(t, "find", "--store", dir, "--bits", "8", "29")
	assert.ErrorIs(t, err, errQueriesFailed)
	assert.Equal(t, "29\t-1\n", out, "an archived 128-bit memo does not hide the overflow")
}

func TestFind_BadArgs(t *testing.T) {
	_, err := run(t, "find", "twelve")
	assert.Error(t, err)

	_, err = run(t, "find")
	assert.Error(t, err)

	_, err = run(t, "find", "--bits", "2", "10")
	assert.Error(t, err, "config validation rejects the width")
}

func TestFind_StorePersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "memo")

	out, err := run(t, "find", "--store", dir, "112")
	require.NoError(t, err)
	assert.Equal(t, "112\t27\n", out)

	out, err = run(t, "find", "--store", dir, "8")
	require.NoError(t, err)
	assert.Equal(t, "8\t3\n", out, "answers from an archived memo stay correct")

	store, err := memostore.Open(memostore.DefaultConfig(dir))
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Greater(t, n, 100)
}

func TestLength(t *testing.T) {
	out, err := run(t, "length", "27", "837799", "1", "0")
	require.NoError(t, err)
	assert.Equal(t, "27\t112\n837799\t525\n1\t1\n0\t0\n", out)

	out, err = run(t, "length", "--bits", "8", "27")
	assert.ErrorIs(t, err, errQueriesFailed)
	assert.Equal(t, "27\t-1\n", out)

	_, err = run(t, "length", "-5")
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	out, err := run(t, "chain", "6")
	require.NoError(t, err)
	assert.Equal(t, "6 3 10 5 16 8 4 2 1\n", out)

	out, err = run(t, "chain", "--bits", "8", "27")
	assert.Error(t, err)
	assert.Equal(t, "-1\n", out)
}

func TestVerify(t *testing.T) {
	out, err := run(t, "verify", "--from", "1", "--to", "30")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 30)
	for _, line := range lines {
		assert.True(t, strings.HasSuffix(line, "\tok"), line)
	}
	assert.Equal(t, "29\t130\t130\tok", lines[28])
}

func TestVerify_NarrowWidthSkipsOverflow(t *testing.T) {
	out, err := run(t, "verify", "--bits", "8", "--from", "20", "--to", "21")
	require.NoError(t, err)
	assert.Equal(t, "20\t9\t9\tok\n21\t18\t18\tok\n", out, "answers below 27 fit 8 bits")

	// Find stops at start 27; the pruned tree still holds 130 and 132.
	out, err = run(t, "verify", "--bits", "8", "--from", "29", "--to", "29")
	require.NoError(t, err)
	assert.Equal(t, "29\t-1\t130\tskipped\n", out)
}

func TestVerify_BadRange(t *testing.T) {
	_, err := run(t, "verify", "--from", "10", "--to", "5")
	assert.Error(t, err)
}

func TestMetricsOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collatz.prom")
	_, err := run(t, "--metrics-out", path, "find", "20", "40")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `collatz_queries_total{kind="find",outcome="ok"} 2`)

	_, err = run(t, "--metrics-out", path, "--bits", "8", "find", "29")
	require.ErrorIs(t, err, errQueriesFailed)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `collatz_queries_total{kind="find",outcome="overflow"} 1`, "failed runs still export")
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collatz.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bits: 16\n"), 0o600))

	out, err := run(t, "--config", path, "find", "44", "58")
	assert.ErrorIs(t, err, errQueriesFailed)
	assert.Equal(t, "44\t540\n58\t-1\n", out)

	out, err = run(t, "--config", path, "--bits", "128", "find", "58")
	require.NoError(t, err, "flags beat the file")
	assert.Equal(t, "58\t1138\n", out)
}
