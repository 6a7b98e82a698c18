package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/testutil"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeBash(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "bash.yaml", testutil.BashManifest)
}

// execute runs a subcommand built from opts and returns stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestDumpText(t *testing.T) {
	path := writeBash(t)

	out, err := execute(t, NewDumpCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)

	assert.Contains(t, out, "# /srv/bash-5.2-3.x86_64.rpm")
	assert.Regexp(t, `(?m)^NAME\s+bash$`, out)
	assert.Regexp(t, `(?m)^SUMMARY\s+The GNU Bourne Again shell$`, out)
	assert.Regexp(t, `(?m)^BASENAMES\s+\["bash","bash.1"\]$`, out)
	assert.Regexp(t, `(?m)^BUILDTIME\s+\[1700000000\]$`, out)
}

func TestDumpJSONFollowsLocales(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bash.yaml", testutil.BashManifest)
	cfg := writeFile(t, dir, "tagproxy.cue", `locales: ["de_DE.UTF-8"]`)

	out, err := execute(t, NewDumpCommand(&RootOptions{Format: "json", Config: cfg}), path)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   DumpResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "/srv/bash-5.2-3.x86_64.rpm", resp.Data.Origin)
	assert.Equal(t, "bash", resp.Data.Tags["NAME"])
	assert.Equal(t, "Die GNU Bourne Again Shell", resp.Data.Tags["SUMMARY"])
	assert.Equal(t, []any{"glibc", "ncurses-libs"}, resp.Data.Tags["REQUIRENAME"])
}

func TestDumpBinaryImage(t *testing.T) {
	h := testutil.BashHeader(t)
	path := filepath.Join(t.TempDir(), "bash.hdr")
	require.NoError(t, os.WriteFile(path, tag.Marshal(h), 0644))

	out, err := execute(t, NewDumpCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Regexp(t, `(?m)^NAME\s+bash$`, out)
}

func TestDumpBadReference(t *testing.T) {
	dir := t.TempDir()
	junk := writeFile(t, dir, "junk.hdr", "not a header")

	tests := []struct {
		name    string
		ref     string
		wantErr string
	}{
		{"missing fixture", filepath.Join(dir, "nope.yaml"), "failed to load fixture"},
		{"missing image", filepath.Join(dir, "nope.hdr"), "failed to read header image"},
		{"bad image", junk, "is not a header image"},
		{"db without database", "db:123", "no header database"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewDumpCommand(&RootOptions{Format: "text"}), tt.ref)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestQuery(t *testing.T) {
	path := writeBash(t)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}), path,
		"--qf", `%{NAME}-%{VERSION}-%{RELEASE}\n[%{REQUIRENAME} %{REQUIREFLAGS:depflags} %{REQUIREVERSION}\n]`)
	require.NoError(t, err)
	assert.Equal(t, "bash-5.2-3\nglibc >= 2.34\nncurses-libs >= 6.2\n", out)
}

func TestQueryJSON(t *testing.T) {
	path := writeBash(t)

	out, err := execute(t, NewQueryCommand(&RootOptions{Format: "json"}), path, "--qf", "%{NAME}")
	require.NoError(t, err)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "bash", resp.Data["output"])
}

func TestQueryErrors(t *testing.T) {
	path := writeBash(t)

	_, err := execute(t, NewQueryCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = execute(t, NewQueryCommand(&RootOptions{Format: "text"}), path, "--qf", "%{BOGUS}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDepsHeader(t *testing.T) {
	path := writeBash(t)

	out, err := execute(t, NewDepsCommand(&RootOptions{Format: "text"}), path, "--type", "REQUIRENAME")
	require.NoError(t, err)
	assert.Equal(t, "R glibc >= 2.34\nR ncurses-libs >= 6.2\n", out)

	out, err = execute(t, NewDepsCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Equal(t, "P bash = 5.2-3\n", out)
}

func TestDepsJSON(t *testing.T) {
	path := writeBash(t)

	out, err := execute(t, NewDepsCommand(&RootOptions{Format: "json"}), path, "--type", "providename")
	require.NoError(t, err)

	var resp struct {
		Data DepsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "Provides", resp.Data.Type)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, DepEntry{N: "bash", EVR: "5.2-3", F: 8, DNEVR: "P bash = 5.2-3"}, resp.Data.Entries[0])
	assert.Equal(t, DepEntry{N: "/bin/bash", DNEVR: "P /bin/bash"}, resp.Data.Entries[1])
}

func TestDepsKeyword(t *testing.T) {
	out, err := execute(t, NewDepsCommand(&RootOptions{Format: "text"}), "rpmlib")
	require.NoError(t, err)
	assert.Contains(t, out, "P rpmlib(PayloadIsZstd) = 5.4.18-1\n")

	_, err = execute(t, NewDepsCommand(&RootOptions{Format: "text"}), "nosuchkeyword")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dependency source")
}

func TestDepsUnknownType(t *testing.T) {
	path := writeBash(t)

	_, err := execute(t, NewDepsCommand(&RootOptions{Format: "text"}), path, "--type", "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tag "NOPE"`)

	_, err = execute(t, NewDepsCommand(&RootOptions{Format: "text"}), path, "--type", "LICENSE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build dependency set")
}

func TestImportListDump(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "headers.db")
	bash := writeFile(t, dir, "bash.yaml", testutil.BashManifest)
	zsh := writeFile(t, dir, "zsh.yaml", "tags: {NAME: zsh, VERSION: \"5.9\", RELEASE: \"1\"}\n")

	out, err := execute(t, NewImportCommand(&RootOptions{Format: "json", DB: db}), bash, zsh, bash)
	require.NoError(t, err)

	var imported struct {
		Data []ImportedHeader `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &imported))
	require.Len(t, imported.Data, 3)
	assert.Equal(t, imported.Data[0].ID, imported.Data[2].ID, "identical content shares a row")
	assert.NotEqual(t, imported.Data[0].ID, imported.Data[1].ID)

	out, err = execute(t, NewListCommand(&RootOptions{Format: "text", DB: db}))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "bash-5.2-3")
	assert.Contains(t, lines[1], "zsh-5.9-1")
	assert.Contains(t, lines[1], zsh)

	out, err = execute(t, NewListCommand(&RootOptions{Format: "json", DB: db}), "--name", "zsh")
	require.NoError(t, err)
	var listed struct {
		Data []ListedHeader `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, imported.Data[1].ID, listed.Data[0].ID)

	out, err = execute(t, NewQueryCommand(&RootOptions{Format: "text", DB: db}), "db:"+imported.Data[0].ID, "--qf", "%{NAME} %{SUMMARY}")
	require.NoError(t, err)
	assert.Equal(t, "bash The GNU Bourne Again shell", out)

	_, err = execute(t, NewDumpCommand(&RootOptions{Format: "text", DB: db}), "db:missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header missing not found")
}

func TestImportRequiresDatabase(t *testing.T) {
	path := writeBash(t)

	_, err := execute(t, NewImportCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header database")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestListEmpty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "headers.db")

	out, err := execute(t, NewListCommand(&RootOptions{Format: "json", DB: db}))
	require.NoError(t, err)
	var listed struct {
		Status string         `json:"status"`
		Data   []ListedHeader `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Equal(t, "ok", listed.Status)
	assert.Empty(t, listed.Data)
}

const passingScenario = `
name: bash-name
description: NAME reads through the proxy
header: bash.yaml
steps:
  - {op: get, name: NAME, expect: bash}
`

const failingScenario = `
name: bash-wrong
description: expectation that does not hold
header: bash.yaml
steps:
  - {op: get, name: NAME, expect: zsh}
`

func TestRunScenarios(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bash.yaml", testutil.BashManifest)
	pass := writeFile(t, dir, "pass.yaml", passingScenario)
	fail := writeFile(t, dir, "fail.yaml", failingScenario)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), pass)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ bash-name")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, err = execute(t, NewRunCommand(&RootOptions{Format: "text"}), pass, fail)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bash-wrong")
	assert.Contains(t, out, "expected zsh, got bash")
}

func TestRunScenariosJSONTrace(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bash.yaml", testutil.BashManifest)
	pass := writeFile(t, dir, "pass.yaml", passingScenario)

	out, err := execute(t, NewRunCommand(&RootOptions{Format: "json"}), pass, "--trace")
	require.NoError(t, err)

	var resp struct {
		Data RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t,
		`{"scenario":"bash-name","trace":[{"name":"NAME","on":"header","op":"get","result":"bash","seq":1}]}`,
		resp.Data.Scenarios[0].Trace)
}

func TestRunScenarioLoadError(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "name: x\n")

	_, err := execute(t, NewRunCommand(&RootOptions{Format: "text"}), bad)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load")
}
