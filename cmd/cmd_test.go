package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCLI_DryRunSweep(t *testing.T) {
	dir := t.TempDir()
	devicesPath := filepath.Join(dir, "devices.json")
	cfgFile := filepath.Join(dir, "config.yaml")
	cfg := `simulation:
  sessions: 1
  sample_interval_seconds: 0.01
  charging_seconds: 0.03
  cohort_sizes: [1, 3]
devices:
  path: ` + devicesPath + `
checkpoint:
  path: ` + filepath.Join(dir, "checkpoint.json") + `
  history_db: ` + filepath.Join(dir, "history.db") + `
metrics:
  sinks:
    - type: journal
      conf:
        path: ` + filepath.Join(dir, "journal.jsonl") + `
logging:
  level: error
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(cfg), 0o644))

	out := execute(t, "devices", "generate", "--count", "3", "--template", "site", "--out", devicesPath)
	assert.Contains(t, out, "wrote 3 devices")

	out = execute(t, "devices", "ls", "-c", cfgFile)
	assert.Contains(t, out, "site_2")

	out = execute(t, "run", "--dry-run", "-c", cfgFile, "--html", filepath.Join(dir, "report.html"))
	assert.Contains(t, out, "sweep completed")
	assert.Contains(t, out, "total: 4 succeeded, 0 failed")
	html, err := os.ReadFile(filepath.Join(dir, "report.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Charge points per cohort")

	out = execute(t, "checkpoint", "show", "-c", cfgFile, "--json")
	assert.Contains(t, out, `"succeeded": 4`)

	out = execute(t, "checkpoint", "show", "-c", cfgFile, "--history", "-1", "--json=false")
	assert.Contains(t, out, "sweep completed")

	// site_0 runs in both cohorts, one Authorize each
	out = execute(t, "journal", "-c", cfgFile, "--tag", "site_0", "--type", "Authorize", "--json")
	assert.Equal(t, 2, strings.Count(out, `"type":"Authorize"`))
}
