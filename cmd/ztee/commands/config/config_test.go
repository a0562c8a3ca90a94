package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	"github.com/marmos91/ztee/internal/bytesize"
	"github.com/marmos91/ztee/pkg/config"
)

var (
	rootOnce sync.Once
	testRoot *cobra.Command
)

// execute runs Cmd below a root carrying the persistent --config flag, the
// way the ztee binary wires it.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	rootOnce.Do(func() {
		testRoot = &cobra.Command{Use: "ztee", SilenceUsage: true, SilenceErrors: true}
		testRoot.PersistentFlags().String("config", "", "config file")
		testRoot.AddCommand(Cmd)
	})

	schemaOutput = ""
	initForce = false

	var buf bytes.Buffer
	testRoot.SetOut(&buf)
	testRoot.SetErr(&buf)
	testRoot.SetArgs(append([]string{"config"}, args...))

	err := testRoot.Execute()
	return buf.String(), err
}

func TestSchemaStdout(t *testing.T) {
	out, err := execute(t, "schema", "--config=")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}

	var schema map[string]any
	if err := json.Unmarshal([]byte(out), &schema); err != nil {
		t.Fatalf("schema output is not JSON: %v", err)
	}

	if schema["title"] != "ztee Configuration" {
		t.Errorf("title = %v, want ztee Configuration", schema["title"])
	}

	props, _ := schema["properties"].(map[string]any)
	for _, section := range []string{"logging", "tee", "metrics", "telemetry"} {
		if _, ok := props[section]; !ok {
			t.Errorf("schema is missing section %q", section)
		}
	}

	tee, _ := props["tee"].(map[string]any)
	teeProps, _ := tee["properties"].(map[string]any)
	window, ok := teeProps["window_size"].(map[string]any)
	if !ok {
		t.Fatalf("schema is missing tee.window_size: %v", teeProps)
	}
	if _, ok := window["oneOf"]; !ok {
		t.Errorf("window_size should accept strings and integers, got %v", window)
	}

	delay, _ := teeProps["retry_delay"].(map[string]any)
	if delay["type"] != "string" {
		t.Errorf("retry_delay type = %v, want string", delay["type"])
	}
}

func TestSchemaToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.schema.json")

	out, err := execute(t, "schema", "--config=", "-o", path)
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	if !strings.Contains(out, "JSON schema written to "+path) {
		t.Errorf("unexpected output: %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("schema file not written: %v", err)
	}
	if !json.Valid(data) {
		t.Error("schema file is not valid JSON")
	}
}

func TestInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ztee", "config.yaml")

	out, err := execute(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if !strings.Contains(out, "Configuration file created at: "+path) {
		t.Errorf("unexpected init output: %q", out)
	}

	if _, err := execute(t, "init", "--config", path); err == nil {
		t.Error("init over an existing file should fail without --force")
	}

	if _, err := execute(t, "init", "--config", path, "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}

	out, err = execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	for _, want := range []string{"Validation: OK", path, "Window size", "8Mi", "unlimited"} {
		if !strings.Contains(out, want) {
			t.Errorf("validate output missing %q:\n%s", want, out)
		}
	}
}

func TestInitDefaultLocation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if _, err := execute(t, "init", "--config="); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "ztee", "config.yaml")); err != nil {
		t.Errorf("config not created in XDG_CONFIG_HOME: %v", err)
	}
}

func TestValidateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	out, err := execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "not found, defaults in use") {
		t.Errorf("missing file not reported:\n%s", out)
	}
}

func TestValidateInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tee:\n  window_size: 100\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	_, err := execute(t, "validate", "--config", path)
	if err == nil {
		t.Fatal("validate should reject a window below one page")
	}
	if !strings.Contains(err.Error(), "window_size") && !strings.Contains(err.Error(), "WindowSize") {
		t.Errorf("error does not name the field: %v", err)
	}
}

func TestConfigWarnings(t *testing.T) {
	limit := filepath.Join(t.TempDir(), "pipe-max-size")
	if err := os.WriteFile(limit, []byte("65536\n"), 0644); err != nil {
		t.Fatalf("failed to write limit: %v", err)
	}

	saved := pipeMaxSizePath
	pipeMaxSizePath = limit
	t.Cleanup(func() { pipeMaxSizePath = saved })

	tests := []struct {
		name   string
		window bytesize.ByteSize
		relay  bytesize.ByteSize
		want   []string
	}{
		{"defaults above the pipe limit", 8 * bytesize.MiB, 1 * bytesize.MiB, []string{"exceeds"}},
		{"clean", 8 * bytesize.MiB, 64 * bytesize.KiB, nil},
		{"unaligned window", 8*bytesize.MiB + 100, 64 * bytesize.KiB, []string{"page size"}},
		{"window below relay", 32 * bytesize.KiB, 64 * bytesize.KiB, []string{"smaller than relay_size"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.GetDefaultConfig()
			cfg.Tee.WindowSize = tt.window
			cfg.Tee.RelaySize = tt.relay

			warnings := configWarnings(cfg)
			if len(warnings) != len(tt.want) {
				t.Fatalf("configWarnings() = %v, want %d warnings", warnings, len(tt.want))
			}
			for i, w := range tt.want {
				if !strings.Contains(warnings[i], w) {
					t.Errorf("warning %d = %q, want it to mention %q", i, warnings[i], w)
				}
			}
		})
	}
}
