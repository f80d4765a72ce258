package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCommand executes the CLI against a fresh root command and returns
// the combined output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeTestConfig writes a minimal project config pointing at a temp job
// root and returns both paths. Extra TOML lands verbatim after job_root.
func writeTestConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	jobRoot := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "project.toml")
	content := fmt.Sprintf("job_root = %q\n%s", jobRoot, extra)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return configPath, jobRoot
}

func TestRenderCommand(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := filepath.Join(jobRoot, "dune", "assets", "char", "hero")

	out, err := runCommand(t, "-c", configPath, "render", "work_dir",
		"entity_path="+entity, "entity=hero", "dcc=maya", "task=rig")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	want := filepath.Join(entity, "maya", "rig") + "\n"
	if out != want {
		t.Fatalf("out = %q, want %q", out, want)
	}
}

func TestRenderCommandJSON(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := filepath.Join(jobRoot, "dune", "assets", "char", "hero")

	out, err := runCommand(t, "-c", configPath, "--json", "render", "work_dir",
		"entity_path="+entity, "entity=hero", "dcc=maya", "task=rig")
	if err != nil {
		t.Fatalf("render: %v\n%s", err, out)
	}
	var result map[string]string
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result["path"] != filepath.Join(entity, "maya", "rig") {
		t.Fatalf("result = %v", result)
	}
}

func TestRenderCommandRejectsBadTokenArg(t *testing.T) {
	configPath, _ := writeTestConfig(t, "")

	if _, err := runCommand(t, "-c", configPath, "render", "work_dir", "no-equals"); err == nil {
		t.Fatal("malformed token argument should fail")
	}
}

func TestParseCommand(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := filepath.Join(jobRoot, "dune", "assets", "char", "hero")

	out, err := runCommand(t, "-c", configPath, "parse", entity)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if !strings.Contains(out, "asset_entity_path") {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(out, "hero") || !strings.Contains(out, "char") {
		t.Fatalf("out = %q", out)
	}
}

func TestParseCommandJSON(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := filepath.Join(jobRoot, "dune", "assets", "char", "hero")

	out, err := runCommand(t, "-c", configPath, "--json", "parse", entity)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	var result struct {
		Template string            `json:"template"`
		Tokens   map[string]string `json:"tokens"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result.Template != "asset_entity_path" {
		t.Fatalf("template = %q", result.Template)
	}
	if result.Tokens["asset"] != "hero" || result.Tokens["asset_type"] != "char" {
		t.Fatalf("tokens = %v", result.Tokens)
	}
}

func TestParseTokenArgs(t *testing.T) {
	tokens, err := parseTokenArgs([]string{"asset=hero", "ver=003"})
	if err != nil {
		t.Fatal(err)
	}
	if tokens["asset"] != "hero" || tokens["ver"] != "003" {
		t.Fatalf("tokens = %v", tokens)
	}

	if _, err := parseTokenArgs([]string{"asset=hero", "asset=sword"}); err == nil {
		t.Error("duplicate token should fail")
	}
	if _, err := parseTokenArgs([]string{"=value"}); err == nil {
		t.Error("empty key should fail")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config", "project.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("init should refuse to overwrite")
	}

	out, err = runCommand(t, "-c", target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("out = %q", out)
	}
}

func TestConfigShow(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")

	out, err := runCommand(t, "-c", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	if !strings.Contains(out, jobRoot) {
		t.Fatalf("out = %q", out)
	}
}
