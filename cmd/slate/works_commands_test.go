package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// seedWorkFiles builds a job tree with versioned work files and returns
// the entity path.
func seedWorkFiles(t *testing.T, jobRoot string, names ...string) string {
	t.Helper()
	entity := filepath.Join(jobRoot, "dune", "assets", "char", "hero")
	workDir := filepath.Join(entity, "maya", "rig")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(workDir, name), []byte("scene"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return entity
}

func TestWorksCommandListsVersions(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := seedWorkFiles(t, jobRoot, "hero_main_v001.ma", "hero_main_v002.ma", "notes.txt")

	out, err := runCommand(t, "-c", configPath, "works", entity, "--task", "rig", "--dcc", "maya")
	if err != nil {
		t.Fatalf("works: %v\n%s", err, out)
	}
	if !strings.Contains(out, "hero_main_v001.ma") || !strings.Contains(out, "hero_main_v002.ma") {
		t.Fatalf("out = %q", out)
	}
	if strings.Contains(out, "notes.txt") {
		t.Fatalf("non-work files should not be listed: %q", out)
	}
}

func TestWorksCommandTagFilter(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := seedWorkFiles(t, jobRoot, "hero_main_v001.ma", "hero_wip_v001.ma")

	out, err := runCommand(t, "-c", configPath, "works", entity,
		"--task", "rig", "--dcc", "maya", "--tag", "wip")
	if err != nil {
		t.Fatalf("works: %v\n%s", err, out)
	}
	if !strings.Contains(out, "hero_wip_v001.ma") {
		t.Fatalf("out = %q", out)
	}
	if strings.Contains(out, "hero_main_v001.ma") {
		t.Fatalf("tag filter should drop other tags: %q", out)
	}
}

func TestWorksCommandRejectsUnknownTask(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := seedWorkFiles(t, jobRoot, "hero_main_v001.ma")

	if _, err := runCommand(t, "-c", configPath, "works", entity,
		"--task", "compositing", "--dcc", "maya"); err == nil {
		t.Fatal("undeclared task should fail")
	}
}

func TestNextVersionCommand(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := seedWorkFiles(t, jobRoot, "hero_main_v001.ma", "hero_main_v002.ma")

	out, err := runCommand(t, "-c", configPath, "next-version", entity,
		"--task", "rig", "--dcc", "maya")
	if err != nil {
		t.Fatalf("next-version: %v\n%s", err, out)
	}
	if strings.TrimSpace(out) != "3" {
		t.Fatalf("out = %q", out)
	}
}

func TestNextVersionCommandJSON(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	entity := seedWorkFiles(t, jobRoot)

	out, err := runCommand(t, "-c", configPath, "--json", "next-version", entity,
		"--task", "rig", "--dcc", "maya")
	if err != nil {
		t.Fatalf("next-version: %v\n%s", err, out)
	}
	var result map[string]int
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result["next_version"] != 1 {
		t.Fatalf("result = %v", result)
	}
}

func TestEntitiesCommand(t *testing.T) {
	configPath, jobRoot := writeTestConfig(t, "")
	job := filepath.Join(jobRoot, "dune")
	for _, dir := range []string{
		filepath.Join(job, "assets", "char", "hero"),
		filepath.Join(job, "shots", "sq010", "sh010"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	out, err := runCommand(t, "-c", configPath, "entities", job)
	if err != nil {
		t.Fatalf("entities: %v\n%s", err, out)
	}
	if !strings.Contains(out, "hero") || !strings.Contains(out, "sh010") {
		t.Fatalf("out = %q", out)
	}

	out, err = runCommand(t, "-c", configPath, "entities", job, "--kind", "asset")
	if err != nil {
		t.Fatalf("entities --kind asset: %v\n%s", err, out)
	}
	if !strings.Contains(out, "hero") || strings.Contains(out, "sh010") {
		t.Fatalf("out = %q", out)
	}
}
