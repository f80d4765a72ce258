package template

import (
	"errors"
	"testing"

	"slate/internal/config"
)

func workConfig() *config.Project {
	return &config.Project{
		Templates: []config.TemplateDef{
			{Name: "work_dir", Pattern: "{entity_path}/{dcc}/{task}"},
			{Name: "work", Pattern: "{work_dir}/{entity}_{tag}_v{ver}.{extn}"},
		},
		Tokens: map[string]config.TokenRule{
			"entity_path": {Path: true},
			"ver":         {Len: 3, IsDigit: true},
			"tag":         {Default: "main", Filter: "-_"},
			"task":        {Filter: "-_"},
			"dcc":         {Filter: "-_"},
		},
	}
}

func TestEngineInlinesTemplateReferences(t *testing.T) {
	engine, err := NewEngine(workConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	rendered, err := engine.Render("work", map[string]string{
		"entity_path": "/proj/assets/char/hero",
		"dcc":         "maya",
		"task":        "rig",
		"entity":      "hero",
		"tag":         "main",
		"ver":         "3",
		"extn":        "ma",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "/proj/assets/char/hero/maya/rig/hero_main_v003.ma"
	if rendered != want {
		t.Fatalf("Render = %q, want %q", rendered, want)
	}

	match, err := engine.Parse(rendered)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if match.Template.Name != "work" {
		t.Errorf("matched template %q, want work", match.Template.Name)
	}
	wantData := map[string]string{
		"entity_path": "/proj/assets/char/hero",
		"dcc":         "maya",
		"task":        "rig",
		"entity":      "hero",
		"tag":         "main",
		"ver":         "003",
		"extn":        "ma",
	}
	for token, value := range wantData {
		if match.Data[token] != value {
			t.Errorf("token %s = %q, want %q", token, match.Data[token], value)
		}
	}
}

func TestEngineReferenceCycle(t *testing.T) {
	cfg := &config.Project{
		Templates: []config.TemplateDef{
			{Name: "a", Pattern: "{b}/x"},
			{Name: "b", Pattern: "{a}/y"},
		},
	}
	if _, err := NewEngine(cfg, nil); err == nil {
		t.Fatal("expected cycle error")
	}
}

func ambiguousConfig(strict bool, altFirst bool) *config.Project {
	publish := config.TemplateDef{Name: "publish", Pattern: "{root}/publish/{task}/{name}_v{ver}.{extn}"}
	alt := config.TemplateDef{Name: "publish_alt1", Pattern: "{root}/publish/{task}/{name}_{variant}_v{ver}.{extn}"}
	templates := []config.TemplateDef{publish, alt}
	if altFirst {
		templates = []config.TemplateDef{alt, publish}
	}
	return &config.Project{
		Templates: templates,
		Tokens: map[string]config.TokenRule{
			"root": {Path: true},
			"ver":  {Len: 3, IsDigit: true},
			"task": {Filter: "-_"},
		},
		Pipeline: config.Pipeline{StrictParse: strict},
	}
}

func TestEngineParseDeclaredOrderWins(t *testing.T) {
	const path = "/j/publish/rig/thing_fancy_v001.ma"

	engine, err := NewEngine(ambiguousConfig(false, false), nil)
	if err != nil {
		t.Fatal(err)
	}
	match, err := engine.Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if match.Template.Name != "publish" {
		t.Errorf("first-declared template should win, got %q", match.Template.Name)
	}
	if match.Data["name"] != "thing_fancy" {
		t.Errorf("name = %q, want thing_fancy", match.Data["name"])
	}

	// Reversing the declaration order flips the winner: the order is
	// project policy, not inferred.
	engine, err = NewEngine(ambiguousConfig(false, true), nil)
	if err != nil {
		t.Fatal(err)
	}
	match, err = engine.Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if match.Template.Name != "publish_alt1" {
		t.Errorf("reversed order should pick publish_alt1, got %q", match.Template.Name)
	}
	if match.Data["name"] != "thing" || match.Data["variant"] != "fancy" {
		t.Errorf("unexpected data: %v", match.Data)
	}
}

func TestEngineStrictModeRejectsAmbiguity(t *testing.T) {
	engine, err := NewEngine(ambiguousConfig(true, false), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = engine.Parse("/j/publish/rig/thing_fancy_v001.ma")
	if err == nil {
		t.Fatal("expected ambiguity error")
	}
	if !errors.Is(err, ErrAmbiguousTemplate) {
		t.Errorf("error should match ErrAmbiguousTemplate: %v", err)
	}
	var ate *AmbiguousTemplateError
	if !errors.As(err, &ate) || len(ate.Templates) != 2 {
		t.Errorf("expected two candidate templates, got %v", err)
	}
}

func TestEngineParseRestrictedToNames(t *testing.T) {
	engine, err := NewEngine(workConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = engine.Parse("/proj/assets/char/hero/maya/rig", "work")
	if err == nil {
		t.Fatal("work template should not match a work dir path")
	}
	match, err := engine.Parse("/proj/assets/char/hero/maya/rig", "work_dir")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if match.Data["dcc"] != "maya" || match.Data["task"] != "rig" {
		t.Errorf("unexpected data: %v", match.Data)
	}
}

func TestEngineVersionHelpers(t *testing.T) {
	engine, err := NewEngine(workConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := engine.PadVersion(7); got != "007" {
		t.Errorf("PadVersion(7) = %q, want 007", got)
	}
	n, err := ParseVersion("007")
	if err != nil || n != 7 {
		t.Errorf("ParseVersion(007) = %d, %v", n, err)
	}
	if _, err := ParseVersion("vv7"); err == nil {
		t.Error("non-numeric version should fail")
	}
}
