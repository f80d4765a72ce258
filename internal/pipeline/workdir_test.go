package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"slate/internal/services"
	"slate/internal/testsupport"
)

func heroWorkDir(t *testing.T, p *Pipeline, user string) *WorkDir {
	t.Helper()
	job := p.Job("dune")
	entity := mustEntity(t, p, job, KindAsset, map[string]string{
		"asset_type": "char", "asset": "hero",
	})
	wd, err := p.WorkDir(entity, "rig", "maya", user)
	if err != nil {
		t.Fatalf("WorkDir: %v", err)
	}
	return wd
}

func TestWorkDirRender(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")

	want := wd.Entity.Path + "/maya/rig"
	if wd.Path != want {
		t.Fatalf("work dir path = %q, want %q", wd.Path, want)
	}
}

func TestWorkDirRejectsUnknownTask(t *testing.T) {
	p, _ := newTestPipeline(t)
	job := p.Job("dune")
	entity := mustEntity(t, p, job, KindAsset, map[string]string{
		"asset_type": "char", "asset": "hero",
	})

	_, err := p.WorkDir(entity, "compositing", "maya", "")
	if err == nil {
		t.Fatal("task outside the asset list should fail")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestWorkRenderPadsVersion(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")

	work, err := p.Work(wd, "", 3, "")
	if err != nil {
		t.Fatalf("Work: %v", err)
	}
	want := wd.Path + "/hero_main_v003.ma"
	if work.Path != want {
		t.Fatalf("work path = %q, want %q", work.Path, want)
	}
	if work.Tag != "main" || work.Extn != "ma" || work.VerPadded() != "003" {
		t.Errorf("work fields: tag=%q extn=%q ver=%q", work.Tag, work.Extn, work.VerPadded())
	}
}

func TestWorkUserDirectory(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "alice")

	work, err := p.Work(wd, "", 1, "ma")
	if err != nil {
		t.Fatal(err)
	}
	want := wd.Entity.Path + "/maya/rig/users/alice/hero_main_v001.ma"
	if work.Path != want {
		t.Fatalf("work path = %q, want %q", work.Path, want)
	}
}

func TestWorkFromPathRebuildsChain(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")
	rendered, err := p.Work(wd, "wip", 7, "mb")
	if err != nil {
		t.Fatal(err)
	}

	work, err := p.WorkFromPath(rendered.Path)
	if err != nil {
		t.Fatalf("WorkFromPath: %v", err)
	}
	if work.Ver != 7 || work.Tag != "wip" || work.Extn != "mb" {
		t.Errorf("work = ver %d tag %q extn %q", work.Ver, work.Tag, work.Extn)
	}
	if work.WorkDir.Path != wd.Path || work.WorkDir.Task != "rig" || work.WorkDir.DCC != "maya" {
		t.Errorf("work dir = %+v", work.WorkDir)
	}
	if work.WorkDir.Entity.Name() != "hero" || work.WorkDir.Entity.Kind != KindAsset {
		t.Errorf("entity = %+v", work.WorkDir.Entity)
	}
}

func TestWorksDiscovery(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")
	testsupport.TouchFiles(t,
		filepath.Join(wd.Path, "hero_main_v001.ma"),
		filepath.Join(wd.Path, "hero_main_v002.ma"),
		filepath.Join(wd.Path, "hero_wip_v001.ma"),
		filepath.Join(wd.Path, "users", "alice", "hero_main_v003.ma"),
		filepath.Join(wd.Path, "notes.txt"),
	)

	works, err := p.Works(context.Background(), wd, false)
	if err != nil {
		t.Fatalf("Works: %v", err)
	}
	if len(works) != 4 {
		t.Fatalf("found %d works, want 4: %v", len(works), works)
	}
	// Default tag sorts first, versions ascending within a tag.
	if works[0].Tag != "main" || works[0].Ver != 1 {
		t.Errorf("first work = %s v%d", works[0].Tag, works[0].Ver)
	}
	if works[3].Tag != "wip" {
		t.Errorf("non-default tag should sort last: %v", works[3].Tag)
	}

	var alice *Work
	for _, work := range works {
		if work.User == "alice" {
			alice = work
		}
	}
	if alice == nil || alice.Ver != 3 {
		t.Fatalf("per-user work not discovered: %v", alice)
	}
}

func TestFindNextVersionNumeric(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")
	testsupport.TouchFiles(t,
		filepath.Join(wd.Path, "hero_main_v001.ma"),
		filepath.Join(wd.Path, "hero_main_v002.ma"),
		filepath.Join(wd.Path, "hero_main_v009.ma"),
		filepath.Join(wd.Path, "hero_main_v010.ma"),
	)

	next, err := p.FindNextVersion(context.Background(), wd, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if next != 11 {
		t.Fatalf("next version = %d, want 11", next)
	}
}

func TestFindNextVersionEmptyDir(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")

	next, err := p.FindNextVersion(context.Background(), wd, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if next != 1 {
		t.Fatalf("next version = %d, want 1", next)
	}
}

func TestFindNextVersionSharedPool(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "bob")
	testsupport.TouchFiles(t,
		filepath.Join(wd.Entity.Path, "maya", "rig", "users", "alice", "hero_main_v004.ma"),
	)

	// Shared versioning pools alice's versions into bob's next.
	next, err := p.FindNextVersion(context.Background(), wd, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if next != 5 {
		t.Fatalf("pooled next version = %d, want 5", next)
	}
}

func TestFindNextVersionPerUserScope(t *testing.T) {
	p, _ := newTestPipeline(t, testsupport.WithSharedVersioning(false))
	wd := heroWorkDir(t, p, "bob")
	testsupport.TouchFiles(t,
		filepath.Join(wd.Entity.Path, "maya", "rig", "users", "alice", "hero_main_v004.ma"),
		filepath.Join(wd.Entity.Path, "maya", "rig", "users", "bob", "hero_main_v001.ma"),
	)

	next, err := p.FindNextVersion(context.Background(), wd, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if next != 2 {
		t.Fatalf("per-user next version = %d, want 2", next)
	}
}

func TestLatestWork(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")
	testsupport.TouchFiles(t,
		filepath.Join(wd.Path, "hero_main_v001.ma"),
		filepath.Join(wd.Path, "hero_main_v010.ma"),
		filepath.Join(wd.Path, "hero_wip_v020.ma"),
	)

	latest, err := p.LatestWork(context.Background(), wd, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.Ver != 10 || latest.Tag != "main" {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestSaveNextVersionInvalidates(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")
	testsupport.TouchFiles(t, filepath.Join(wd.Path, "hero_main_v001.ma"))
	ctx := context.Background()

	// Prime the cache.
	if _, err := p.Works(ctx, wd, false); err != nil {
		t.Fatal(err)
	}

	saved, err := p.SaveNextVersion(ctx, wd, "", "", func(ctx context.Context, path string) error {
		testsupport.TouchFiles(t, path)
		return nil
	})
	if err != nil {
		t.Fatalf("SaveNextVersion: %v", err)
	}
	if saved.Ver != 2 {
		t.Fatalf("saved version = %d, want 2", saved.Ver)
	}

	works, err := p.Works(ctx, wd, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(works) != 2 {
		t.Fatalf("save should invalidate the listing: %d works", len(works))
	}
}

func TestSaveNextVersionCallbackFailure(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")

	_, err := p.SaveNextVersion(context.Background(), wd, "", "", func(ctx context.Context, path string) error {
		return errors.New("disk full")
	})
	if err == nil {
		t.Fatal("callback failure should propagate")
	}
	if !errors.Is(err, services.ErrExternalSource) {
		t.Errorf("expected external source error, got %v", err)
	}
}
