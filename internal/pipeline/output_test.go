package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"slate/internal/testsupport"
)

func TestCollapseFrame(t *testing.T) {
	cases := map[string]string{
		"/e/renders/beauty/hero_beauty_v001.1001.exr": "/e/renders/beauty/hero_beauty_v001.%04d.exr",
		"/e/renders/beauty/hero_beauty_v001.%04d.exr": "/e/renders/beauty/hero_beauty_v001.%04d.exr",
		"/e/movs/hero_beauty_v001.mov":                "/e/movs/hero_beauty_v001.mov",
	}
	for in, want := range cases {
		if got := collapseFrame(in); got != want {
			t.Errorf("collapseFrame(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutputRender(t *testing.T) {
	p, _ := newTestPipeline(t)
	job := p.Job("dune")
	entity := mustEntity(t, p, job, KindAsset, map[string]string{
		"asset_type": "char", "asset": "hero",
	})

	out, err := p.Output(entity, "publish", map[string]string{
		"task": "rig", "output_name": "proxy", "ver": "1", "extn": "ma",
	})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	want := entity.Path + "/publish/rig/proxy/v001/hero_proxy_v001.ma"
	if out.Path != want {
		t.Fatalf("output path = %q, want %q", out.Path, want)
	}
	if out.Type != "publish" || out.Name != "proxy" || out.Ver != 1 {
		t.Errorf("output fields: %+v", out)
	}

	parsed, err := p.OutputFromPath(out.Path)
	if err != nil {
		t.Fatalf("OutputFromPath: %v", err)
	}
	if parsed.Type != "publish" || parsed.Task != "rig" || parsed.Ver != 1 {
		t.Errorf("parsed output: %+v", parsed)
	}
}

func TestOutputsDiskDiscovery(t *testing.T) {
	p, _ := newTestPipeline(t)
	job := p.Job("dune")
	entity := mustEntity(t, p, job, KindAsset, map[string]string{
		"asset_type": "char", "asset": "hero",
	})
	testsupport.TouchFiles(t,
		filepath.Join(entity.Path, "publish", "rig", "proxy", "v001", "hero_proxy_v001.ma"),
		filepath.Join(entity.Path, "renders", "lookdev", "beauty", "v002", "hero_beauty_v002.1001.exr"),
		filepath.Join(entity.Path, "renders", "lookdev", "beauty", "v002", "hero_beauty_v002.1002.exr"),
	)

	outputs, err := p.Outputs(context.Background(), entity, false)
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("found %d outputs, want 2: %v", len(outputs), outputs)
	}

	byType := map[string]*Output{}
	for _, out := range outputs {
		byType[out.Type] = out
	}
	pub := byType["publish"]
	if pub == nil || pub.Task != "rig" || pub.Name != "proxy" || pub.Ver != 1 {
		t.Errorf("publish output: %+v", pub)
	}
	seq := byType["render"]
	if seq == nil || !seq.Seq || seq.Ver != 2 {
		t.Fatalf("render output: %+v", seq)
	}
	// Both frames collapse to one logical sequence path.
	if filepath.Base(seq.Path) != "hero_beauty_v002.%04d.exr" {
		t.Errorf("sequence path = %q", seq.Path)
	}
}

func TestOutputsMergeTrackerByPath(t *testing.T) {
	p, cfg := newTestPipeline(t, testsupport.WithTracker("http://tracker.test"))
	_ = cfg
	job := p.Job("dune")
	entity := mustEntity(t, p, job, KindAsset, map[string]string{
		"asset_type": "char", "asset": "hero",
	})

	diskPublish := filepath.Join(entity.Path, "publish", "rig", "proxy", "v001", "hero_proxy_v001.ma")
	testsupport.TouchFiles(t, diskPublish)

	tracker := &fakeTracker{publishedPaths: []string{
		// Already on disk: must not duplicate.
		diskPublish,
		// Tracker-only record.
		entity.Path + "/movs/rig/turntable/hero_turntable_v003.mov",
		// Unparseable: ignored.
		entity.Path + "/weird/thing.txt",
	}}
	p.tracker = tracker

	outputs, err := p.Outputs(context.Background(), entity, false)
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("found %d outputs, want 2: %v", len(outputs), outputs)
	}

	var mov *Output
	for _, out := range outputs {
		if out.Type == "mov" {
			mov = out
		}
	}
	if mov == nil || mov.Source != "tracker" || mov.Ver != 3 {
		t.Fatalf("tracker output: %+v", mov)
	}
	if tracker.publishedCalls != 1 {
		t.Errorf("tracker called %d times", tracker.publishedCalls)
	}

	// Cached: a second listing does not hit the tracker again.
	if _, err := p.Outputs(context.Background(), entity, false); err != nil {
		t.Fatal(err)
	}
	if tracker.publishedCalls != 1 {
		t.Errorf("tracker listing should be cached, called %d times", tracker.publishedCalls)
	}
}

func TestPublishCopiesAndInvalidates(t *testing.T) {
	p, _ := newTestPipeline(t)
	wd := heroWorkDir(t, p, "")
	workPath := filepath.Join(wd.Path, "hero_main_v002.ma")
	testsupport.WriteFile(t, workPath, "scene payload")
	ctx := context.Background()

	// Prime the output cache while it is empty.
	entity := wd.Entity
	outputs, err := p.Outputs(ctx, entity, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 0 {
		t.Fatalf("unexpected outputs: %v", outputs)
	}

	work, err := p.WorkFromPath(workPath)
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Publish(ctx, work, "publish", "proxy")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := entity.Path + "/publish/rig/proxy/v002/hero_proxy_v002.ma"
	if out.Path != want {
		t.Fatalf("publish path = %q, want %q", out.Path, want)
	}
	payload, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "scene payload" {
		t.Errorf("published payload = %q", payload)
	}

	outputs, err = p.Outputs(ctx, entity, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 1 || outputs[0].Type != "publish" {
		t.Fatalf("publish should invalidate the listing: %v", outputs)
	}
}

func TestSortOutputsTaskPriorityThenVersion(t *testing.T) {
	p, _ := newTestPipeline(t)
	job := p.Job("dune")
	entity := mustEntity(t, p, job, KindShot, map[string]string{
		"sequence": "sq010", "shot": "sh010",
	})

	mk := func(task string, ver int) *Output {
		out, err := p.Output(entity, "publish", map[string]string{
			"task": task, "output_name": "main", "ver": p.engine.PadVersion(ver), "extn": "abc",
		})
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	outputs := []*Output{mk("comp", 1), mk("anim", 1), mk("anim", 3), mk("layout", 2)}
	p.SortOutputs(outputs)

	got := []string{}
	for _, out := range outputs {
		got = append(got, out.Task+":"+out.data["ver"])
	}
	want := []string{"layout:002", "anim:003", "anim:001", "comp:001"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", got, want)
		}
	}
}
