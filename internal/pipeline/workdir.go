package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"slate/internal/pathcache"
	"slate/internal/services"
	"slate/internal/template"
)

// WorkDir derives the task-scoped working directory for an entity. An
// empty user renders the shared (non-user) directory. The task must be
// declared for the entity's profile when the project lists tasks.
func (p *Pipeline) WorkDir(e *Entity, task, dcc, user string) (*WorkDir, error) {
	if !p.cfg.KnownTask(e.Profile(), task) {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "work dir",
			fmt.Sprintf("task %q is not declared for %s entities", task, e.Profile()), nil)
	}

	data := map[string]string{
		"entity_path": e.Path,
		"entity":      e.Name(),
		"dcc":         dcc,
		"task":        task,
	}
	if user != "" {
		data["user"] = sanitizeUser(user)
	}
	rendered, err := p.engine.Render("work_dir", data)
	if err != nil {
		return nil, err
	}
	return &WorkDir{
		Entity: e,
		Task:   task,
		DCC:    dcc,
		User:   data["user"],
		Path:   rendered,
		data:   data,
	}, nil
}

// Work renders a specific version under the work dir. An empty tag takes
// the token's configured default; an empty extension takes the DCC's
// default. The version must already be resolved (see NextWork).
func (p *Pipeline) Work(wd *WorkDir, tag string, ver int, extn string) (*Work, error) {
	if ver <= 0 {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "work",
			fmt.Sprintf("version %d is not positive", ver), nil)
	}
	if extn == "" {
		extn = p.cfg.Defaults.Extn[wd.DCC]
		if extn == "" {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "work",
				fmt.Sprintf("no default extension for dcc %q", wd.DCC), nil)
		}
	}

	data := cloneData(wd.data)
	data["ver"] = strconv.Itoa(ver)
	data["extn"] = extn
	if tag != "" {
		data["tag"] = tag
	}
	rendered, err := p.engine.Render("work", data)
	if err != nil {
		return nil, err
	}

	data["ver"] = p.engine.PadVersion(ver)
	if tag == "" {
		tag = p.engine.Rule("tag").Default
		data["tag"] = tag
	}
	return &Work{
		WorkDir: wd,
		Tag:     tag,
		Ver:     ver,
		Extn:    extn,
		User:    wd.User,
		Path:    rendered,
		data:    data,
	}, nil
}

// WorkFromPath rebuilds the full object chain from a work file path.
func (p *Pipeline) WorkFromPath(pathStr string) (*Work, error) {
	match, err := p.engine.Parse(pathStr, "work")
	if err != nil {
		return nil, err
	}
	data := match.Data

	entity, err := p.EntityFromPath(data["entity_path"])
	if err != nil {
		return nil, err
	}

	wdTmpl, ok := p.engine.Template("work_dir")
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "work from path",
			"no work_dir template declared", nil)
	}
	wdData := make(map[string]string, len(data))
	for _, token := range wdTmpl.Tokens() {
		if value, present := data[token]; present {
			wdData[token] = value
		}
	}
	wdData["entity"] = entity.Name()
	wdPath, err := wdTmpl.Render(wdData)
	if err != nil {
		return nil, err
	}

	ver, err := template.ParseVersion(data["ver"])
	if err != nil {
		return nil, err
	}
	wd := &WorkDir{
		Entity: entity,
		Task:   data["task"],
		DCC:    data["dcc"],
		User:   data["user"],
		Path:   wdPath,
		data:   wdData,
	}
	return &Work{
		WorkDir: wd,
		Tag:     data["tag"],
		Ver:     ver,
		Extn:    data["extn"],
		User:    data["user"],
		Path:    template.NormPath(pathStr),
		data:    data,
	}, nil
}

// Works lists every saved version under the work dir, shared and per-user
// directories included. The listing is cached under the work dir's path.
func (p *Pipeline) Works(ctx context.Context, wd *WorkDir, force bool) ([]*Work, error) {
	tmpl, ok := p.engine.Template("work")
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "works",
			"no work template declared", nil)
	}
	return pathcache.Obtain(ctx, p.cache, pathcache.NamespaceDisk, wd.Path, force,
		func(ctx context.Context) ([]*Work, error) {
			paths, err := p.globTemplate(tmpl, wd.seedData())
			if err != nil {
				return nil, services.Wrap(services.ErrExternalSource, "pipeline", "scan works", "", err)
			}
			works := make([]*Work, 0, len(paths))
			for _, candidate := range paths {
				work, err := p.WorkFromPath(candidate)
				if err != nil {
					continue
				}
				works = append(works, work)
			}
			defaultTag := p.engine.Rule("tag").Default
			sort.Slice(works, func(i, j int) bool {
				a, b := works[i], works[j]
				if a.Tag != b.Tag {
					return tagLess(defaultTag, a.Tag, b.Tag)
				}
				if a.Ver != b.Ver {
					return a.Ver < b.Ver
				}
				return a.Path < b.Path
			})
			return works, nil
		})
}

// LatestWork returns the highest version for a tag, or nil when none exist.
// An empty tag takes the configured default.
func (p *Pipeline) LatestWork(ctx context.Context, wd *WorkDir, tag string, force bool) (*Work, error) {
	if tag == "" {
		tag = p.engine.Rule("tag").Default
	}
	works, err := p.Works(ctx, wd, force)
	if err != nil {
		return nil, err
	}
	var latest *Work
	for _, work := range works {
		if work.Tag != tag {
			continue
		}
		if !p.cfg.Pipeline.SharedVersioning && work.User != wd.User {
			continue
		}
		if latest == nil || work.Ver > latest.Ver {
			latest = work
		}
	}
	return latest, nil
}

// FindNextVersion returns max(existing versions)+1 for the tag, or 1 when
// none exist. Versions compare numerically. With shared versioning the
// pool spans every user on the task; otherwise it is scoped to the work
// dir's user.
func (p *Pipeline) FindNextVersion(ctx context.Context, wd *WorkDir, tag string, force bool) (int, error) {
	if tag == "" {
		tag = p.engine.Rule("tag").Default
	}
	works, err := p.Works(ctx, wd, force)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, work := range works {
		if work.Tag != tag {
			continue
		}
		if !p.cfg.Pipeline.SharedVersioning && work.User != wd.User {
			continue
		}
		if work.Ver >= next {
			next = work.Ver + 1
		}
	}
	return next, nil
}

// NextWork resolves the work at the next free version for the tag.
func (p *Pipeline) NextWork(ctx context.Context, wd *WorkDir, tag, extn string) (*Work, error) {
	ver, err := p.FindNextVersion(ctx, wd, tag, false)
	if err != nil {
		return nil, err
	}
	return p.Work(wd, tag, ver, extn)
}

// tagLess orders tags with the project default first, then alphabetically.
func tagLess(def, a, b string) bool {
	if a == def {
		return b != def
	}
	if b == def {
		return false
	}
	return a < b
}
