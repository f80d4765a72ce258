package pipeline

import (
	"context"
	"fmt"
	"sort"

	"slate/internal/logging"
	"slate/internal/pathcache"
	"slate/internal/services"
	"slate/internal/template"
)

const (
	sourceDisk    = "disk"
	sourceTracker = "tracker"
)

// OutputTypes returns the declared output template names in declared order.
func (p *Pipeline) OutputTypes() []string {
	out := make([]string, len(p.outputNames))
	copy(out, p.outputNames)
	return out
}

// Output renders an artifact path for the entity from the given template
// and tokens (task, output_name, ver, extn and whatever else the template
// requires). The version may be supplied unpadded.
func (p *Pipeline) Output(e *Entity, templateName string, tokens map[string]string) (*Output, error) {
	tmpl, ok := p.engine.Template(templateName)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "output",
			fmt.Sprintf("unknown output template %q", templateName), nil)
	}

	data := cloneData(tokens)
	data["entity_path"] = e.Path
	data["entity"] = e.Name()
	rendered, err := tmpl.Render(data)
	if err != nil {
		return nil, err
	}
	return p.outputFromData(e, tmpl, rendered, data, sourceDisk)
}

// OutputFromPath parses a path against the output templates.
func (p *Pipeline) OutputFromPath(pathStr string) (*Output, error) {
	match, err := p.engine.Parse(pathStr, p.outputNames...)
	if err != nil {
		return nil, err
	}
	entity, err := p.EntityFromPath(match.Data["entity_path"])
	if err != nil {
		return nil, err
	}
	return p.outputFromData(entity, match.Template, template.NormPath(pathStr), match.Data, sourceDisk)
}

func (p *Pipeline) outputFromData(e *Entity, tmpl *template.Template, pathStr string, data map[string]string, source string) (*Output, error) {
	ver := 0
	if raw, present := data["ver"]; present {
		n, err := template.ParseVersion(raw)
		if err != nil {
			return nil, err
		}
		ver = n
		data["ver"] = p.engine.PadVersion(n)
	}
	return &Output{
		Entity: e,
		Task:   data["task"],
		Type:   tmpl.Name,
		Name:   data["output_name"],
		Tag:    data["tag"],
		Ver:    ver,
		Extn:   data["extn"],
		Path:   pathStr,
		Source: source,
		Seq:    tmpl.IsSequence(),
		data:   data,
	}, nil
}

// Outputs lists the entity's published and cached artifacts, merging disk
// discovery with tracker records by path. Disk and tracker listings are
// cached independently under their own namespaces.
func (p *Pipeline) Outputs(ctx context.Context, e *Entity, force bool) ([]*Output, error) {
	outputs, err := p.diskOutputs(ctx, e, force)
	if err != nil {
		return nil, err
	}

	if p.tracker != nil && p.cfg.Tracker.Enabled {
		tracked, err := p.trackerOutputs(ctx, e, force)
		if err != nil {
			return nil, err
		}
		byPath := make(map[string]struct{}, len(outputs))
		for _, out := range outputs {
			byPath[out.Path] = struct{}{}
		}
		for _, out := range tracked {
			if _, dup := byPath[out.Path]; dup {
				continue
			}
			outputs = append(outputs, out)
		}
	}

	p.SortOutputs(outputs)
	return outputs, nil
}

func (p *Pipeline) diskOutputs(ctx context.Context, e *Entity, force bool) ([]*Output, error) {
	return pathcache.Obtain(ctx, p.cache, pathcache.NamespaceDisk, e.Path, force,
		func(ctx context.Context) ([]*Output, error) {
			seed := map[string]string{"entity_path": e.Path, "entity": e.Name()}
			var outputs []*Output
			for _, name := range p.outputNames {
				tmpl, ok := p.engine.Template(name)
				if !ok {
					continue
				}
				paths, err := p.globTemplate(tmpl, seed)
				if err != nil {
					return nil, services.Wrap(services.ErrExternalSource, "pipeline", "scan outputs", "", err)
				}
				for _, candidate := range paths {
					data, err := tmpl.Parse(candidate)
					if err != nil {
						continue
					}
					out, err := p.outputFromData(e, tmpl, candidate, data, sourceDisk)
					if err != nil {
						continue
					}
					outputs = append(outputs, out)
				}
			}
			return outputs, nil
		})
}

func (p *Pipeline) trackerOutputs(ctx context.Context, e *Entity, force bool) ([]*Output, error) {
	return pathcache.Obtain(ctx, p.cache, pathcache.NamespaceTracker, e.Path, force,
		func(ctx context.Context) ([]*Output, error) {
			paths, err := p.tracker.PublishedFilePaths(ctx, e.Path)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalSource, "pipeline", "find published files", "", err)
			}
			var outputs []*Output
			for _, candidate := range paths {
				match, err := p.engine.Parse(candidate, p.outputNames...)
				if err != nil {
					p.logger.Debug("tracker path matches no output template",
						logging.String(logging.FieldEntity, e.Name()),
						logging.String(logging.FieldPath, candidate))
					continue
				}
				out, err := p.outputFromData(e, match.Template, template.NormPath(candidate), match.Data, sourceTracker)
				if err != nil {
					continue
				}
				outputs = append(outputs, out)
			}
			return outputs, nil
		})
}

// SortWorks orders works latest-first for listings: task priority per the
// entity profile, then version descending, then path.
func (p *Pipeline) SortWorks(works []*Work) {
	sort.SliceStable(works, func(i, j int) bool {
		a, b := works[i], works[j]
		ap := p.cfg.TaskPriority(a.WorkDir.Entity.Profile(), a.WorkDir.Task)
		bp := p.cfg.TaskPriority(b.WorkDir.Entity.Profile(), b.WorkDir.Task)
		if ap != bp {
			return ap < bp
		}
		if a.Ver != b.Ver {
			return a.Ver > b.Ver
		}
		return a.Path < b.Path
	})
}

// SortOutputs orders outputs latest-first: task priority per the entity
// profile, then version descending, then path.
func (p *Pipeline) SortOutputs(outputs []*Output) {
	sort.SliceStable(outputs, func(i, j int) bool {
		a, b := outputs[i], outputs[j]
		ap := p.cfg.TaskPriority(a.Entity.Profile(), a.Task)
		bp := p.cfg.TaskPriority(b.Entity.Profile(), b.Task)
		if ap != bp {
			return ap < bp
		}
		if a.Ver != b.Ver {
			return a.Ver > b.Ver
		}
		return a.Path < b.Path
	})
}
