package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/pathcache"
	"slate/internal/services"
	"slate/internal/template"
)

// Tracker is the production-tracking collaborator the path model consumes.
// It returns paths only; the pipeline parses them back into typed objects,
// so either source can resolve the same logical record.
type Tracker interface {
	EntityPaths(ctx context.Context, jobPath string) ([]string, error)
	PublishedFilePaths(ctx context.Context, entityPath string) ([]string, error)
}

// Pipeline binds the template engine, the path cache and the tracker into
// the path model. Read-only after construction and safe for concurrent use.
type Pipeline struct {
	cfg     *config.Project
	engine  *template.Engine
	cache   *pathcache.Cache
	tracker Tracker
	user    string
	logger  *slog.Logger

	outputNames []string
}

// Option configures pipeline construction.
type Option func(*Pipeline)

// WithTracker attaches the production-tracking client.
func WithTracker(t Tracker) Option {
	return func(p *Pipeline) { p.tracker = t }
}

// WithUser overrides the pipeline user for per-user work dirs.
func WithUser(name string) Option {
	return func(p *Pipeline) { p.user = sanitizeUser(name) }
}

// New constructs the path model for one project.
func New(cfg *config.Project, engine *template.Engine, cache *pathcache.Cache, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		engine: engine,
		cache:  cache,
		user:   CurrentUser(),
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, tmpl := range engine.Templates() {
		if tmpl.Kind == template.KindDir || tmpl.Name == "work" {
			continue
		}
		p.outputNames = append(p.outputNames, tmpl.Name)
	}
	return p
}

// User returns the pipeline user.
func (p *Pipeline) User() string { return p.user }

// Engine returns the template engine the model renders through.
func (p *Pipeline) Engine() *template.Engine { return p.engine }

// Job addresses a production by name under the configured job root.
func (p *Pipeline) Job(name string) Job {
	return Job{
		Path: template.NormPath(path.Join(p.cfg.JobRoot, name)),
		Name: name,
	}
}

// JobFromPath resolves the job owning any path under the job root.
func (p *Pipeline) JobFromPath(pathStr string) (Job, error) {
	normed := template.NormPath(pathStr)
	root := template.NormPath(p.cfg.JobRoot)
	rel := strings.TrimPrefix(normed, root+"/")
	if rel == normed || rel == "" {
		return Job{}, services.Wrap(services.ErrValidation, "pipeline", "resolve job",
			fmt.Sprintf("%s is not under job root %s", normed, root), nil)
	}
	name := rel
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		name = rel[:i]
	}
	return Job{Path: root + "/" + name, Name: name}, nil
}

// entityTemplates returns the declared entity templates by kind.
func (p *Pipeline) entityTemplates() map[EntityKind]*template.Template {
	out := make(map[EntityKind]*template.Template, 2)
	for _, kind := range []EntityKind{KindAsset, KindShot} {
		if tmpl, ok := p.engine.Template(entityTemplateName(kind)); ok {
			out[kind] = tmpl
		}
	}
	return out
}

// EntityFromPath parses a path against the entity templates.
func (p *Pipeline) EntityFromPath(pathStr string) (*Entity, error) {
	templates := p.entityTemplates()
	names := make([]string, 0, len(templates))
	for _, kind := range []EntityKind{KindAsset, KindShot} {
		if tmpl, ok := templates[kind]; ok {
			names = append(names, tmpl.Name)
		}
	}
	if len(names) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "entity from path",
			"no entity templates declared", nil)
	}

	match, err := p.engine.Parse(pathStr, names...)
	if err != nil {
		return nil, &NotAnEntityError{Path: template.NormPath(pathStr), Reason: err.Error()}
	}

	kind := EntityKind(strings.TrimSuffix(match.Template.Name, "_entity_path"))
	jobPath := match.Data["job_path"]
	if jobPath == "" {
		return nil, &NotAnEntityError{
			Path:   template.NormPath(pathStr),
			Reason: fmt.Sprintf("template %s does not expose job_path", match.Template.Name),
		}
	}
	return &Entity{
		Job:  Job{Path: jobPath, Name: path.Base(jobPath)},
		Path: template.NormPath(pathStr),
		Kind: kind,
		tmpl: match.Template.Name,
		data: match.Data,
	}, nil
}

// Entity renders an entity of the given kind from its identifying tokens
// (asset_type/asset or sequence/shot).
func (p *Pipeline) Entity(job Job, kind EntityKind, tokens map[string]string) (*Entity, error) {
	data := cloneData(tokens)
	data["job_path"] = job.Path
	rendered, err := p.engine.Render(entityTemplateName(kind), data)
	if err != nil {
		return nil, err
	}
	return &Entity{
		Job:  job,
		Path: rendered,
		Kind: kind,
		tmpl: entityTemplateName(kind),
		data: data,
	}, nil
}

// Entities discovers the job's entities of one kind. Disk scans feed the
// disk namespace; when the tracker is authoritative its records are used
// instead, cached under the tracker namespace.
func (p *Pipeline) Entities(ctx context.Context, job Job, kind EntityKind, force bool) ([]*Entity, error) {
	tmpl, ok := p.engine.Template(entityTemplateName(kind))
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "entities",
			fmt.Sprintf("no %s template declared", entityTemplateName(kind)), nil)
	}

	if p.cfg.Tracker.Authoritative && p.tracker != nil {
		ctx = services.WithJob(ctx, job.Name)
		// Logical key nested under the job path so job-level cascades
		// cover it; one key per kind.
		key := job.Path + "/entities/" + string(kind)
		return pathcache.Obtain(ctx, p.cache, pathcache.NamespaceTracker, key, force,
			func(ctx context.Context) ([]*Entity, error) {
				paths, err := p.tracker.EntityPaths(ctx, job.Path)
				if err != nil {
					return nil, services.Wrap(services.ErrExternalSource, "pipeline", "find entities", "", err)
				}
				return p.entitiesFromPaths(paths, kind), nil
			})
	}

	seed := map[string]string{"job_path": job.Path}
	roots := tmpl.ScanRoots(seed)
	if len(roots) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "entities",
			fmt.Sprintf("template %s cannot be scanned", tmpl.Name), nil)
	}
	// One cache key covers every variation's root; optional groups in an
	// entity template would otherwise leave the extra roots unkeyed.
	key := commonScanDir(roots)
	return pathcache.Obtain(ctx, p.cache, pathcache.NamespaceDisk, key, force,
		func(ctx context.Context) ([]*Entity, error) {
			paths, err := p.globTemplate(tmpl, seed)
			if err != nil {
				return nil, services.Wrap(services.ErrExternalSource, "pipeline", "scan entities", "", err)
			}
			return p.entitiesFromPaths(paths, kind), nil
		})
}

// commonScanDir returns the deepest directory shared by every scan root,
// so a listing cached under it is evicted whenever any root's ancestry is
// invalidated.
func commonScanDir(roots []template.ScanRoot) string {
	dir := roots[0].Dir
	for _, root := range roots[1:] {
		for dir != root.Dir && !strings.HasPrefix(root.Dir, dir+"/") {
			parent := path.Dir(dir)
			if parent == dir {
				return dir
			}
			dir = parent
		}
	}
	return dir
}

func (p *Pipeline) entitiesFromPaths(paths []string, kind EntityKind) []*Entity {
	var entities []*Entity
	for _, candidate := range paths {
		entity, err := p.EntityFromPath(candidate)
		if err != nil || entity.Kind != kind {
			continue
		}
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].Path < entities[j].Path })
	return entities
}

// RecordEntityCreated invalidates discovery state after an entity appears.
func (p *Pipeline) RecordEntityCreated(e *Entity) {
	p.cache.Invalidate(pathcache.NamespaceDisk, e.Job.Path, true)
	p.cache.Invalidate(pathcache.NamespaceTracker, e.Job.Path, true)
	p.logger.Debug("entity created",
		logging.String(logging.FieldJob, e.Job.Name),
		logging.String(logging.FieldEntity, e.Name()))
}

// RecordSave invalidates the work dir's cached listings after a save.
func (p *Pipeline) RecordSave(w *Work) {
	p.cache.Invalidate(pathcache.NamespaceDisk, w.WorkDir.Path, true)
	p.logger.Debug("work saved",
		logging.String(logging.FieldTask, w.WorkDir.Task),
		logging.String(logging.FieldPath, w.Path))
}

// RecordPublish invalidates the entity's cached outputs after a publish.
func (p *Pipeline) RecordPublish(o *Output) {
	p.cache.Invalidate(pathcache.NamespaceDisk, o.Entity.Path, true)
	p.cache.Invalidate(pathcache.NamespaceTracker, o.Entity.Path, true)
	p.logger.Debug("output published",
		logging.String(logging.FieldEntity, o.Entity.Name()),
		logging.String(logging.FieldPath, o.Path))
}

// Refresh drops every cached key under path in both namespaces. This backs
// explicit user-requested refreshes.
func (p *Pipeline) Refresh(pathStr string) {
	normed := template.NormPath(pathStr)
	p.cache.Invalidate(pathcache.NamespaceDisk, normed, true)
	p.cache.Invalidate(pathcache.NamespaceTracker, normed, true)
}
