package pipeline

import "path"

// PathObject is the common face of every path-model variant. Each object
// knows which template produced it and carries the token set needed to
// re-render itself.
type PathObject interface {
	AbsPath() string
	TemplateName() string
	TokenData() map[string]string
}

// Job is one production under the job root.
type Job struct {
	Path string
	Name string
}

// AbsPath implements PathObject for the job root directory.
func (j Job) AbsPath() string { return j.Path }

// EntityKind distinguishes addressable units of work.
type EntityKind string

const (
	KindAsset EntityKind = "asset"
	KindShot  EntityKind = "shot"
)

// entityTemplateName maps a kind to its template by convention.
func entityTemplateName(kind EntityKind) string {
	return string(kind) + "_entity_path"
}

// Entity is an addressable unit of work (asset or shot) within a job.
// Immutable once constructed; child listings live in the cache, not here.
type Entity struct {
	Job  Job
	Path string
	Kind EntityKind

	tmpl string
	data map[string]string
}

// Name returns the entity's own identifier (asset or shot name).
func (e *Entity) Name() string {
	if name := e.data[string(e.Kind)]; name != "" {
		return name
	}
	return path.Base(e.Path)
}

// Profile returns the task-list profile this entity validates against.
func (e *Entity) Profile() string { return string(e.Kind) }

func (e *Entity) AbsPath() string      { return e.Path }
func (e *Entity) TemplateName() string { return e.tmpl }

func (e *Entity) TokenData() map[string]string { return cloneData(e.data) }

// WorkDir is a task-scoped working directory for one entity.
type WorkDir struct {
	Entity *Entity
	Task   string
	DCC    string
	User   string
	Path   string

	data map[string]string
}

func (w *WorkDir) AbsPath() string      { return w.Path }
func (w *WorkDir) TemplateName() string { return "work_dir" }

func (w *WorkDir) TokenData() map[string]string { return cloneData(w.data) }

// seedData returns the discovery seed for scanning this work dir: its
// tokens minus user, so per-user subdirectories are discovered too.
func (w *WorkDir) seedData() map[string]string {
	seed := cloneData(w.data)
	delete(seed, "user")
	return seed
}

// Work is a versioned working file within a WorkDir.
type Work struct {
	WorkDir *WorkDir
	Tag     string
	Ver     int
	Extn    string
	User    string
	Path    string

	data map[string]string
}

func (w *Work) AbsPath() string      { return w.Path }
func (w *Work) TemplateName() string { return "work" }

func (w *Work) TokenData() map[string]string { return cloneData(w.data) }

// VerPadded returns the version at the project's fixed width.
func (w *Work) VerPadded() string { return w.data["ver"] }

// Output is a published or cached artifact derived from a Work. Type is
// the template name (publish, render, mov, cache); Source records whether
// disk or the tracking service produced the record.
type Output struct {
	Entity *Entity
	Task   string
	Type   string
	Name   string
	Tag    string
	Ver    int
	Extn   string
	Path   string
	Source string
	Seq    bool

	data map[string]string
}

func (o *Output) AbsPath() string      { return o.Path }
func (o *Output) TemplateName() string { return o.Type }

func (o *Output) TokenData() map[string]string { return cloneData(o.data) }

func cloneData(data map[string]string) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
