package pipeline

import (
	"context"
	"path"

	"slate/internal/fileutil"
	"slate/internal/services"
)

// Scene is the content-creation-application collaborator: it exposes the
// scene currently open, if any.
type Scene interface {
	CurrentPath() (string, bool)
}

// SaveFunc persists a scene to the given path. The collaborator owns the
// actual write; the pipeline only resolves where it goes.
type SaveFunc func(ctx context.Context, path string) error

// CurrentWork resolves the open scene to its Work, or an error when no
// scene is open or the scene lives outside the pipeline.
func (p *Pipeline) CurrentWork(scene Scene) (*Work, error) {
	pathStr, ok := scene.CurrentPath()
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "current work",
			"no scene open", nil)
	}
	return p.WorkFromPath(pathStr)
}

// SaveNextVersion resolves the next free version under the work dir,
// invokes the collaborator's save callback on it, and invalidates the
// affected cache keys.
func (p *Pipeline) SaveNextVersion(ctx context.Context, wd *WorkDir, tag, extn string, save SaveFunc) (*Work, error) {
	work, err := p.NextWork(ctx, wd, tag, extn)
	if err != nil {
		return nil, err
	}
	if err := fileutil.EnsureDir(path.Dir(work.Path)); err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "pipeline", "save work", "", err)
	}
	if err := save(ctx, work.Path); err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "pipeline", "save work", "", err)
	}
	p.RecordSave(work)
	return work, nil
}

// Publish copies a work file to its artifact path under the given output
// template, with integrity verification, and invalidates the entity's
// cached outputs.
func (p *Pipeline) Publish(ctx context.Context, work *Work, templateName, outputName string) (*Output, error) {
	tokens := map[string]string{
		"task":        work.WorkDir.Task,
		"output_name": outputName,
		"tag":         work.Tag,
		"ver":         work.VerPadded(),
		"extn":        work.Extn,
	}
	out, err := p.Output(work.WorkDir.Entity, templateName, tokens)
	if err != nil {
		return nil, err
	}
	if err := fileutil.CopyFileVerified(work.Path, out.Path); err != nil {
		return nil, services.Wrap(services.ErrExternalSource, "pipeline", "publish", "", err)
	}
	p.RecordPublish(out)
	return out, nil
}
