package tracker

import (
	"context"
	"log/slog"

	"slate/internal/logging"
	"slate/internal/services"
)

// Mirror persists tracker results across processes. Implemented by the
// trackerstore package; nil disables mirroring.
type Mirror interface {
	Replace(ctx context.Context, kind, key string, paths []string) error
	List(ctx context.Context, kind, key string) ([]string, bool, error)
}

// Mirror record kinds.
const (
	MirrorEntities  = "entities"
	MirrorPublished = "published"
)

// Source adapts the client to the path model's collaborator contract:
// queries return paths only. When a mirror is attached, successful results
// are written through to it and it answers when the service is down.
type Source struct {
	client *Client
	mirror Mirror
	logger *slog.Logger
}

// NewSource wraps a client. mirror may be nil.
func NewSource(client *Client, mirror Mirror, logger *slog.Logger) *Source {
	return &Source{
		client: client,
		mirror: mirror,
		logger: logging.NewComponentLogger(logger, "tracker"),
	}
}

// EntityPaths lists the tracked entity paths for a job.
func (s *Source) EntityPaths(ctx context.Context, jobPath string) ([]string, error) {
	entities, err := s.client.FindEntities(ctx, jobPath)
	if err != nil {
		return s.fallback(ctx, MirrorEntities, jobPath, err)
	}
	paths := make([]string, 0, len(entities))
	for _, e := range entities {
		paths = append(paths, e.Path)
	}
	s.writeThrough(ctx, MirrorEntities, jobPath, paths)
	return paths, nil
}

// PublishedFilePaths lists the published artifact paths on an entity.
func (s *Source) PublishedFilePaths(ctx context.Context, entityPath string) ([]string, error) {
	files, err := s.client.FindPublishedFiles(ctx, entityPath)
	if err != nil {
		return s.fallback(ctx, MirrorPublished, entityPath, err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	s.writeThrough(ctx, MirrorPublished, entityPath, paths)
	return paths, nil
}

func (s *Source) writeThrough(ctx context.Context, kind, key string, paths []string) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Replace(ctx, kind, key, paths); err != nil {
		s.logger.Warn("mirror write failed",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err))
	}
}

// fallback serves the mirrored result when the live query failed for a
// reason worth retrying. Not-found and validation failures pass through.
func (s *Source) fallback(ctx context.Context, kind, key string, cause error) ([]string, error) {
	if s.mirror == nil || !services.Retryable(cause) {
		return nil, cause
	}
	paths, found, err := s.mirror.List(ctx, kind, key)
	if err != nil || !found {
		return nil, cause
	}
	s.logger.Warn("serving mirrored tracker records",
		logging.String(logging.FieldCacheKey, key),
		logging.Error(cause))
	return paths, nil
}
