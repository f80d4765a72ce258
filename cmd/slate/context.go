package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/pathcache"
	"slate/internal/pipeline"
	"slate/internal/services/tracker"
	"slate/internal/template"
	"slate/internal/trackerstore"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Project
	configErr  error

	buildOnce sync.Once
	logger    *slog.Logger
	engine    *template.Engine
	cache     *pathcache.Cache
	pipe      *pipeline.Pipeline
	client    *tracker.Client
	source    *tracker.Source
	store     *trackerstore.Store
	buildErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, jsonFlag: jsonFlag}
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) ensureConfig() (*config.Project, error) {
	c.configOnce.Do(func() {
		var explicit string
		if c.configFlag != nil {
			explicit = strings.TrimSpace(*c.configFlag)
		}
		path, err := config.ResolvePath(explicit, "")
		if err != nil {
			c.configErr = err
			return
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// ensurePipeline builds the engine, cache and path model once per
// invocation. The tracker source and its mirror attach only when the
// config enables them.
func (c *commandContext) ensurePipeline() (*pipeline.Pipeline, error) {
	c.buildOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.buildErr = err
			return
		}

		var outputs []string
		if cfg.Log.Path != "" {
			outputs = []string{cfg.Log.Path}
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Log.Level,
			Format:      cfg.Log.Format,
			OutputPaths: outputs,
		})
		if err != nil {
			c.buildErr = err
			return
		}
		c.logger = logger

		engine, err := template.NewEngine(cfg, logger)
		if err != nil {
			c.buildErr = err
			return
		}
		c.engine = engine
		c.cache = pathcache.New(logger, pathcache.WithDebug(cfg.Cache.Debug))

		var opts []pipeline.Option
		if cfg.Tracker.Enabled {
			c.client = tracker.NewClient(cfg.Tracker, logger)
			var mirror tracker.Mirror
			if cfg.Cache.StorePath != "" {
				store, err := trackerstore.Open(cfg.Cache.StorePath)
				if err != nil {
					c.buildErr = err
					return
				}
				c.store = store
				mirror = store
			}
			c.source = tracker.NewSource(c.client, mirror, logger)
			opts = append(opts, pipeline.WithTracker(c.source))
		}
		c.pipe = pipeline.New(cfg, engine, c.cache, logger, opts...)
	})
	return c.pipe, c.buildErr
}

func (c *commandContext) ensureEngine() (*template.Engine, error) {
	if _, err := c.ensurePipeline(); err != nil {
		return nil, err
	}
	return c.engine, nil
}

// ensureStore opens the mirror directly for cache maintenance commands,
// which work without a pipeline or a reachable tracker.
func (c *commandContext) ensureStore() (*trackerstore.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.StorePath == "" {
		return nil, errMirrorDisabled
	}
	store, err := trackerstore.Open(cfg.Cache.StorePath)
	if err != nil {
		return nil, err
	}
	c.store = store
	return store, nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for cur := cmd; cur != nil; cur = cur.Parent() {
		if cur.Annotations != nil && cur.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
