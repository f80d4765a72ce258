package config

const (
	defaultJobRoot        = "~/jobs"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"
	defaultTrackerTimeout = 30
	defaultVerPadding     = 3
	defaultTag            = "main"
)

// Default returns a Project populated with the built-in template set and
// token rules. Projects normally override most of this from their own file.
func Default() Project {
	return Project{
		JobRoot: defaultJobRoot,
		Templates: []TemplateDef{
			{Name: "asset_entity_path", Pattern: "{job_path}/assets/{asset_type}/{asset}"},
			{Name: "shot_entity_path", Pattern: "{job_path}/shots/{sequence}/{shot}"},
			{Name: "sequence_path", Pattern: "{job_path}/shots/{sequence}"},
			{Name: "work_dir", Pattern: "{entity_path}/{dcc}/{task}"},
			{Name: "work", Pattern: "{work_dir}[/users/{user}]/{entity}_{tag}_v{ver}.{extn}"},
			{Name: "publish", Pattern: "{entity_path}/publish/{task}/{output_name}/v{ver}/{entity}_{output_name}_v{ver}.{extn}"},
			{Name: "publish_alt1", Pattern: "{entity_path}/publish/{task}/v{ver}/{entity}_{task}_v{ver}.{extn}"},
			{Name: "render", Pattern: "{entity_path}/renders/{task}/{output_name}/v{ver}/{entity}_{output_name}_v{ver}.%04d.{extn}"},
			{Name: "mov", Pattern: "{entity_path}/movs/{task}/{output_name}/{entity}_{output_name}_v{ver}.{extn}"},
			{Name: "cache", Pattern: "{entity_path}/caches/{task}/{output_type}/{output_name}/{entity}_{output_name}_v{ver}.{extn}"},
		},
		Tokens: map[string]TokenRule{
			"job_path":    {Path: true},
			"entity_path": {Path: true},
			"work_dir":    {Path: true},
			"ver":         {Len: defaultVerPadding, IsDigit: true},
			"tag":         {Default: defaultTag, Filter: "-_"},
			"task":        {Filter: "-_"},
			"user":        {Filter: "-_"},
			"asset":       {Filter: "-_"},
			"asset_type":  {Filter: "-_"},
			"sequence":    {Filter: "-_"},
			"shot":        {Filter: "-_"},
			"entity":      {Filter: "-_"},
			"output_name": {Filter: "-_"},
			"output_type": {Filter: "-_"},
		},
		Defaults: Defaults{
			Extn: map[string]string{
				"blender":   "blend",
				"hou":       "hip",
				"maya":      "ma",
				"nuke":      "nk",
				"substance": "spp",
			},
		},
		Tasks: map[string][]string{
			"asset": {"model", "rig", "texture", "lookdev"},
			"shot":  {"layout", "anim", "cfx", "fx", "light", "comp"},
		},
		Pipeline: Pipeline{
			SharedVersioning: true,
		},
		Tracker: Tracker{
			RequestTimeout: defaultTrackerTimeout,
		},
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
