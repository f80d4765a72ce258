package pipeline

import (
	"fmt"
	"regexp"
	"sort"

	"slate/internal/fileutil"
	"slate/internal/template"
)

var frameSuffixRe = regexp.MustCompile(`\.(\d+)\.([^./]+)$`)

// collapseFrame replaces a trailing frame number with its %0Nd placeholder
// so every frame of a sequence dedupes to one logical path.
func collapseFrame(pathStr string) string {
	m := frameSuffixRe.FindStringSubmatch(pathStr)
	if m == nil {
		return pathStr
	}
	placeholder := fmt.Sprintf(".%%0%dd.%s", len(m[1]), m[2])
	return pathStr[:len(pathStr)-len(m[0])] + placeholder
}

// globTemplate discovers every path on disk matching the template given a
// partial token seed. The walk is bounded by the template's scan roots;
// candidates at the final level are kept only if the template parses them.
func (p *Pipeline) globTemplate(tmpl *template.Template, seed map[string]string) ([]string, error) {
	wantFiles := tmpl.Kind != template.KindDir
	seen := make(map[string]struct{})
	var paths []string

	for _, root := range tmpl.ScanRoots(seed) {
		if root.Depth == 0 {
			if fileutil.Exists(root.Dir) {
				if _, dup := seen[root.Dir]; !dup {
					seen[root.Dir] = struct{}{}
					paths = append(paths, root.Dir)
				}
			}
			continue
		}

		level := []string{root.Dir}
		for d := 1; d <= root.Depth; d++ {
			last := d == root.Depth
			var next []string
			for _, dir := range level {
				var names []string
				var err error
				if last && wantFiles {
					names, err = fileutil.ListFileNames(dir)
				} else {
					names, err = fileutil.ListDirNames(dir)
				}
				if err != nil {
					return nil, err
				}
				for _, name := range names {
					next = append(next, dir+"/"+name)
				}
			}
			level = next
		}

		for _, candidate := range level {
			if tmpl.IsSequence() {
				candidate = collapseFrame(candidate)
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			if _, err := tmpl.Parse(candidate); err != nil {
				continue
			}
			seen[candidate] = struct{}{}
			paths = append(paths, candidate)
		}
	}

	sort.Strings(paths)
	return paths, nil
}
