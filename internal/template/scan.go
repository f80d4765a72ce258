package template

import "strings"

// ScanRoot bounds a disk walk for one match variation: start at Dir and
// descend Depth directory levels. Depth zero means the seed resolved the
// whole pattern and Dir is the only candidate path.
type ScanRoot struct {
	Dir   string
	Depth int
}

// ScanRoots computes, for each match variation, the deepest directory
// reachable from the seed tokens and how many path levels the unresolved
// remainder spans. Discovery walks use these to bound their scans instead
// of traversing whole project trees. Variations whose remainder contains an
// unseeded multi-level token cannot be bounded and are skipped.
func (t *Template) ScanRoots(seed map[string]string) []ScanRoot {
	var roots []ScanRoot
	seen := make(map[ScanRoot]struct{})
	for _, v := range t.variations {
		root, ok := v.scanRoot(t, seed)
		if !ok {
			continue
		}
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		roots = append(roots, root)
	}
	return roots
}

func (v *variation) scanRoot(t *Template, seed map[string]string) (ScanRoot, bool) {
	var prefix strings.Builder
	i := 0
	for ; i < len(v.segs); i++ {
		seg := v.segs[i]
		if seg.kind == segLiteral {
			prefix.WriteString(seg.text)
			continue
		}
		value := seed[seg.token]
		if value == "" {
			break
		}
		prefix.WriteString(t.rule(seg.token).pad(value))
	}
	if i == len(v.segs) {
		return ScanRoot{Dir: NormPath(prefix.String()), Depth: 0}, true
	}

	// Remaining levels: one for the component the walk is standing in,
	// plus one per literal separator still ahead.
	depth := 1
	for j := i; j < len(v.segs); j++ {
		seg := v.segs[j]
		if seg.kind == segLiteral {
			depth += strings.Count(seg.text, "/")
			continue
		}
		if t.rule(seg.token).Path {
			return ScanRoot{}, false
		}
	}

	rendered := prefix.String()
	cut := strings.LastIndexByte(rendered, '/')
	if cut <= 0 {
		return ScanRoot{}, false
	}
	return ScanRoot{Dir: NormPath(rendered[:cut]), Depth: depth}, true
}
