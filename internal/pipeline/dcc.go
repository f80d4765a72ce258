package pipeline

import (
	"os"
	"os/user"
	"strings"
)

// extnToDCC maps scene file extensions to the application that owns them.
var extnToDCC = map[string]string{
	"blend": "blender",
	"hip":   "hou",
	"hipnc": "hou",
	"ma":    "maya",
	"mb":    "maya",
	"nk":    "nuke",
	"nknc":  "nuke",
	"spp":   "substance",
}

// DCCForExtn returns the application identifier for a scene file extension.
func DCCForExtn(extn string) (string, bool) {
	extn = strings.ToLower(strings.TrimPrefix(extn, "."))
	dcc, ok := extnToDCC[extn]
	return dcc, ok
}

// CurrentUser returns the pipeline user for per-user work dirs: the OS
// user, lowercased and reduced to path-safe characters.
func CurrentUser() string {
	name := os.Getenv("USER")
	if u, err := user.Current(); err == nil && u.Username != "" {
		name = u.Username
	}
	return sanitizeUser(name)
}

func sanitizeUser(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '.':
			b.WriteRune('-')
		}
	}
	return b.String()
}
