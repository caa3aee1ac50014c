package stacktrace

import "strings"

// InternalPaths returns the file:line locations of frames under an /internal/
// directory, trimmed to start at "internal/".
func InternalPaths(stack []byte) []string {
	lines := strings.Split(string(stack), "\n")
	paths := make([]string, 0, len(lines)/2)

	for _, line := range lines {
		line = strings.TrimSpace(line)

		// File lines look like "/src/app/internal/x/y.go:42 +0x1d".
		loc, _, _ := strings.Cut(line, " ")
		if !strings.Contains(loc, ".go:") {
			continue
		}

		idx := strings.Index(loc, "/internal/")
		if idx == -1 {
			continue
		}

		paths = append(paths, loc[idx+1:])
	}

	return paths
}
