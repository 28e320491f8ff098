package gitx

import (
	"strings"

	"github.com/okapos/branchsync/internal/model"
)

// ParsePorcelainStatus parses the output of `git status --porcelain`
// into an ordered list of dirty paths.
func ParsePorcelainStatus(output string) []model.DirtyPath {
	if strings.TrimSpace(output) == "" {
		return nil
	}
	var paths []model.DirtyPath
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 4 {
			continue
		}
		x := line[0]
		y := line[1]
		path := strings.TrimSpace(line[3:])
		// Rename lines read "R  old -> new"; keep the new path.
		if i := strings.Index(path, " -> "); i >= 0 {
			path = path[i+4:]
		}
		paths = append(paths, model.DirtyPath{
			Code: statusCode(x, y),
			Path: path,
		})
	}
	return paths
}

func statusCode(x, y byte) model.StatusCode {
	switch {
	case x == '?' && y == '?':
		return model.StatusUntracked
	case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
		return model.StatusConflicted
	case x == 'R' || y == 'R':
		return model.StatusRenamed
	case x == 'A' || y == 'A':
		return model.StatusAdded
	case x == 'D' || y == 'D':
		return model.StatusDeleted
	default:
		return model.StatusModified
	}
}
