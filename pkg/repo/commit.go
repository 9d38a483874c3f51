package repo

import (
	"strings"

	"vc/pkg/vcerrors"
)

// parsedCommit is a decoded commit object's text payload (§6 commit
// payload format): "tree <key>\n", zero or more "parent <key>\n", optional
// author/committer lines, a blank line, then the free-form message.
type parsedCommit struct {
	Tree    string
	Parents []string
	Message string
}

func parseCommitText(text string) (parsedCommit, error) {
	lines := strings.Split(text, "\n")
	var pc parsedCommit
	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		switch {
		case line == "":
			i++
			goto message
		case strings.HasPrefix(line, "tree "):
			pc.Tree = strings.TrimPrefix(line, "tree ")
		case strings.HasPrefix(line, "parent "):
			pc.Parents = append(pc.Parents, strings.TrimPrefix(line, "parent "))
		case strings.HasPrefix(line, "author "), strings.HasPrefix(line, "committer "):
			// recorded but not surfaced; this core has no identity non-goal to serve.
		default:
			return parsedCommit{}, vcerrors.Corrupt("malformed commit object header", nil)
		}
	}
message:
	if pc.Tree == "" {
		return parsedCommit{}, vcerrors.Corrupt("commit object missing tree header", nil)
	}
	pc.Message = strings.Join(lines[i:], "\n")
	return pc, nil
}

// shortComment returns the first non-blank line of a commit message.
func shortComment(message string) string {
	for _, line := range strings.Split(message, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
