package dirtree

import (
	"fmt"
	"strings"

	"vc/pkg/vcerrors"
)

// TreeLine is one parsed line of a tree object's text payload: "<f|d> <key>
// <name>\n" (§4.C). name is tree-local — a bare filename or single
// subdirectory path component, never qualified by an ancestor directory;
// qualification happens when a tree is recursively loaded into a DirDict
// (see loader.go).
type TreeLine struct {
	Kind Kind
	Key  string
	Name string
}

// String renders l in the on-disk line format, including the trailing
// newline.
func (l TreeLine) String() string {
	return fmt.Sprintf("%s %s %s\n", l.Kind, l.Key, l.Name)
}

// ParseTreeLine parses one line (without its trailing newline) of a tree
// object's payload. name is everything after the second space, so it may
// itself contain spaces.
func ParseTreeLine(line string) (TreeLine, error) {
	firstSpace := strings.IndexByte(line, ' ')
	if firstSpace < 0 {
		return TreeLine{}, vcerrors.Corrupt("malformed tree entry: missing kind separator", nil)
	}
	kindStr := line[:firstSpace]
	rest := line[firstSpace+1:]

	secondSpace := strings.IndexByte(rest, ' ')
	if secondSpace < 0 {
		return TreeLine{}, vcerrors.Corrupt("malformed tree entry: missing key separator", nil)
	}
	key := rest[:secondSpace]
	name := rest[secondSpace+1:]
	if name == "" {
		return TreeLine{}, vcerrors.Corrupt("malformed tree entry: empty name", nil)
	}

	var kind Kind
	switch kindStr {
	case string(File):
		kind = File
	case string(Dir):
		kind = Dir
	default:
		return TreeLine{}, vcerrors.Corrupt(fmt.Sprintf("malformed tree entry: unknown kind %q", kindStr), nil)
	}

	return TreeLine{Kind: kind, Key: key, Name: name}, nil
}

// splitTreeText splits a tree object's decoded payload into its lines,
// dropping the trailing newline and tolerating an empty (no-entry) tree.
func splitTreeText(text string) []string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
