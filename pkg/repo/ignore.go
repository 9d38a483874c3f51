package repo

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"vc/pkg/vcfs"
)

// ignoreFile is the name of the optional ignore-patterns file, read from
// the workdir root (a sibling of the metadata directory), per §4.D.
const ignoreFile = ".vcignore"

// ignorePredicate reports whether a bare file or directory name should be
// excluded from the working dict. The metadata directory itself is always
// ignored; additional regex patterns come from .vcignore, one per line,
// matched anchored (^...$), mirroring original_source's vc/impl/repo.py:
// _read_ignore/_matches.
type ignorePredicate struct {
	patterns []*regexp.Regexp
}

func (r *Repo) loadIgnore() (*ignorePredicate, error) {
	p := &ignorePredicate{}
	p.addPattern(regexp.QuoteMeta(vcfs.MetaDirName))

	data, err := os.ReadFile(filepath.Join(r.workdirRoot, ignoreFile))
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.addPattern(line)
	}
	return p, nil
}

func (p *ignorePredicate) addPattern(pattern string) {
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return
	}
	p.patterns = append(p.patterns, re)
}

func (p *ignorePredicate) Matches(name string) bool {
	for _, re := range p.patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
