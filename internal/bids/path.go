// Package bids builds destination paths inside a BIDS dataset.
package bids

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DatatypeMEG is the BIDS datatype directory for MEG recordings.
const DatatypeMEG = "meg"

// DatatypeAnat is the BIDS datatype directory for anatomical files.
const DatatypeAnat = "anat"

// Path locates one recording inside a BIDS root. Subject is the anonymized
// sequential label, never the original identifier.
type Path struct {
	Root      string
	Subject   string
	Task      string
	Datatype  string
	Extension string
}

// NewPath returns the destination for sequential subject number n.
func NewPath(root string, n int, task string) Path {
	return Path{
		Root:     root,
		Subject:  strconv.Itoa(n),
		Task:     task,
		Datatype: DatatypeMEG,
	}
}

// Validate reports labels that would produce an ambiguous BIDS name.
func (p Path) Validate() error {
	if strings.TrimSpace(p.Root) == "" {
		return errors.New("bids path: empty root")
	}
	if err := checkLabel("subject", p.Subject); err != nil {
		return err
	}
	if p.Task != "" {
		if err := checkLabel("task", p.Task); err != nil {
			return err
		}
	}
	return nil
}

// Directory returns <root>/sub-<subject>.
func (p Path) Directory() string {
	return filepath.Join(p.Root, "sub-"+p.Subject)
}

// DatatypeDirectory returns <root>/sub-<subject>/<datatype>.
func (p Path) DatatypeDirectory() string {
	return filepath.Join(p.Directory(), p.datatype())
}

// Basename returns sub-<subject>[_task-<task>]_<datatype><ext>.
func (p Path) Basename() string {
	var b strings.Builder
	b.WriteString("sub-")
	b.WriteString(p.Subject)
	if p.Task != "" {
		b.WriteString("_task-")
		b.WriteString(p.Task)
	}
	b.WriteByte('_')
	b.WriteString(p.datatype())
	b.WriteString(p.Extension)
	return b.String()
}

// FilePath joins DatatypeDirectory and Basename.
func (p Path) FilePath() string {
	return filepath.Join(p.DatatypeDirectory(), p.Basename())
}

// AnatDirectory returns <root>/sub-<subject>/anat.
func (p Path) AnatDirectory() string {
	return filepath.Join(p.Directory(), DatatypeAnat)
}

// AnatImageName returns sub-<subject>_T1w_defaced<ext>.
func (p Path) AnatImageName(ext string) string {
	return "sub-" + p.Subject + "_T1w_defaced" + ext
}

// TransformName returns sub-<subject><suffix>, e.g. sub-1-trans.fif.
func (p Path) TransformName(suffix string) string {
	return "sub-" + p.Subject + suffix
}

// String returns the recording file path.
func (p Path) String() string {
	return p.FilePath()
}

func (p Path) datatype() string {
	if p.Datatype == "" {
		return DatatypeMEG
	}
	return p.Datatype
}

func checkLabel(name, value string) error {
	if value == "" {
		return fmt.Errorf("bids path: empty %s label", name)
	}
	if strings.ContainsAny(value, "-_/ \\") {
		return fmt.Errorf("bids path: %s label %q contains a reserved character", name, value)
	}
	return nil
}
