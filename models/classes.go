package models

import (
	_ "embed"
	"os"
	"strings"

	"github.com/pkg/errors"
)

//go:embed labels.txt
var defaultLabels string

// LabelTable is an ordered, immutable list of class names addressed by the
// class index the network emits.
type LabelTable struct {
	names     []string
	nameToIdx map[string]int
}

// NewLabelTable builds a table from names in class-index order.
//
// Arguments:
//   - names: The class names. Must not be empty.
//
// Returns:
//   - *LabelTable: The table.
//   - error: An error if names is empty, contains a blank entry or repeats a
//     name.
func NewLabelTable(names []string) (*LabelTable, error) {
	if len(names) == 0 {
		return nil, errors.New("label table is empty")
	}
	t := &LabelTable{
		names:     make([]string, len(names)),
		nameToIdx: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if name == "" {
			return nil, errors.Errorf("label %d is blank", i)
		}
		if prev, dup := t.Index(name); dup {
			return nil, errors.Errorf("label %d %q duplicates label %d", i, name, prev)
		}
		t.names[i] = name
		t.nameToIdx[name] = i
	}
	return t, nil
}

// ParseLabelTable reads one class name per line. Surrounding blank lines are
// ignored; a trailing carriage return on each line is stripped.
func ParseLabelTable(text string) (*LabelTable, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil, errors.New("label table is empty")
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return NewLabelTable(lines)
}

// LoadLabelTable reads a label file. An empty path selects the embedded
// 80-class COCO list.
//
// Arguments:
//   - path: The label file path, or "".
//
// Returns:
//   - *LabelTable: The table.
//   - error: An error if the file cannot be read or parsed.
func LoadLabelTable(path string) (*LabelTable, error) {
	if path == "" {
		return DefaultLabelTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read labels")
	}
	t, err := ParseLabelTable(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "parse labels %s", path)
	}
	return t, nil
}

// DefaultLabelTable returns the embedded 80-class COCO list.
func DefaultLabelTable() *LabelTable {
	t, err := ParseLabelTable(defaultLabels)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of classes.
func (t *LabelTable) Len() int {
	return len(t.names)
}

// Name returns the class name for idx, and false when idx is out of range.
func (t *LabelTable) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(t.names) {
		return "", false
	}
	return t.names[idx], true
}

// Index returns the class index carrying name.
func (t *LabelTable) Index(name string) (int, bool) {
	idx, ok := t.nameToIdx[name]
	return idx, ok
}

// Names returns a copy of the class names.
func (t *LabelTable) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
