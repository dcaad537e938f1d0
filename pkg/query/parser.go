package query

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"rankdb/pkg/common"
)

// ColumnRef names a column of one input source, written <source>.<column>.
type ColumnRef struct {
	Source string
	Column string
}

func (c ColumnRef) String() string { return c.Source + "." + c.Column }

// JoinCond is one <src>.<col>=<src>.<col> condition.
type JoinCond struct {
	Left  ColumnRef
	Right ColumnRef
}

// FromClause is the input block: files, plus optional join conditions.
type FromClause struct {
	Files []string
	Conds []JoinCond
}

// SourceRef is one input file and the column its rows are keyed by.
// An empty Column means the first (id) column.
type SourceRef struct {
	Path   string
	Name   string
	Column string
}

var (
	fromRe = regexp.MustCompile(`(?is)^FROM\s+(.+?)(?:\s+WHERE\s+(.+?))?\s*;?\s*$`)
	eqRe   = regexp.MustCompile(`\s*=\s*`)
)

// ParseFrom parses "FROM <file>[,<file>...] [WHERE <src>.<col>=<src>.<col> ...]".
// Keywords are case-insensitive; conditions may be separated by spaces,
// commas or AND.
func ParseFrom(s string) (*FromClause, error) {
	orig := strings.TrimSpace(s)
	if orig == "" {
		return nil, fmt.Errorf("%w: empty input block", common.ErrMalformedInput)
	}
	m := fromRe.FindStringSubmatch(orig)
	if m == nil {
		return nil, fmt.Errorf("%w: expected FROM <file>[,<file>...] [WHERE <src>.<col>=<src>.<col>]", common.ErrMalformedInput)
	}

	fc := &FromClause{}
	for _, f := range strings.Split(m[1], ",") {
		f = strings.TrimSpace(f)
		if f == "" || strings.ContainsAny(f, " \t\n") {
			return nil, fmt.Errorf("%w: bad file list %q", common.ErrMalformedInput, m[1])
		}
		fc.Files = append(fc.Files, f)
	}

	if m[2] == "" {
		return fc, nil
	}
	where := eqRe.ReplaceAllString(m[2], "=")
	for _, tok := range strings.FieldsFunc(where, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		if strings.EqualFold(tok, "and") {
			continue
		}
		cond, err := parseCond(tok)
		if err != nil {
			return nil, err
		}
		fc.Conds = append(fc.Conds, cond)
	}
	if len(fc.Conds) == 0 {
		return nil, fmt.Errorf("%w: WHERE without a condition", common.ErrMalformedInput)
	}
	return fc, nil
}

func parseCond(tok string) (JoinCond, error) {
	lhs, rhs, ok := strings.Cut(tok, "=")
	if !ok {
		return JoinCond{}, fmt.Errorf("%w: condition %q has no '='", common.ErrMalformedInput, tok)
	}
	l, err := parseColumnRef(lhs)
	if err != nil {
		return JoinCond{}, err
	}
	r, err := parseColumnRef(rhs)
	if err != nil {
		return JoinCond{}, err
	}
	return JoinCond{Left: l, Right: r}, nil
}

// parseColumnRef splits at the last '.', so file names may contain dots.
func parseColumnRef(s string) (ColumnRef, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return ColumnRef{}, fmt.Errorf("%w: column reference %q is not <source>.<column>", common.ErrMalformedInput, s)
	}
	return ColumnRef{Source: s[:i], Column: s[i+1:]}, nil
}

// SourceName is the name a condition uses for path: the base name without
// compression and .csv extensions.
func SourceName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".zst", ".lz4"} {
		name = strings.TrimSuffix(name, ext)
	}
	return strings.TrimSuffix(name, ".csv")
}

func (fc *FromClause) resolve(source string) (int, bool) {
	for i, f := range fc.Files {
		if source == f || source == filepath.Base(f) || source == SourceName(f) {
			return i, true
		}
	}
	return 0, false
}

// Sources pairs every file with the key column its join conditions name.
// A file no condition mentions is keyed by its id column.
func (fc *FromClause) Sources() ([]SourceRef, error) {
	refs := make([]SourceRef, len(fc.Files))
	for i, f := range fc.Files {
		refs[i] = SourceRef{Path: f, Name: SourceName(f)}
	}
	for _, c := range fc.Conds {
		for _, side := range []ColumnRef{c.Left, c.Right} {
			i, ok := fc.resolve(side.Source)
			if !ok {
				return nil, fmt.Errorf("%w: condition references unknown source %q", common.ErrMalformedInput, side.Source)
			}
			switch refs[i].Column {
			case "":
				refs[i].Column = side.Column
			case side.Column:
			default:
				return nil, fmt.Errorf("%w: source %q joined on both %q and %q",
					common.ErrMalformedInput, refs[i].Name, refs[i].Column, side.Column)
			}
		}
	}
	return refs, nil
}
