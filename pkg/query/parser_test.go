package query

import (
	"errors"
	"strings"
	"testing"

	"rankdb/pkg/common"
	"rankdb/pkg/core/topk"
)

func TestParseFrom(t *testing.T) {
	tests := []struct {
		in    string
		files []string
		conds []string
		err   bool
	}{
		{"FROM table.csv", []string{"table.csv"}, nil, false},
		{"from data/t.csv.gz;", []string{"data/t.csv.gz"}, nil, false},
		{"FROM a.csv,b.csv", []string{"a.csv", "b.csv"}, nil, false},
		{"FROM a.csv , b.csv WHERE a.id=b.uid", []string{"a.csv", "b.csv"}, []string{"a.id=b.uid"}, false},
		{"FROM a,b,c where a.x = b.y AND b.y=c.z", []string{"a", "b", "c"}, []string{"a.x=b.y", "b.y=c.z"}, false},
		{"FROM a.csv,b.csv\nWHERE a.csv.id=b.csv.id", []string{"a.csv", "b.csv"}, []string{"a.csv.id=b.csv.id"}, false},
		{"FROM a.csv,b.csv WHERE a.id", nil, nil, true},
		{"FROM a.csv,b.csv WHERE id=b.id", nil, nil, true},
		{"FROM a.csv,,b.csv", nil, nil, true},
		{"FROM a.csv WHERE", nil, nil, true},
		{"SELECT a.csv", nil, nil, true},
		{"", nil, nil, true},
	}
	for _, tt := range tests {
		fc, err := ParseFrom(tt.in)
		if tt.err {
			if !errors.Is(err, common.ErrMalformedInput) {
				t.Errorf("ParseFrom(%q): got %v, want ErrMalformedInput", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFrom(%q): %v", tt.in, err)
			continue
		}
		if strings.Join(fc.Files, "|") != strings.Join(tt.files, "|") {
			t.Errorf("ParseFrom(%q): files=%v, want %v", tt.in, fc.Files, tt.files)
		}
		var conds []string
		for _, c := range fc.Conds {
			conds = append(conds, c.Left.String()+"="+c.Right.String())
		}
		if strings.Join(conds, "|") != strings.Join(tt.conds, "|") {
			t.Errorf("ParseFrom(%q): conds=%v, want %v", tt.in, conds, tt.conds)
		}
	}
}

func TestSources(t *testing.T) {
	fc, err := ParseFrom("FROM data/a.csv.gz,b.csv,c.csv WHERE a.uid=b.id")
	if err != nil {
		t.Fatalf("ParseFrom: %v", err)
	}
	refs, err := fc.Sources()
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	want := []SourceRef{
		{Path: "data/a.csv.gz", Name: "a", Column: "uid"},
		{Path: "b.csv", Name: "b", Column: "id"},
		{Path: "c.csv", Name: "c"},
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("source %d: got %+v, want %+v", i, refs[i], want[i])
		}
	}

	bad, _ := ParseFrom("FROM a.csv,b.csv WHERE a.id=z.id")
	if _, err := bad.Sources(); !errors.Is(err, common.ErrMalformedInput) {
		t.Errorf("unknown source: got %v", err)
	}
	twice, _ := ParseFrom("FROM a.csv,b.csv WHERE a.id=b.id a.x=b.id")
	if _, err := twice.Sources(); !errors.Is(err, common.ErrMalformedInput) {
		t.Errorf("conflicting key columns: got %v", err)
	}
}

func TestReadRequest(t *testing.T) {
	req, err := ReadRequest(strings.NewReader("run1\n1 0.5\nFROM table.csv\n"), 2)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if req.Strategy != topk.Threshold {
		t.Errorf("strategy: got %v", req.Strategy)
	}
	if len(req.Weights) != 2 || req.Weights[0] != 1 || req.Weights[1] != 0.5 {
		t.Errorf("weights: got %v", req.Weights)
	}
	if len(req.From.Files) != 1 || req.From.Files[0] != "table.csv" {
		t.Errorf("files: got %v", req.From.Files)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestReadRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want error
	}{
		{"empty", "", 2, common.ErrMalformedInput},
		{"unknown strategy", "run9 1 1 FROM t.csv", 2, common.ErrUnknownStrategy},
		{"too few weights", "run2 1 FROM t.csv", 2, common.ErrWeightCountMismatch},
		{"too few weights at eof", "run2 1", 2, common.ErrWeightCountMismatch},
		{"too many weights", "run2 1 2 3 FROM t.csv", 2, common.ErrWeightCountMismatch},
		{"missing from", "run2 1 2", 2, common.ErrMalformedInput},
		{"garbage block", "run2 1 2 INTO t.csv", 2, common.ErrMalformedInput},
	}
	for _, tt := range tests {
		if _, err := ReadRequest(strings.NewReader(tt.in), tt.n); !errors.Is(err, tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"run1 1 FROM a.csv", true},
		{"run1 1 FROM a.csv,b.csv", false},
		{"run2 1 FROM a.csv WHERE a.id=a.id", false},
		{"run3 1 FROM a.csv,b.csv WHERE a.id=b.id", true},
		{"run3 1 FROM a.csv", false},
	}
	for _, tt := range tests {
		req, err := ReadRequest(strings.NewReader(tt.in), 1)
		if err != nil {
			t.Fatalf("ReadRequest(%q): %v", tt.in, err)
		}
		if err := req.Validate(); (err == nil) != tt.ok {
			t.Errorf("Validate(%q): got %v, want ok=%v", tt.in, err, tt.ok)
		}
	}
}
