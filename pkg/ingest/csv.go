// Package ingest loads comma-separated tables with a header row into index
// sets and join sources.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"rankdb/pkg/common"
	"rankdb/pkg/core"
	"rankdb/pkg/core/topk"
)

// table streams the rows of one file after its header.
type table struct {
	path   string
	rc     io.Closer
	r      *csv.Reader
	header []string
	size   int64
}

func openTable(path string) (*table, error) {
	rc, size, err := Open(path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(rc)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		rc.Close()
		return nil, common.NewInputError(path, 1, "", errors.New("missing header row"))
	}
	if err != nil {
		rc.Close()
		return nil, csvError(path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return &table{path: path, rc: rc, r: r, header: header, size: size}, nil
}

// next returns the next row and its line number, or io.EOF.
func (t *table) next() ([]string, int, error) {
	row, err := t.r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, err
		}
		return nil, 0, csvError(t.path, err)
	}
	line, _ := t.r.FieldPos(0)
	return row, line, nil
}

func (t *table) Close() error { return t.rc.Close() }

func csvError(path string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return common.NewInputError(path, pe.Line, "", pe.Err)
	}
	return fmt.Errorf("read %s: %w", path, err)
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	return int32(v), err
}

// LoadTable reads path into a sealed IndexSet. The first column is the record
// id; every further column is an int32 attribute.
func LoadTable(path string, fanout int) (*core.IndexSet, error) {
	start := time.Now()
	t, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	set, err := core.NewIndexSet(t.header, fanout)
	if err != nil {
		return nil, common.NewInputError(path, 1, "", err)
	}

	values := make([]common.ValueType, len(t.header)-1)
	rows := 0
	for {
		row, line, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		id, err := parseInt32(row[0])
		if err != nil {
			return nil, common.NewInputError(path, line, t.header[0], err)
		}
		for i := range values {
			v, err := parseInt32(row[i+1])
			if err != nil {
				return nil, common.NewInputError(path, line, t.header[i+1], err)
			}
			values[i] = common.ValueType(v)
		}
		if err := set.Insert(common.KeyType(id), values); err != nil {
			return nil, common.NewInputError(path, line, "", err)
		}
		rows++
	}
	set.Seal()

	log.Printf("[Ingest] Loaded %s (%s, %v): %s rows, %s records, %d attributes in %v",
		path, humanize.Bytes(uint64(t.size)), CompressionOf(path),
		humanize.Comma(int64(rows)), humanize.Comma(int64(set.Len())), set.AttributeCount(), time.Since(start))
	return set, nil
}

// SourceSpec names one join input and the column its rows are keyed by.
// An empty Column selects the first column.
type SourceSpec struct {
	Path   string
	Name   string
	Column string
}

// LoadSources reads every spec into a sealed join source.
func LoadSources(specs []SourceSpec) ([]*topk.Source, error) {
	sources := make([]*topk.Source, 0, len(specs))
	for _, spec := range specs {
		src, err := loadSource(spec)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func loadSource(spec SourceSpec) (*topk.Source, error) {
	t, err := openTable(spec.Path)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	col := 0
	if spec.Column != "" {
		col = -1
		for i, h := range t.header {
			if strings.EqualFold(h, spec.Column) {
				col = i
				break
			}
		}
		if col < 0 {
			return nil, common.NewInputError(spec.Path, 1, spec.Column, errors.New("no such column"))
		}
	}

	name := spec.Name
	if name == "" {
		name = spec.Path
	}
	src := topk.NewSource(name, t.header, col)
	for {
		row, line, err := t.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		key, err := parseInt32(row[col])
		if err != nil {
			return nil, common.NewInputError(spec.Path, line, t.header[col], err)
		}
		src.Add(common.KeyType(key), row)
	}
	src.Seal()

	log.Printf("[Ingest] Source %s keyed by %q: %s keys (%s)",
		name, t.header[col], humanize.Comma(int64(src.Len())), humanize.Bytes(uint64(t.size)))
	return src, nil
}
