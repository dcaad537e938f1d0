// Package report writes ranking and join results as tab-separated text.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rankdb/pkg/common"
	"rankdb/pkg/core/topk"
)

const sep = "\t"

// RowSource supplies the attributes printed next to each ranked key.
type RowSource interface {
	Header() []string
	Row(key common.KeyType) ([]common.ValueType, error)
}

func FormatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// WriteRanking prints the header plus a Score column, then one line per
// entry, best first.
func WriteRanking(w io.Writer, src RowSource, entries []common.ScoredKey) error {
	bw := bufio.NewWriter(w)
	header := append(append([]string(nil), src.Header()...), "Score")
	bw.WriteString(strings.Join(header, sep))
	bw.WriteByte('\n')

	for _, e := range entries {
		row, err := src.Row(e.Key)
		if err != nil {
			return fmt.Errorf("ranked key %d: %w", e.Key, err)
		}
		bw.WriteString(strconv.FormatInt(int64(e.Key), 10))
		for _, v := range row {
			bw.WriteString(sep)
			bw.WriteString(strconv.FormatInt(int64(v), 10))
		}
		bw.WriteString(sep)
		bw.WriteString(FormatScore(e.Score))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteJoin prints, for each ordered source pair with matches, a header of
// source.column names followed by the matched rows. Blank lines separate pairs.
func WriteJoin(w io.Writer, sources []*topk.Source, matches []topk.JoinMatch) error {
	headers := make([][]string, len(sources))
	for i, s := range sources {
		qualified := make([]string, len(s.Header))
		for j, h := range s.Header {
			qualified[j] = s.Name + "." + h
		}
		headers[i] = qualified
	}

	bw := bufio.NewWriter(w)
	var left, right int
	for i, m := range matches {
		if m.LeftIndex >= len(headers) || m.RightIndex >= len(headers) {
			return fmt.Errorf("join match %d refers to source %d/%d of %d", i, m.LeftIndex, m.RightIndex, len(headers))
		}
		if i == 0 || m.LeftIndex != left || m.RightIndex != right {
			if i > 0 {
				bw.WriteByte('\n')
			}
			left, right = m.LeftIndex, m.RightIndex
			bw.WriteString(strings.Join(append(append([]string(nil), headers[left]...), headers[right]...), sep))
			bw.WriteByte('\n')
		}
		bw.WriteString(strings.Join(m.LeftRow, sep))
		bw.WriteString(sep)
		bw.WriteString(strings.Join(m.RightRow, sep))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
