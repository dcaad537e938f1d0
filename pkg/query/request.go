package query

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"rankdb/pkg/common"
	"rankdb/pkg/core/topk"
)

// Request is one stdin request: strategy token, weights, input block.
type Request struct {
	Strategy topk.Strategy
	Weights  []float64
	From     *FromClause
}

// ReadRequest reads a request whose weight vector has exactly n entries.
// Tokens are whitespace separated and may span lines.
func ReadRequest(r io.Reader, n int) (*Request, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	sc.Split(bufio.ScanWords)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty request", common.ErrMalformedInput)
	}
	strategy, err := topk.ParseStrategy(sc.Text())
	if err != nil {
		return nil, err
	}

	req := &Request{Strategy: strategy, Weights: make([]float64, 0, n)}
	var rest []string
	for sc.Scan() {
		tok := sc.Text()
		if len(req.Weights) < n {
			w, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: got %d weights, want %d (next token %q)",
					common.ErrWeightCountMismatch, len(req.Weights), n, tok)
			}
			req.Weights = append(req.Weights, w)
			continue
		}
		if len(rest) == 0 && !strings.EqualFold(tok, "from") {
			if _, err := strconv.ParseFloat(tok, 64); err == nil {
				return nil, fmt.Errorf("%w: more than %d weights", common.ErrWeightCountMismatch, n)
			}
		}
		rest = append(rest, tok)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(req.Weights) < n {
		return nil, fmt.Errorf("%w: got %d weights, want %d", common.ErrWeightCountMismatch, len(req.Weights), n)
	}

	req.From, err = ParseFrom(strings.Join(rest, " "))
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks that the input block suits the strategy: ranking reads one
// table, the join needs at least two.
func (r *Request) Validate() error {
	switch r.Strategy {
	case topk.CoOccurrence:
		if len(r.From.Files) < 2 {
			return fmt.Errorf("%w: join needs at least two files, got %d", common.ErrMalformedInput, len(r.From.Files))
		}
	default:
		if len(r.From.Files) != 1 {
			return fmt.Errorf("%w: %v ranks one file, got %d", common.ErrMalformedInput, r.Strategy, len(r.From.Files))
		}
		if len(r.From.Conds) != 0 {
			return fmt.Errorf("%w: %v takes no WHERE clause", common.ErrMalformedInput, r.Strategy)
		}
	}
	return nil
}
