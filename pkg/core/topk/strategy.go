package topk

import (
	"fmt"
	"strings"

	"rankdb/pkg/common"
)

type Strategy int

const (
	Threshold Strategy = iota + 1
	Naive
	CoOccurrence
)

var strategyNames = map[Strategy]string{
	Threshold:    "threshold",
	Naive:        "naive",
	CoOccurrence: "join",
}

// ParseStrategy accepts the command tokens run1/run2/run3 and the strategy names.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "run1", "threshold", "ta":
		return Threshold, nil
	case "run2", "naive", "scan":
		return Naive, nil
	case "run3", "join", "cooccurrence":
		return CoOccurrence, nil
	default:
		return 0, fmt.Errorf("%w: %q", common.ErrUnknownStrategy, s)
	}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}
