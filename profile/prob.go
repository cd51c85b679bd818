package profile

import (
	"fmt"
	"math"
	"strconv"
)

// scale is the encoding of probabilities in a model file.
type scale int

const (
	// HMMER3 stores -ln(p) with 5 decimals.
	negLn scale = iota

	// HH-suite stores -1000*log2(p), rounded to an integer.
	negLog2Milli
)

// zeroProb is the token both formats use for a probability of exactly 0.
const zeroProb = "*"

// parseProb converts a single score token to a linear probability.
func parseProb(tok string, sc scale) (float64, error) {
	if tok == zeroProb {
		return 0, nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse score %q", tok)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, fmt.Errorf("score %q is not a negative log probability", tok)
	}
	switch sc {
	case negLn:
		return math.Exp(-f), nil
	case negLog2Milli:
		return math.Exp2(-f / 1000), nil
	}
	panic(fmt.Sprintf("BUG: unknown scale %d", sc))
}

// parseProbs converts a row of score tokens.
func parseProbs(toks []string, sc scale) ([]float64, error) {
	probs := make([]float64, len(toks))
	for i, tok := range toks {
		p, err := parseProb(tok, sc)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

// parseTransitions converts the first NumTransitions tokens of a row.
func parseTransitions(toks []string, sc scale) (tp Transitions, err error) {
	if len(toks) < int(NumTransitions) {
		err = fmt.Errorf("%d transition values, want %d", len(toks), NumTransitions)
		return
	}
	for t := MM; t < NumTransitions; t++ {
		if tp[t], err = parseProb(toks[t], sc); err != nil {
			err = fmt.Errorf("%s: %s", t, err)
			return
		}
	}
	return
}
