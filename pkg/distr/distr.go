// Package distr expands the compact weighted-list syntax used for file-size
// distributions and the operation mix.
//
// An input like "1,2,3" expands to [1 2 3]. A multiplier on an entry repeats
// its value, so "1x3,2,3" (or "1:3,2,3") expands to [1 1 1 2 3]. Frequency of
// repetition in the expanded pool encodes relative weight; sampling the pool
// uniformly reproduces the configured distribution in expectation.
package distr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/TritonDataCenter/manta-chum/models"
	. "github.com/TritonDataCenter/manta-chum/pkg/logger"
)

// multiplier separators, tried in order.
var seps = []string{"x", ":"}

// Expand splits spec on commas and expands each entry's multiplier, if any.
// An entry with more than one multiplier is malformed; it is skipped with a
// warning and the rest of the spec still parses. An entry whose count does
// not parse is an error.
func Expand(spec string) ([]string, error) {
	var pool []string

	for _, entry := range strings.Split(spec, ",") {
		tok := []string{entry}
		for _, sep := range seps {
			if strings.Contains(entry, sep) {
				tok = strings.Split(entry, sep)
				break
			}
		}
		switch len(tok) {
		case 1:
			pool = append(pool, tok[0])
		case 2:
			count, err := strconv.ParseUint(tok[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad multiplier in %q: %w", entry, err)
			}
			for i := uint64(0); i < count; i++ {
				pool = append(pool, tok[0])
			}
		default:
			Logger.Warnf("too many multiples in token %q... ignoring", entry)
		}
	}

	return pool, nil
}

// Sizes expands a file-size distribution. Values are plain integers scaled
// by unit ("k" for KiB, "m" for MiB).
func Sizes(spec, unit string) ([]uint64, error) {
	var mult uint64
	switch strings.ToLower(unit) {
	case "k":
		mult = 1024
	case "m":
		mult = 1024 * 1024
	default:
		return nil, fmt.Errorf("unrecognized capacity unit %q (want k or m)", unit)
	}

	pool, err := Expand(spec)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("size distribution %q expands to nothing", spec)
	}

	sizes := make([]uint64, 0, len(pool))
	for _, v := range pool {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad size in distribution: %w", err)
		}
		sizes = append(sizes, n*mult)
	}
	return sizes, nil
}

// Ops expands an operation-mix distribution of r/w/d tokens.
func Ops(spec string) ([]models.Operation, error) {
	pool, err := Expand(spec)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("operation mix %q expands to nothing", spec)
	}

	ops := make([]models.Operation, 0, len(pool))
	for _, v := range pool {
		op, err := models.ParseOperation(v)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}
