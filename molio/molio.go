// Package molio reads the whitespace-delimited frequency and
// anharmonic-coefficient tables of a molecule and writes computed
// level tables in the fixed-width layout downstream tooling expects.
package molio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	diven "github.com/FuffiKFuffiK/DivEn"
)

// ReadFrequencies parses normal-mode frequencies, one or more
// whitespace-separated positive reals per line. Blank lines and lines
// starting with # are skipped.
func ReadFrequencies(r io.Reader) ([]float64, error) {
	var freqs []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := fields(sc.Text())
		if fields == nil {
			continue
		}
		for _, s := range fields {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("line %d", line))
			}
			if f <= 0 {
				return nil, errors.Errorf("line %d: frequency %g is not positive", line, f)
			}
			freqs = append(freqs, f)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if len(freqs) == 0 {
		return nil, errors.Errorf("no frequencies")
	}
	return freqs, nil
}

// ReadTerms parses the anharmonic-coefficient table: each row holds one
// integer power per mode followed by the real coefficient. The column
// count of the first row fixes the mode count; rows of any other width
// are errors.
func ReadTerms(r io.Reader) ([]diven.Term, error) {
	var terms []diven.Term
	modes := -1
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := fields(sc.Text())
		if fields == nil {
			continue
		}
		if modes < 0 {
			modes = len(fields) - 1
			if modes < 1 {
				return nil, errors.Errorf("line %d: %d columns, need at least 2", line, len(fields))
			}
		}
		if len(fields) != modes+1 {
			return nil, errors.Errorf("line %d: %d columns, want %d", line, len(fields), modes+1)
		}

		t := diven.Term{Powers: make([]int, modes)}
		for i, s := range fields[:modes] {
			p, err := strconv.Atoi(s)
			if err != nil {
				return nil, errors.Wrap(err, fmt.Sprintf("line %d", line))
			}
			if p < 0 {
				return nil, errors.Errorf("line %d: negative power %d", line, p)
			}
			t.Powers[i] = p
		}
		var err error
		if t.K, err = strconv.ParseFloat(fields[modes], 64); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("line %d", line))
		}
		terms = append(terms, t)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if len(terms) == 0 {
		return nil, errors.Errorf("no terms")
	}
	return terms, nil
}

// WriteLevels writes N rows of M+1 columns: %4d per quantum number,
// %24.16f for the energy.
func WriteLevels(w io.Writer, levels []diven.Level) error {
	bw := bufio.NewWriter(w)
	for _, l := range levels {
		for _, v := range l.V {
			if _, err := fmt.Fprintf(bw, "%4d", v); err != nil {
				return errors.Wrap(err, "")
			}
		}
		if _, err := fmt.Fprintf(bw, "%24.16f\n", l.E); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return errors.Wrap(bw.Flush(), "")
}

// fields splits a data line, returning nil for blanks and comments.
func fields(line string) []string {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") {
		return nil
	}
	return strings.Fields(s)
}
