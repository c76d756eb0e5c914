// Command run computes the vibrational energy levels of one molecule:
// it reads the frequency and anharmonic-coefficient tables, enumerates
// the basis below the energy ceiling, assembles and diagonalizes the
// Hamiltonian, and writes the corrected level table. With -q it also
// emits the Rayleigh-Schrodinger series of a single target state for
// later resummation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	diven "github.com/FuffiKFuffiK/DivEn"
	"github.com/FuffiKFuffiK/DivEn/molio"
	"github.com/FuffiKFuffiK/DivEn/oscill"
	"github.com/FuffiKFuffiK/DivEn/store"
)

const (
	fnameFreqs  = "Frequencies.txt"
	fnameCoefs  = "Anh_coefs.txt"
	fnameLevels = "Levels.txt"
)

var (
	inDir  = flag.String("i", ".", "input directory with Frequencies.txt and Anh_coefs.txt")
	outDir = flag.String("o", ".", "output directory")
	emax   = flag.Float64("emax", 13000, "basis energy ceiling, cm-1")
	e0     = flag.Float64("e0", math.NaN(), "reference energy subtracted from every level, lowest eigenvalue if unset")
	dbPath = flag.String("db", "", "sqlite database to store the run in")
	run    = flag.String("run", "", "run label for the database, input directory name if unset")

	target = flag.Int("q", -1, "target state for the perturbation series, off if negative")
	nmax   = flag.Int("nmax", 120, "number of series orders")
	digits = flag.Int("digits", diven.DefaultDigits, "decimal precision of the series recurrence")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := mainWithErr(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func mainWithErr() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	freqs, terms, err := readInput(*inDir)
	if err != nil {
		return errors.Wrap(err, "")
	}

	states, err := diven.Enumerate(*emax, freqs)
	if err != nil {
		return errors.Wrap(err, "")
	}
	log.Printf("%d modes, %d terms, %d basis states below %g", len(freqs), len(terms), len(states), *emax)

	tbl := oscill.NewTable(diven.MaxV(states), diven.MaxOrder(terms))
	w, err := diven.BuildMatrixCtx(ctx, terms, states, tbl)
	if err != nil {
		return errors.Wrap(err, "")
	}
	h, err := diven.AddZeroOrder(w, states)
	if err != nil {
		return errors.Wrap(err, "")
	}

	var levels []diven.Level
	switch {
	case math.IsNaN(*e0):
		levels, _, err = diven.Diagonalize(h, states)
	default:
		levels, _, err = diven.DiagonalizeFrom(h, states, *e0)
	}
	if err != nil {
		return errors.Wrap(err, "")
	}

	if err := writeLevels(*outDir, levels); err != nil {
		return errors.Wrap(err, "")
	}
	if *dbPath != "" {
		if err := putLevels(ctx, levels); err != nil {
			return errors.Wrap(err, "")
		}
	}

	if *target >= 0 {
		if err := writeSeries(*outDir, *target, states, w); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

func readInput(dir string) ([]float64, []diven.Term, error) {
	ff, err := os.Open(filepath.Join(dir, fnameFreqs))
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	defer ff.Close()
	freqs, err := molio.ReadFrequencies(ff)
	if err != nil {
		return nil, nil, errors.Wrap(err, fnameFreqs)
	}

	cf, err := os.Open(filepath.Join(dir, fnameCoefs))
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	defer cf.Close()
	terms, err := molio.ReadTerms(cf)
	if err != nil {
		return nil, nil, errors.Wrap(err, fnameCoefs)
	}

	if len(terms[0].Powers) != len(freqs) {
		return nil, nil, errors.Errorf("%d modes in %s, %d in %s", len(freqs), fnameFreqs, len(terms[0].Powers), fnameCoefs)
	}
	return freqs, terms, nil
}

func writeLevels(dir string, levels []diven.Level) error {
	f, err := os.Create(filepath.Join(dir, fnameLevels))
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err1 := molio.WriteLevels(f, levels); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func putLevels(ctx context.Context, levels []diven.Level) error {
	label := *run
	if label == "" {
		label = filepath.Base(*inDir)
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err1 := s.Put(ctx, label, levels); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	if err1 := s.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func writeSeries(dir string, q int, states []diven.State, w *mat.SymDense) error {
	e, err := diven.Series(q, states, w, *nmax, *digits)
	if err != nil {
		return errors.Wrap(err, "")
	}

	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("Series_%d.txt", q)))
	if err != nil {
		return errors.Wrap(err, "")
	}
	for i, c := range e {
		if _, err1 := fmt.Fprintf(f, "%4d %s\n", i, c.Text('e', *digits)); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}
	if err1 := f.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}
