package sampler

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/tempermc/tempermc/diagnostics"
	"github.com/tempermc/tempermc/system"
)

// coldRung is the index of the cold (beta=1) rung: always the last one,
// since the ladder is built non-decreasing with beta[R-1]=1 (spec §3).
func (d *Driver) coldRung() int { return len(d.particles) - 1 }

// recordIteration snapshots the rungs to be persisted for one completed
// iteration: the cold rung always, every rung additionally when
// recordAllRungs is set (spec §3 "Trace record", §4.4 "record the
// cold-rung state ... and, if requested, every rung").
func (d *Driver) recordIteration(iteration int, phase Phase) []Record {
	cold := d.coldRung()
	if !d.recordAllRungs {
		p := d.particles[cold]
		return []Record{{
			Rung:      cold,
			Phase:     phase,
			Iteration: iteration,
			Theta:     append([]float64(nil), p.Theta...),
			LogPrior:  p.LogPrior,
			LogLike:   p.LogLike,
		}}
	}

	records := make([]Record, len(d.particles))
	for r, p := range d.particles {
		records[r] = Record{
			Rung:      r,
			Phase:     phase,
			Iteration: iteration,
			Theta:     append([]float64(nil), p.Theta...),
			LogPrior:  p.LogPrior,
			LogLike:   p.LogLike,
		}
	}
	return records
}

// diagnosticsFrom builds the diagnostics block from the accumulated trace
// and this run's swap-acceptance counters (spec §4.5).
func (d *Driver) diagnosticsFrom(trace []Record) diagnostics.Report {
	cold := d.coldRung()

	perParam := make(map[string][]float64, d.cfg.D())
	for _, rec := range trace {
		if rec.Rung != cold || rec.Phase != Sampling {
			continue
		}
		for i, spec := range d.cfg.Params {
			perParam[spec.Name] = append(perParam[spec.Name], rec.Theta[i])
		}
	}

	const maxLagDefault = 1000
	ess := make(map[string]float64, len(perParam))
	for name, series := range perParam {
		maxLag := maxLagDefault
		if len(series)-1 < maxLag {
			maxLag = len(series) - 1
		}
		if maxLag < 0 {
			maxLag = 0
		}
		ess[name] = diagnostics.EffectiveSampleSize(series, maxLag)
	}

	return diagnostics.Report{
		BetaRaised: append([]float64(nil), d.cfg.Ladder.Beta...),
		SwapStats:  d.swapPairStats(),
		ESS:        ess,
	}
}

func (d *Driver) swapPairStats() []diagnostics.SwapPairStats {
	stats := make([]diagnostics.SwapPairStats, 0, len(d.swapStats))
	for key, acc := range d.swapStats {
		stats = append(stats, diagnostics.SwapPairStats{
			LowerRung:  int(key),
			HigherRung: int(key) + 1,
			BurnIn:     acc.burnIn,
			Sampling:   acc.sampling,
		})
	}
	return stats
}

// CombineRhat computes the per-parameter Gelman-Rubin Rhat statistic
// across multiple independent chains' Outputs (spec §4.5), each produced
// by its own Driver.Run — possibly on separate worker processes, per spec
// §1's "running multiple independent chains across worker processes" being
// an external collaborator; this function is the seam a host calls after
// collecting every chain's Output back into one process.
func CombineRhat(outputs []*Output) map[string]float64 {
	if len(outputs) < 2 {
		return nil
	}

	names := make([]string, 0, outputs[0].Config.D())
	for _, p := range outputs[0].Config.Params {
		names = append(names, p.Name)
	}

	rhat := make(map[string]float64, len(names))
	for idx, name := range names {
		chains := make([][]float64, len(outputs))
		for c, out := range outputs {
			chains[c] = coldSamplingSeries(out, idx)
		}
		rhat[name] = diagnostics.Rhat(chains)
	}
	return rhat
}

func coldSamplingSeries(out *Output, paramIndex int) []float64 {
	cold := out.Config.Ladder.Rungs() - 1
	var series []float64
	for _, rec := range out.Trace {
		if rec.Rung != cold || rec.Phase != Sampling {
			continue
		}
		series = append(series, rec.Theta[paramIndex])
	}
	return series
}

// Output is the sole artifact of a sampler run (spec §6): the trace, the
// diagnostics block, and the configuration that produced them, kept
// together for reproducibility.
type Output struct {
	Trace       []Record
	Diagnostics diagnostics.Report
	Config      *system.Config
}

// WriteJSON serializes the Output's trace and diagnostics as JSON (spec §6
// "the output object is the sole artifact"); Config is not written (see
// jsonOutput). Grounded in the teacher's converters/
// package intent ("adapt lvlath's data to external representations"),
// here implemented for the one representation the spec actually requires.
func (o *Output) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{
		Trace:       o.Trace,
		Diagnostics: o.Diagnostics,
	})
}

// jsonOutput mirrors Output's shape but with system.Config omitted (a
// Config closes over the dataset, which the host already has) and
// json-friendly field names.
type jsonOutput struct {
	Trace       []Record           `json:"trace"`
	Diagnostics diagnostics.Report `json:"diagnostics"`
}

// WriteCSV writes the trace as a flat CSV table: rung, phase, iteration,
// one column per parameter, logprior, loglike. Header names parameters by
// Config.Params[i].Name in declaration order.
func (o *Output) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"rung", "phase", "iteration"}
	for _, p := range o.Config.Params {
		header = append(header, p.Name)
	}
	header = append(header, "logprior", "loglike")
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, rec := range o.Trace {
		row[0] = strconv.Itoa(rec.Rung)
		row[1] = string(rec.Phase)
		row[2] = strconv.Itoa(rec.Iteration)
		for i, v := range rec.Theta {
			row[3+i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		row[len(row)-2] = strconv.FormatFloat(rec.LogPrior, 'g', -1, 64)
		row[len(row)-1] = strconv.FormatFloat(rec.LogLike, 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("sampler: writing CSV row: %w", err)
		}
	}
	return cw.Error()
}
