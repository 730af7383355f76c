package sites

import "log"

type warnReason int

const (
	warnMissing warnReason = iota
	warnMultiallelic
	warnPloidy
	warnInsufficient
	numWarnReasons
)

func (r warnReason) reason() string {
	switch r {
	case warnMissing:
		return "missing genotypes"
	case warnMultiallelic:
		return "multiallelic genotypes"
	case warnPloidy:
		return "non-diploid genotypes"
	case warnInsufficient:
		return "insufficient data"
	default:
		return "unknown"
	}
}

// Warnings tallies degraded sites per reason. Inputs can have millions of
// sites, so only the first occurrence of each reason is logged, with a
// summary of the tallies at the end of the run.
type Warnings struct {
	logger *log.Logger
	counts [numWarnReasons]int
}

// NewWarnings creates a warning tally logging through the provided logger.
func NewWarnings(logger *log.Logger) *Warnings {
	return &Warnings{logger: logger}
}

// WarnOnce records a degraded site, logging an example message the first
// time each reason occurs. Only sites with insufficient data are dropped;
// the other reasons drop genotypes from a site that may still contribute.
func (w *Warnings) WarnOnce(contig string, position int, reason warnReason) {
	if w.counts[reason] == 0 {
		verb := "dropping genotypes at"
		if reason == warnInsufficient {
			verb = "skipping"
		}
		w.logger.Printf(
			"%s site at position '%s:%d' due to %s; "+
				"this warning is shown only once, with a summary at the end",
			verb, contig, position, reason.reason(),
		)
	}
	w.counts[reason]++
}

// Summarize logs the tally for each reason with at least one degraded site.
func (w *Warnings) Summarize() {
	for reason := warnReason(0); reason < numWarnReasons; reason++ {
		count := w.counts[reason]
		if count == 0 {
			continue
		}
		if reason == warnInsufficient {
			w.logger.Printf("skipped %d sites due to insufficient data", count)
		} else {
			w.logger.Printf("dropped genotypes at %d sites due to %s", count, reason.reason())
		}
	}
}

// count returns the number of degraded sites recorded for a reason.
func (w *Warnings) count(reason warnReason) int {
	return w.counts[reason]
}
