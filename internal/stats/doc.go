// Package stats implements a persisted, run-indexed ledger of named
// measurements.
//
// A Stat is a numeric value with optional uncertainty, units and
// description. A Store maps stat names to stats for one namespace and keeps
// the history of runs (process invocations) that wrote to it. The store is
// persisted as a single JSON file, <save dir>/<namespace>_stats.json, and
// every open merges the file back so that stats from earlier runs survive.
//
// Typical use from a command:
//
//	store, err := stats.Open(stats.Options{Namespace: "arrhenius", Session: &session})
//	if err != nil {
//		return err
//	}
//	run := store.AutoSaveAndReport("fit", func(ctx context.Context) error {
//		st, err := stats.New(46.3, stats.Uncertainty(1.2), stats.Units("kJ/mol"))
//		if err != nil {
//			return err
//		}
//		return store.Set("ΔH", st)
//	})
//	return run(ctx)
package stats
