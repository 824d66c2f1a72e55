package archive

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/svante/internal/stats"
)

// Gatherer builds a private Prometheus registry holding the gauges of snap:
//   - svante_stat_value{namespace, name, units, run}
//   - svante_stat_uncertainty{namespace, name, units, run}, for stats that
//     carry an uncertainty
//   - svante_runs{namespace}
func Gatherer(snap stats.Snapshot) (*prometheus.Registry, error) {
	labels := []string{"namespace", "name", "units", "run"}
	value := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "svante_stat_value",
		Help: "Value of a recorded stat.",
	}, labels)
	uncertainty := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "svante_stat_uncertainty",
		Help: "One-sigma uncertainty of a recorded stat.",
	}, labels)
	runs := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "svante_runs",
		Help: "Number of runs recorded in the ledger.",
	}, []string{"namespace"})

	reg := prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{value, uncertainty, runs} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	for _, st := range snap.Stats {
		lv := []string{snap.Namespace, st.Name, st.Units, strconv.Itoa(st.RunNo)}
		value.WithLabelValues(lv...).Set(st.Value)
		if st.Uncertainty != nil {
			uncertainty.WithLabelValues(lv...).Set(*st.Uncertainty)
		}
	}
	runs.WithLabelValues(snap.Namespace).Set(float64(len(snap.Runs)))
	return reg, nil
}

// WriteTextfile writes the gauges of snap to path in the text exposition
// format. The file is replaced atomically.
func WriteTextfile(path string, snap stats.Snapshot) error {
	reg, err := Gatherer(snap)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write textfile: %w", err)
	}
	return nil
}
