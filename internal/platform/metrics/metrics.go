package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles a private Prometheus registry with the process collectors.
type Registry struct {
	*prometheus.Registry
	BuildInfo *prometheus.GaugeVec
}

// New creates a registry with Go runtime and process collectors registered.
func New(version string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := &Registry{
		Registry: reg,
		BuildInfo: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "intake_build_info",
			Help: "Build information of the running intake binary",
		}, []string{"version"}),
	}
	r.BuildInfo.WithLabelValues(version).Set(1)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}
