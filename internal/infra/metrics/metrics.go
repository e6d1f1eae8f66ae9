package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var provisioningBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Metrics agrupa los collectors del bot en un registry propio.
type Metrics struct {
	reg *prometheus.Registry

	joins          *prometheus.CounterVec
	leaves         *prometheus.CounterVec
	snapshotWrites *prometheus.CounterVec
	provisioning   *prometheus.HistogramVec
	teams          *prometheus.GaugeVec
	members        *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		joins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teambot",
			Name:      "joins_total",
			Help:      "Join requests by outcome",
		}, []string{"guild", "outcome"}),
		leaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teambot",
			Name:      "leaves_total",
			Help:      "Leave requests by outcome",
		}, []string{"guild", "outcome"}),
		snapshotWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teambot",
			Name:      "snapshot_writes_total",
			Help:      "Snapshot file writes by result",
		}, []string{"guild", "result"}),
		provisioning: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "teambot",
			Name:      "provisioning_duration_seconds",
			Help:      "Time spent creating the roles and channels of a new team",
			Buckets:   provisioningBuckets,
		}, []string{"guild", "result"}),
		teams: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "teambot",
			Name:      "teams",
			Help:      "Teams currently registered",
		}, []string{"guild"}),
		members: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "teambot",
			Name:      "members",
			Help:      "Users currently assigned to a team",
		}, []string{"guild"}),
	}
	m.reg.MustRegister(
		m.joins, m.leaves, m.snapshotWrites, m.provisioning, m.teams, m.members,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) JoinOutcome(guildID, outcome string) {
	m.joins.WithLabelValues(guildID, outcome).Inc()
}

func (m *Metrics) LeaveOutcome(guildID, outcome string) {
	m.leaves.WithLabelValues(guildID, outcome).Inc()
}

func (m *Metrics) SnapshotWrite(guildID string, err error) {
	m.snapshotWrites.WithLabelValues(guildID, result(err)).Inc()
}

func (m *Metrics) Provisioning(guildID string, d time.Duration, err error) {
	m.provisioning.WithLabelValues(guildID, result(err)).Observe(d.Seconds())
}

func (m *Metrics) Roster(guildID string, teams, members int) {
	m.teams.WithLabelValues(guildID).Set(float64(teams))
	m.members.WithLabelValues(guildID).Set(float64(members))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
