package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency    = metric.NewHistogram("1m1s")
	PacketsPerSecond   = metric.NewCounter("10s1s")
	ForwardsPerSecond  = metric.NewCounter("10s1s")
	DropsPerSecond     = metric.NewCounter("10s1s")
	NacksPerSecond     = metric.NewCounter("10s1s")
	FloodsPerSecond    = metric.NewCounter("10s1s")
	ShortcutsPerSecond = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))
	expvar.Publish("skyward:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("skyward:Packets/s", PacketsPerSecond)
	expvar.Publish("skyward:Forwards/s", ForwardsPerSecond)
	expvar.Publish("skyward:Drops/s", DropsPerSecond)
	expvar.Publish("skyward:Nacks/s", NacksPerSecond)
	expvar.Publish("skyward:Floods/s", FloodsPerSecond)
	expvar.Publish("skyward:Shortcuts/s", ShortcutsPerSecond)
}
