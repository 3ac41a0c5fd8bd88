package controllers

import (
	"time"

	"github.com/omzlo/canbridge/clog"
)

type statusMonitor struct {
	interval time.Duration
	last     time.Time
}

func (m *statusMonitor) tick(b *Bridge) {
	if m.interval <= 0 {
		return
	}
	now := time.Now()
	if m.last.IsZero() {
		m.last = now
		return
	}
	if now.Sub(m.last) >= m.interval {
		m.last = now
		b.reportStatus()
	}
}

// SetMonitorInterval enables a periodic status report from Serve. Zero
// disables it.
func (b *Bridge) SetMonitorInterval(interval time.Duration) {
	b.monitor = statusMonitor{interval: interval}
}

func (b *Bridge) reportStatus() {
	for i := range b.channels {
		ctx := &b.channels[i]
		if !b.Initialized(i) {
			clog.DebugX("%s", ctx.controller)
			continue
		}
		clog.Info("%s: %d kbit/s, received=%d, echoed=%d, busy retries=%d",
			ctx.controller, ctx.controller.Timing().BitRateKHz(),
			ctx.stats.Received, ctx.stats.Echoed, ctx.stats.BusyRetries)
	}
}
