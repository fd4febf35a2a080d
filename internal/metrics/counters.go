package metrics

import (
	"sync/atomic"
	"time"
)

// Counters tracks engine activity since process start.
type Counters struct {
	events        uint64
	grants        uint64
	grantFailures uint64
	dropped       uint64
	exempt        uint64
	cooldownHits  uint64
	levelUps      uint64
	notifyFails   uint64
	startTime     int64
}

var globalCounters *Counters

func Init() {
	globalCounters = &Counters{startTime: time.Now().UnixNano()}
}

func Get() *Counters {
	if globalCounters == nil {
		Init()
	}
	return globalCounters
}

func (c *Counters) IncEvents()        { atomic.AddUint64(&c.events, 1) }
func (c *Counters) IncGrants()        { atomic.AddUint64(&c.grants, 1) }
func (c *Counters) IncGrantFailures() { atomic.AddUint64(&c.grantFailures, 1) }
func (c *Counters) IncDropped()       { atomic.AddUint64(&c.dropped, 1) }
func (c *Counters) IncExempt()        { atomic.AddUint64(&c.exempt, 1) }
func (c *Counters) IncCooldownHits()  { atomic.AddUint64(&c.cooldownHits, 1) }
func (c *Counters) IncLevelUps()      { atomic.AddUint64(&c.levelUps, 1) }
func (c *Counters) IncNotifyFails()   { atomic.AddUint64(&c.notifyFails, 1) }

func (c *Counters) Events() uint64        { return atomic.LoadUint64(&c.events) }
func (c *Counters) Grants() uint64        { return atomic.LoadUint64(&c.grants) }
func (c *Counters) GrantFailures() uint64 { return atomic.LoadUint64(&c.grantFailures) }
func (c *Counters) Dropped() uint64       { return atomic.LoadUint64(&c.dropped) }
func (c *Counters) Exempt() uint64        { return atomic.LoadUint64(&c.exempt) }
func (c *Counters) CooldownHits() uint64  { return atomic.LoadUint64(&c.cooldownHits) }
func (c *Counters) LevelUps() uint64      { return atomic.LoadUint64(&c.levelUps) }
func (c *Counters) NotifyFails() uint64   { return atomic.LoadUint64(&c.notifyFails) }

// EventsPerSecond returns the average ingress rate since start.
func (c *Counters) EventsPerSecond() float64 {
	elapsed := time.Now().UnixNano() - c.startTime
	if elapsed <= 0 {
		return 0
	}
	return float64(c.Events()) / (float64(elapsed) / 1e9)
}

// Uptime returns how long the process has been running.
func (c *Counters) Uptime() time.Duration {
	return time.Duration(time.Now().UnixNano() - c.startTime)
}
