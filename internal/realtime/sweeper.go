package realtime

import "time"

// startSweeper launches the staleness sweep loop if it is not already
// running. Safe to call on every Subscribe.
func (r *Registry) startSweeper() {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()
	if r.sweepStop != nil {
		return
	}
	r.sweepStop = make(chan struct{})
	r.sweepDone = make(chan struct{})
	go r.sweepLoop(r.sweepStop, r.sweepDone)
	r.log.Debug("sweeper started", "interval", r.sweepEvery.String(), "stale_after", r.staleAfter.String())
}

func (r *Registry) stopSweeper() {
	r.sweepMu.Lock()
	stop, done := r.sweepStop, r.sweepDone
	r.sweepStop, r.sweepDone = nil, nil
	r.sweepMu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}

func (r *Registry) sweepLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.evictStale(time.Now())
		}
	}
}

// evictStale removes every subscription whose heartbeat is older than
// the staleness timeout. Eviction is silent: the client's own
// reconnect logic is the recovery mechanism. Tests call this directly
// with a synthetic now instead of sleeping through the ticker.
func (r *Registry) evictStale(now time.Time) int {
	r.mu.Lock()
	var evicted []*Subscription
	for id, sub := range r.subs {
		if now.Sub(sub.LastHeartbeat) > r.staleAfter {
			delete(r.subs, id)
			evicted = append(evicted, sub)
		}
	}
	r.mu.Unlock()

	for _, sub := range evicted {
		metricActiveSubscriptions.Dec()
		metricEvictedTotal.Inc()
		r.log.Info("evicted stale subscription",
			"subscription_id", sub.ID, "org_id", sub.OrgID, "user_id", sub.UserID,
			"idle", now.Sub(sub.LastHeartbeat).Round(time.Second).String())
	}
	return len(evicted)
}
