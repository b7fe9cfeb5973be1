package session

import "time"

// scheduler holds the session's one pending timer. Arming always stops the
// previous timer first, so at most one fire is outstanding per session.
type scheduler struct {
	timer *time.Timer
}

func (sc *scheduler) arm(d time.Duration, fire func()) {
	sc.stop()
	sc.timer = time.AfterFunc(max(d, 0), fire)
}

func (sc *scheduler) stop() {
	if sc.timer != nil {
		sc.timer.Stop()
		sc.timer = nil
	}
}
