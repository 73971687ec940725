package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick on the sub-presenters and invokes a scheduler callback.
// The zero value is usable (methods are nil-safe).
type Loop struct {
	Session  *SessionPresenter
	Preview  *PreviewPresenter
	Schedule func()
}

func NewLoop(sess *SessionPresenter, preview *PreviewPresenter, schedule func()) *Loop {
	return &Loop{Session: sess, Preview: preview, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.Session != nil {
		l.Session.Tick(now)
	}
	if l.Preview != nil {
		l.Preview.Tick()
	}
	if l.Schedule != nil {
		l.Schedule()
	}
}
