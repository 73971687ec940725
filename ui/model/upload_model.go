package model

import (
	"time"
)

// UploadModel tracks how long the current detection request has been running
// and how long the previous one took. Presenters poll Values() and update views.
// The zero value is ready to use.
type UploadModel struct {
	active  bool
	started time.Time
	current time.Duration
	last    time.Duration
	count   int
}

// NewUploadModel returns a pointer to a ready-to-use UploadModel.
func NewUploadModel() *UploadModel { return &UploadModel{} }

// OnTick updates the model with whether an upload is in flight at now.
func (m *UploadModel) OnTick(uploading bool, now time.Time) {
	if m == nil {
		return
	}
	if uploading {
		if !m.active { // off -> on
			m.active = true
			m.started = now
			m.count++
		}
		m.current = now.Sub(m.started)
	} else if m.active { // on -> off
		m.last = now.Sub(m.started)
		m.current = 0
		m.active = false
	}
}

// Values returns the elapsed time of the running upload (0 when idle) and the
// duration of the last finished one.
func (m *UploadModel) Values() (current, last time.Duration) {
	if m == nil {
		return 0, 0
	}
	return m.current, m.last
}

// Active reports whether an upload is being timed.
func (m *UploadModel) Active() bool { return m != nil && m.active }

// Count returns how many uploads were observed.
func (m *UploadModel) Count() int {
	if m == nil {
		return 0
	}
	return m.count
}
