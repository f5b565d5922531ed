package app

import "time"

// Task is a scheduled callback that can be canceled before it runs.
type Task interface {
	// Cancel prevents the callback from running. It reports whether the call
	// stopped the task; false means the callback already ran or is running.
	Cancel() bool
}

// Scheduler runs delayed callbacks.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// TimerScheduler schedules callbacks on the runtime timer.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return timerTask{t: time.AfterFunc(d, f)}
}

type timerTask struct {
	t *time.Timer
}

func (t timerTask) Cancel() bool {
	return t.t.Stop()
}
