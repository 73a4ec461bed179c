package monitor

import "time"

// Status is the latest dependency snapshot. A dependency that is not
// configured is reported as disabled and never counts against IsOnline.
type Status struct {
	Storage    string    `json:"storage"`
	PostgreSQL Check     `json:"postgresql"`
	Redis      Check     `json:"redis"`
	Queue      Check     `json:"stale_queue"`
	QueueSize  int       `json:"stale_queue_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Check is the state of one dependency.
type Check struct {
	Enabled bool `json:"enabled"`
	Healthy bool `json:"healthy"`
}

func (c Check) ok() bool {
	return !c.Enabled || c.Healthy
}

// Online reports whether every configured dependency answered.
func (s Status) Online() bool {
	return s.PostgreSQL.ok() && s.Redis.ok() && s.Queue.ok()
}
