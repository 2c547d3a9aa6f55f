package model

import "time"

// StageRecord captures the outcome of a single pipeline stage.
type StageRecord struct {
	Name      string        `json:"name"`
	Status    string        `json:"status"` // ok/warning/fatal
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// RunRecord is one journaled deployment run.
type RunRecord struct {
	ID         string        `json:"id"`
	Command    string        `json:"command"`
	Status     string        `json:"status"`
	Port       int           `json:"port"`
	Peers      int           `json:"peers"`
	Server     string        `json:"server,omitempty"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt,omitempty"`
	Stages     []StageRecord `json:"stages,omitempty"`
}
