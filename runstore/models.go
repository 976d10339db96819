package runstore

import "time"

// PipelineRun is one execution of a pipeline.
type PipelineRun struct {
	ID         string `gorm:"primaryKey"`
	Pipeline   string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Steps      []StepRun `gorm:"foreignKey:RunID"`
}

// StepRun is one finished step of a run.
type StepRun struct {
	ID         uint `gorm:"primaryKey"`
	RunID      string
	Step       string
	Status     string
	Error      string
	StartedAt  time.Time
	DurationMS int64          `gorm:"column:duration_ms"`
	Artifacts  []StepArtifact `gorm:"foreignKey:StepRunID"`
}

// Duration returns how long the step ran.
func (s StepRun) Duration() time.Duration {
	return time.Duration(s.DurationMS) * time.Millisecond
}

// StepArtifact is where a step persisted one of its outputs. Pipeline and
// step are denormalized for the latest-artifact lookup.
type StepArtifact struct {
	ID        uint `gorm:"primaryKey"`
	StepRunID uint
	RunID     string
	Pipeline  string
	Step      string
	Output    string
	Location  string
	CreatedAt time.Time
}
