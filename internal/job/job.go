// Package job provides the Job aggregate for one split run and the
// SplitService that drives it. A Job moves through a small state machine
// and records what happened to every planned segment.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/maauso/wavsplit/internal/audio"
	"github.com/maauso/wavsplit/internal/job/id"
	"github.com/maauso/wavsplit/internal/pcm"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusPending indicates the run has been created but not started.
	StatusPending Status = "PENDING"
	// StatusAnalyzing indicates levels are being measured and segments planned.
	StatusAnalyzing Status = "ANALYZING"
	// StatusWriting indicates segment files are being written.
	StatusWriting Status = "WRITING"
	// StatusCompleted indicates every planned segment was written.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the run stopped on an error.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the run was interrupted.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusAnalyzing, StatusFailed, StatusCancelled},
	StatusAnalyzing: {StatusWriting, StatusFailed, StatusCancelled},
	StatusWriting:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// SegmentStatus represents the status of a single planned segment.
type SegmentStatus string

const (
	// SegmentStatusPending indicates the segment has not been written yet.
	SegmentStatusPending SegmentStatus = "PENDING"
	// SegmentStatusWritten indicates the segment file is complete.
	SegmentStatusWritten SegmentStatus = "WRITTEN"
	// SegmentStatusSimulated indicates the segment was only logged.
	SegmentStatusSimulated SegmentStatus = "SIMULATED"
	// SegmentStatusFailed indicates writing the segment failed.
	SegmentStatusFailed SegmentStatus = "FAILED"
)

// Segment is one planned output file and what became of it.
type Segment struct {
	audio.Segment

	// Status is the current write status.
	Status SegmentStatus
	// Path is the output file path.
	Path string
	// URL is the published object URL, if publishing is enabled.
	URL string
	// Error contains the error message if writing failed.
	Error string
}

// Job represents one split run.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this run.
	ID string
	// Status is the current run state.
	Status Status
	// InputPath is the WAV file being split.
	InputPath string
	// OutputDir is the directory segments are written to.
	OutputDir string
	// Simulate is set when no files are written.
	Simulate bool
	// Format is the audio format of the input.
	Format pcm.Format
	// Duration is the input length in seconds.
	Duration float64
	// Silences are the detected silence intervals.
	Silences []audio.Interval
	// Segments are the planned segments in output order.
	Segments []Segment
	// Error contains any error message if the run failed.
	Error string
	// CreatedAt is when the run was created.
	CreatedAt time.Time
	// UpdatedAt is when the run was last updated.
	UpdatedAt time.Time
	// StartedAt is when analysis started.
	StartedAt time.Time
	// CompletedAt is when the run reached a terminal state.
	CompletedAt time.Time
}

// New creates a new Job for inputPath with a generated ID and PENDING status.
func New(inputPath string) *Job {
	return NewWithID(id.Generate(), inputPath)
}

// NewWithID creates a new Job with the specified ID and PENDING status.
func NewWithID(jobID, inputPath string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusPending,
		InputPath: inputPath,
		Segments:  make([]Segment, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusAnalyzing:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// StartAnalysis transitions the job from PENDING to ANALYZING.
func (j *Job) StartAnalysis() error {
	return j.TransitionTo(StatusAnalyzing)
}

// StartWriting transitions the job from ANALYZING to WRITING.
func (j *Job) StartWriting() error {
	return j.TransitionTo(StatusWriting)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetAnalysis records the analysis result and marks every planned segment pending.
func (j *Job) SetAnalysis(a *audio.Analysis) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.Format = a.Format
	j.Duration = a.Duration
	j.Silences = a.Silences
	j.Segments = make([]Segment, len(a.Segments))
	for i, seg := range a.Segments {
		j.Segments[i] = Segment{Segment: seg, Status: SegmentStatusPending}
	}
	j.UpdatedAt = time.Now()
}

// UpdateSegment updates a specific segment by index.
func (j *Job) UpdateSegment(index int, seg Segment) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if index >= 0 && index < len(j.Segments) {
		j.Segments[index] = seg
		j.UpdatedAt = time.Now()
	}
}

// Progress returns the percentage of planned segments that are done (0-100).
func (j *Job) Progress() int {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if len(j.Segments) == 0 {
		return 0
	}
	done := 0
	for _, s := range j.Segments {
		if s.Status == SegmentStatusWritten || s.Status == SegmentStatusSimulated {
			done++
		}
	}
	return done * 100 / len(j.Segments)
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	silences := make([]audio.Interval, len(j.Silences))
	copy(silences, j.Silences)
	segments := make([]Segment, len(j.Segments))
	copy(segments, j.Segments)

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		InputPath:   j.InputPath,
		OutputDir:   j.OutputDir,
		Simulate:    j.Simulate,
		Format:      j.Format,
		Duration:    j.Duration,
		Silences:    silences,
		Segments:    segments,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
