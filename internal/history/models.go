package history

import "time"

// Status represents the lifecycle state of a publish run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusBuilding   Status = "building"
	StatusBuilt      Status = "built"
	StatusPublishing Status = "publishing"
	StatusPublished  Status = "published"
	StatusNotifying  Status = "notifying"
	StatusNotified   Status = "notified"
	StatusFailed     Status = "failed"
)

// transitions lists the forward edges of the status machine. Failed is
// reachable from every non-terminal status.
var transitions = map[Status][]Status{
	StatusPending:    {StatusBuilding, StatusPublishing, StatusFailed},
	StatusBuilding:   {StatusBuilt, StatusFailed},
	StatusBuilt:      {StatusPublishing, StatusFailed},
	StatusPublishing: {StatusPublished, StatusFailed},
	StatusPublished:  {StatusNotifying, StatusNotified, StatusFailed},
	StatusNotifying:  {StatusNotified, StatusFailed},
}

// processingCheckpoints maps in-flight statuses to the checkpoint a stuck run
// resets to when the store reopens after a crash.
var processingCheckpoints = map[Status]Status{
	StatusBuilding:   StatusPending,
	StatusPublishing: StatusBuilt,
	StatusNotifying:  StatusPublished,
}

// Terminal reports whether the status ends the run.
func (s Status) Terminal() bool {
	return s == StatusNotified || s == StatusFailed
}

// CanTransition reports whether the machine allows moving to next.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Run is one publish attempt for a tag.
type Run struct {
	ID           int64
	TagName      string
	Version      string
	Channel      string
	Status       Status
	NotesDigest  string
	ReleaseURL   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  *time.Time
	NotifiedAt   *time.Time
}
