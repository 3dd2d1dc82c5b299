package extraction

import "fmt"

// ErrRemoteUnavailable means the extraction service could not be reached at
// all. Callers may retry.
type ErrRemoteUnavailable struct {
	error
}

func NewErrRemoteUnavailable(err error) *ErrRemoteUnavailable {
	return &ErrRemoteUnavailable{fmt.Errorf("extraction service unavailable: %w", err)}
}

// ErrRemoteExtraction means the extraction service itself reported a failure
// for the job. It carries the remote message.
type ErrRemoteExtraction struct {
	error
	Message string
}

func NewErrRemoteExtraction(jobID, message string) *ErrRemoteExtraction {
	return &ErrRemoteExtraction{
		error:   fmt.Errorf("extraction %s failed remotely: %s", jobID, message),
		Message: message,
	}
}

// ErrTimeout means polling or streaming exceeded its configured bound before
// the job reached a terminal state. Callers may retry.
type ErrTimeout struct {
	error
}

func NewErrTimeout(jobID string, attempts int) *ErrTimeout {
	return &ErrTimeout{fmt.Errorf("extraction %s did not complete within %d poll attempts", jobID, attempts)}
}

func NewErrStreamTimeout(jobID string) *ErrTimeout {
	return &ErrTimeout{fmt.Errorf("extraction %s stream produced no terminal event before the deadline", jobID)}
}

// ErrJobGone means the remote job id is unknown. The job cannot reappear, so
// polling stops immediately instead of retrying.
type ErrJobGone struct {
	error
}

func NewErrJobGone(jobID string) *ErrJobGone {
	return &ErrJobGone{fmt.Errorf("extraction %s not found on the remote service", jobID)}
}
