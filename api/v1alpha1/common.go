package v1alpha1

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusCompleted):
		return JobStatusCompleted
	case string(JobStatusError):
		return JobStatusError
	default:
		return JobStatusProcessing
	}
}

// StringToParcoursType maps a raw string to a parcours type. The source
// never defines deterministic selection logic, so the menage template is
// the documented default.
func StringToParcoursType(s string) ParcoursType {
	switch s {
	case string(ParcoursVoyageur):
		return ParcoursVoyageur
	default:
		return ParcoursMenage
	}
}

// Terminal reports whether the job reached a final state.
func (j *ExtractionJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusError
}
