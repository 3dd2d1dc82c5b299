package v1alpha1

// JobStatus is the lifecycle status reported by the extraction service.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusError      JobStatus = "error"
)

// ParcoursType selects which task-list template is applied to a property.
type ParcoursType string

const (
	ParcoursMenage   ParcoursType = "menage"
	ParcoursVoyageur ParcoursType = "voyageur"
)

// ExtractionJob tracks one asynchronous extraction performed by the
// scraping service for a single listing URL. It lives only for the
// duration of the request and is mutated exclusively by poll responses.
type ExtractionJob struct {
	ID       string    `json:"extraction_id"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
	Error    string    `json:"error,omitempty"`
}

// PhotoRef is a remote photo reference as produced by the extraction source.
type PhotoRef struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// RawTask is a generated task as produced by the extraction source.
// The title may carry a leading pictographic marker.
type RawTask struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	PhotoRequired bool   `json:"photo_required"`
}

// RawRoomTasks groups the generated tasks of one raw room.
type RawRoomTasks struct {
	AIGeneratedTasks []RawTask `json:"ai_generated_tasks"`
}

// RawStats are the extraction service's self-reported counters. They are
// advisory only; the aggregator always recomputes its own.
type RawStats struct {
	RoomCount  int `json:"room_count"`
	TaskCount  int `json:"task_count"`
	PhotoCount int `json:"photo_count"`
}

// RawPropertyInfo holds listing-level metadata.
type RawPropertyInfo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// RawExtraction is the full payload returned by a completed extraction job.
// Rooms and Tasks are keyed by the raw room label.
type RawExtraction struct {
	PropertyInfo RawPropertyInfo         `json:"property_info"`
	Rooms        map[string][]PhotoRef   `json:"rooms"`
	Tasks        map[string]RawRoomTasks `json:"tasks"`
	Stats        RawStats                `json:"stats"`
}

// Task is a normalized task ready for dispatch.
type Task struct {
	Glyph         string `json:"glyph"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PhotoRequired bool   `json:"photoRequired"`
}

// Photo is a materialized photo: inline data URI when the fetch succeeded,
// the original remote URL otherwise.
type Photo struct {
	Data    string `json:"data"`
	Caption string `json:"caption,omitempty"`
	Inline  bool   `json:"inline"`
}

// CanonicalRoom is one canonical room bucket of the property model.
// Quantity counts how many raw rooms were merged into the bucket.
type CanonicalRoom struct {
	Category string  `json:"category"`
	Label    string  `json:"label"`
	Quantity int     `json:"quantity"`
	Tasks    []Task  `json:"tasks"`
	Photos   []Photo `json:"photos"`
}

// PropertyModel is the normalized representation of a property's rooms,
// tasks and photos, ready for downstream dispatch. Counters are always
// recomputed from the room list.
type PropertyModel struct {
	Title      string          `json:"title"`
	Parcours   ParcoursType    `json:"parcoursType"`
	Rooms      []CanonicalRoom `json:"rooms"`
	RoomCount  int             `json:"roomCount"`
	TaskCount  int             `json:"taskCount"`
	PhotoCount int             `json:"photoCount"`
}

// ExtractionRequest is the inbound API request body.
type ExtractionRequest struct {
	URL            string `json:"url" validate:"required,marketplace_url"`
	ConciergerieID string `json:"conciergerieID" validate:"required"`
	UserID         string `json:"userID" validate:"required"`
	IsTestMode     *bool  `json:"isTestMode" validate:"required"`
	ParcoursType   string `json:"parcoursType,omitempty" validate:"omitempty,parcours_type"`
	LogementID     string `json:"logementID,omitempty"`
}

// ExtractionReply is the inbound API success response body.
type ExtractionReply struct {
	Success      bool           `json:"success"`
	ExtractionID string         `json:"extractionId"`
	ParcoursType ParcoursType   `json:"parcoursType"`
	Message      string         `json:"message"`
	Data         *PropertyModel `json:"data,omitempty"`
}

// ErrorReply is the inbound API failure response body.
type ErrorReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
