package domain

// Typed shapes for the YouTrack entities the engine works with. The gateway
// decodes API responses directly into these; untyped maps never cross the
// gateway boundary.

// Board is an agile board. Sprints are identified by name within one board.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project is a YouTrack project that owns custom fields.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Sprint is a named, dated iteration on a board. The engine creates sprints
// but never updates or deletes them.
type Sprint struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Start  int64  `json:"start"`
	Finish int64  `json:"finish"`
}

// SprintDraft is the payload for creating a sprint. Start and Finish are
// UTC epoch milliseconds.
type SprintDraft struct {
	Name   string `json:"name"`
	Start  int64  `json:"start"`
	Finish int64  `json:"finish"`
}

// BundleValue is one candidate value of a sprint-typed field's bundle,
// one entry per sprint.
type BundleValue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FieldInfo is the field prototype attached to a project custom field.
type FieldInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Bundle is the value set a sprint-typed field may take.
type Bundle struct {
	ID     string        `json:"id"`
	Values []BundleValue `json:"values"`
}

// ProjectField is a custom field attached to a project, including the
// bundle values needed to translate a sprint name into a value ID.
type ProjectField struct {
	ID     string    `json:"id"`
	Field  FieldInfo `json:"field"`
	Bundle Bundle    `json:"bundle"`
}

// FieldDefaults describes the current default values of a project field.
type FieldDefaults struct {
	Field         FieldInfo     `json:"field"`
	DefaultValues []BundleValue `json:"defaultValues"`
}
