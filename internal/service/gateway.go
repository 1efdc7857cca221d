package service

import (
	"context"

	"github.com/phrazzld/sprintsync/internal/domain"
)

// TrackerGateway is the capability set the reconciliation engine needs from
// the remote tracker. The engine depends only on this interface; transport
// detail lives in internal/platform/youtrack.
//
// Find* methods report absence through the found flag, not an error, so
// callers can distinguish "does not exist" from "lookup failed".
type TrackerGateway interface {
	// FindBoardID looks up an agile board by exact name.
	FindBoardID(ctx context.Context, name string) (id string, found bool, err error)

	// FindProjectID looks up a project by exact name.
	FindProjectID(ctx context.Context, name string) (id string, found bool, err error)

	// FindSprintID looks up a sprint by exact name on a board.
	FindSprintID(ctx context.Context, boardID, name string) (id string, found bool, err error)

	// SprintExists reports whether a sprint with the given name exists on the board.
	SprintExists(ctx context.Context, boardID, name string) (bool, error)

	// CreateSprint creates a new sprint on the board.
	CreateSprint(ctx context.Context, boardID string, draft domain.SprintDraft) (*domain.Sprint, error)

	// GetProjectFields fetches the project's custom fields with bundle values.
	GetProjectFields(ctx context.Context, projectID string) ([]domain.ProjectField, error)

	// GetFieldDefaults fetches the field's name and current default values.
	GetFieldDefaults(ctx context.Context, projectID, fieldID string) (*domain.FieldDefaults, error)

	// GetCurrentDefaultIDs fetches the set of value IDs currently marked default.
	GetCurrentDefaultIDs(ctx context.Context, projectID, fieldID string) (map[string]struct{}, error)

	// AddDefaultValue marks a bundle value as a default for the field.
	AddDefaultValue(ctx context.Context, projectID, fieldID, valueID string) error

	// RemoveDefaultValue unmarks a bundle value as a default for the field.
	// A value the server reports as already gone is success, signalled via
	// alreadyAbsent.
	RemoveDefaultValue(ctx context.Context, projectID, fieldID, valueID string) (alreadyAbsent bool, err error)
}
