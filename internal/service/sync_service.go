// Package service implements the sprint reconciliation engine: one
// synchronization pass converges the remote tracker's state to the computed
// desired state for a target ISO week.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/phrazzld/sprintsync/internal/domain"
)

// CreateOutcome is the terminal state of a create-only run. Callers must be
// able to distinguish "nothing to do" from "succeeded after doing work".
type CreateOutcome int

const (
	// OutcomeUnknown means the run failed before reaching a terminal state.
	OutcomeUnknown CreateOutcome = iota

	// SprintCreated means the sprint did not exist and was created.
	SprintCreated

	// SprintAlreadyExists means the sprint was already on the board and no
	// create call was issued.
	SprintAlreadyExists
)

// SyncParams identifies the reconciliation target for one pass.
type SyncParams struct {
	Board   string
	Project string
	Field   string
	// WeekSpec is a "YYYY.WW" week or empty for the current ISO week.
	WeekSpec string
	// Forward is how many future week sprints to ensure exist.
	Forward int
}

// SyncService orchestrates reconciliation passes against the tracker.
// All gateway calls within one pass are sequential; a failure aborts the
// pass and the caller decides whether to retry on a later tick.
type SyncService struct {
	gateway TrackerGateway
	logger  *slog.Logger
	now     func() time.Time
}

// NewSyncService creates a SyncService using the given gateway.
// A nil logger falls back to slog.Default().
func NewSyncService(gateway TrackerGateway, logger *slog.Logger) (*SyncService, error) {
	if gateway == nil {
		return nil, errors.New("gateway cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SyncService{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// ResolveWeek turns a week spec into the target week and its range.
// An empty spec selects the current ISO week of the UTC clock.
func (s *SyncService) ResolveWeek(spec string) (domain.ISOWeek, domain.WeekRange, error) {
	var week domain.ISOWeek
	if spec == "" {
		week = domain.CurrentWeek(s.now())
	} else {
		parsed, err := domain.ParseWeekSpec(spec)
		if err != nil {
			return domain.ISOWeek{}, domain.WeekRange{}, err
		}
		week = parsed
	}

	rng, err := domain.RangeForWeek(week.Year, week.Week)
	if err != nil {
		return domain.ISOWeek{}, domain.WeekRange{}, err
	}
	return week, rng, nil
}

// resolveBoard looks up a board and converts absence into a NotFoundError.
func (s *SyncService) resolveBoard(ctx context.Context, boardName string) (string, error) {
	boardID, found, err := s.gateway.FindBoardID(ctx, boardName)
	if err != nil {
		return "", fmt.Errorf("board lookup failed: %w", err)
	}
	if !found {
		return "", domain.NewNotFoundError(domain.KindBoard, boardName)
	}
	return boardID, nil
}

// EnsureSprintOnBoard guarantees a sprint with the given name exists on the
// board, creating it with the computed range only if absent. Re-running
// never duplicates a sprint.
func (s *SyncService) EnsureSprintOnBoard(
	ctx context.Context,
	boardName, sprintName string,
	rng domain.WeekRange,
) error {
	boardID, err := s.resolveBoard(ctx, boardName)
	if err != nil {
		return err
	}
	s.logger.Info("board resolved", "board", boardName, "board_id", boardID)

	sprintID, found, err := s.gateway.FindSprintID(ctx, boardID, sprintName)
	if err != nil {
		return fmt.Errorf("sprint lookup failed: %w", err)
	}
	if found {
		s.logger.Info("sprint already exists", "sprint", sprintName, "sprint_id", sprintID)
		return nil
	}

	s.logger.Info("creating sprint", "sprint", sprintName)
	sprint, err := s.gateway.CreateSprint(ctx, boardID, domain.SprintDraft{
		Name:   sprintName,
		Start:  rng.StartMillis,
		Finish: rng.FinishMillis,
	})
	if err != nil {
		return fmt.Errorf("sprint create failed: %w", err)
	}
	s.logger.Info("sprint created", "sprint", sprint.Name, "sprint_id", sprint.ID)
	return nil
}

// computeDesiredDefault resolves the project, field, and bundle value for
// the sprint name. A bundle value miss means the field's bundle has not been
// extended to include this week, a precondition failure of the remote setup.
func (s *SyncService) computeDesiredDefault(
	ctx context.Context,
	projectName, fieldName, sprintName string,
) (projectID, fieldID, valueID string, err error) {
	projectID, found, err := s.gateway.FindProjectID(ctx, projectName)
	if err != nil {
		return "", "", "", fmt.Errorf("project lookup failed: %w", err)
	}
	if !found {
		return "", "", "", domain.NewNotFoundError(domain.KindProject, projectName)
	}
	s.logger.Info("project resolved", "project", projectName, "project_id", projectID)

	fields, err := s.gateway.GetProjectFields(ctx, projectID)
	if err != nil {
		return "", "", "", fmt.Errorf("project fields fetch failed: %w", err)
	}

	var field *domain.ProjectField
	for i := range fields {
		if fields[i].Field.Name == fieldName {
			field = &fields[i]
			break
		}
	}
	if field == nil {
		return "", "", "", domain.NewNotFoundError(domain.KindField, fieldName)
	}
	s.logger.Info("field resolved", "field", fieldName, "field_id", field.ID)

	for _, value := range field.Bundle.Values {
		if value.Name == sprintName {
			s.logger.Info("bundle value matched", "sprint", sprintName, "value_id", value.ID)
			return projectID, field.ID, value.ID, nil
		}
	}
	return "", "", "", domain.NewNotFoundError(domain.KindBundleValue, sprintName)
}

// ReconcileDefaults converges the field's default-value set to desiredIDs
// with a minimal diff. When the remote set already matches, no write is
// issued, so repeated runs against a correct state produce zero mutations.
// Removals happen before additions, each in ascending ID order, so behavior
// and logs are reproducible across runs.
func (s *SyncService) ReconcileDefaults(
	ctx context.Context,
	projectID, fieldID string,
	desiredIDs []string,
) error {
	currentIDs, err := s.gateway.GetCurrentDefaultIDs(ctx, projectID, fieldID)
	if err != nil {
		return fmt.Errorf("default values fetch failed: %w", err)
	}

	desired := make(map[string]struct{}, len(desiredIDs))
	for _, id := range desiredIDs {
		desired[id] = struct{}{}
	}

	var toRemove, toAdd []string
	for id := range currentIDs {
		if _, ok := desired[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	for id := range desired {
		if _, ok := currentIDs[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	sort.Strings(toRemove)
	sort.Strings(toAdd)

	if len(toRemove) == 0 && len(toAdd) == 0 {
		s.logger.Info("defaults already up to date", "project_id", projectID, "field_id", fieldID)
		return nil
	}

	for _, id := range toRemove {
		alreadyAbsent, err := s.gateway.RemoveDefaultValue(ctx, projectID, fieldID, id)
		if err != nil {
			return fmt.Errorf("default value remove failed for %s: %w", id, err)
		}
		if alreadyAbsent {
			s.logger.Info("default value already absent", "value_id", id)
		} else {
			s.logger.Info("default value removed", "value_id", id)
		}
	}

	for _, id := range toAdd {
		if err := s.gateway.AddDefaultValue(ctx, projectID, fieldID, id); err != nil {
			return fmt.Errorf("default value add failed for %s: %w", id, err)
		}
		s.logger.Info("default value added", "value_id", id)
	}

	return nil
}

// verifyDefaults reads the field's defaults back after a write and logs the
// observed state.
func (s *SyncService) verifyDefaults(ctx context.Context, projectID, fieldID string) error {
	defaults, err := s.gateway.GetFieldDefaults(ctx, projectID, fieldID)
	if err != nil {
		return fmt.Errorf("default values verification failed: %w", err)
	}

	if len(defaults.DefaultValues) == 0 {
		s.logger.Warn("field has no default values", "field", defaults.Field.Name)
		return nil
	}
	for _, value := range defaults.DefaultValues {
		s.logger.Info("default value verified",
			"field", defaults.Field.Name,
			"value", value.Name,
			"value_id", value.ID)
	}
	return nil
}

// EnsureFutureSprints provisions sprints for the count weeks after baseWeek.
// Each week is checked and created independently: a failure for one week
// does not block later weeks, and all failures are aggregated into the
// returned error.
func (s *SyncService) EnsureFutureSprints(
	ctx context.Context,
	boardName string,
	baseWeek domain.ISOWeek,
	count int,
) error {
	if count <= 0 {
		return nil
	}

	boardID, err := s.resolveBoard(ctx, boardName)
	if err != nil {
		return err
	}

	var errs []error
	for i := 1; i <= count; i++ {
		week := baseWeek.Next(i)
		sprintName := week.SprintName()

		rng, err := domain.RangeForWeek(week.Year, week.Week)
		if err != nil {
			errs = append(errs, fmt.Errorf("future week %s: %w", week, err))
			continue
		}

		exists, err := s.gateway.SprintExists(ctx, boardID, sprintName)
		if err != nil {
			errs = append(errs, fmt.Errorf("future sprint lookup %q: %w", sprintName, err))
			continue
		}
		if exists {
			s.logger.Info("future sprint exists", "sprint", sprintName)
			continue
		}

		s.logger.Info("creating future sprint", "sprint", sprintName)
		if _, err := s.gateway.CreateSprint(ctx, boardID, domain.SprintDraft{
			Name:   sprintName,
			Start:  rng.StartMillis,
			Finish: rng.FinishMillis,
		}); err != nil {
			errs = append(errs, fmt.Errorf("future sprint create %q: %w", sprintName, err))
		}
	}

	return errors.Join(errs...)
}

// RunSyncOnce performs one full reconciliation pass: ensure the target
// week's sprint exists, point the project field's defaults at exactly that
// sprint, verify, and provision forward sprints.
func (s *SyncService) RunSyncOnce(ctx context.Context, params SyncParams) error {
	week, rng, err := s.ResolveWeek(params.WeekSpec)
	if err != nil {
		return err
	}
	sprintName := week.SprintName()

	s.logger.Info("starting sync pass",
		"week", week.String(),
		"monday", rng.Monday.Format("2006-01-02"),
		"friday", rng.Friday.Format("2006-01-02"),
		"sprint", sprintName)

	if err := s.EnsureSprintOnBoard(ctx, params.Board, sprintName, rng); err != nil {
		return err
	}

	projectID, fieldID, valueID, err := s.computeDesiredDefault(
		ctx, params.Project, params.Field, sprintName,
	)
	if err != nil {
		return err
	}

	if err := s.ReconcileDefaults(ctx, projectID, fieldID, []string{valueID}); err != nil {
		return err
	}

	if err := s.verifyDefaults(ctx, projectID, fieldID); err != nil {
		return err
	}

	if err := s.EnsureFutureSprints(ctx, params.Board, week, params.Forward); err != nil {
		return err
	}

	s.logger.Info("sync pass completed", "week", week.String())
	return nil
}

// CreateSprintForWeek ensures a sprint exists for the given week without
// touching project defaults. An existing sprint is the distinguished
// SprintAlreadyExists outcome, not an error.
func (s *SyncService) CreateSprintForWeek(
	ctx context.Context,
	boardName, weekSpec string,
) (CreateOutcome, error) {
	week, rng, err := s.ResolveWeek(weekSpec)
	if err != nil {
		return OutcomeUnknown, err
	}
	sprintName := week.SprintName()

	s.logger.Info("creating sprint for week",
		"week", week.String(),
		"monday", rng.Monday.Format("2006-01-02"),
		"friday", rng.Friday.Format("2006-01-02"),
		"sprint", sprintName)

	boardID, err := s.resolveBoard(ctx, boardName)
	if err != nil {
		return OutcomeUnknown, err
	}

	exists, err := s.gateway.SprintExists(ctx, boardID, sprintName)
	if err != nil {
		return OutcomeUnknown, fmt.Errorf("sprint lookup failed: %w", err)
	}
	if exists {
		s.logger.Warn("sprint already exists", "sprint", sprintName)
		return SprintAlreadyExists, nil
	}

	sprint, err := s.gateway.CreateSprint(ctx, boardID, domain.SprintDraft{
		Name:   sprintName,
		Start:  rng.StartMillis,
		Finish: rng.FinishMillis,
	})
	if err != nil {
		return OutcomeUnknown, fmt.Errorf("sprint create failed: %w", err)
	}

	s.logger.Info("sprint created", "sprint", sprint.Name, "sprint_id", sprint.ID)
	return SprintCreated, nil
}
