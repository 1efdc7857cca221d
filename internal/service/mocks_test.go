package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/phrazzld/sprintsync/internal/domain"
)

// fakeGateway is an in-memory TrackerGateway that records every mutating
// call so tests can assert on exactly which writes a pass issued.
type fakeGateway struct {
	mu sync.Mutex

	boards   map[string]string            // board name -> id
	projects map[string]string            // project name -> id
	sprints  map[string]map[string]string // board id -> sprint name -> id
	fields   map[string][]domain.ProjectField
	defaults map[string]map[string]struct{} // project id + field id -> value id set

	nextSprintID int

	createCalls []domain.SprintDraft
	addCalls    []string
	removeCalls []string

	// failCreateFor makes CreateSprint fail for specific sprint names.
	failCreateFor map[string]error
	// errOn injects an error into the named read operation.
	errOn map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		boards:        make(map[string]string),
		projects:      make(map[string]string),
		sprints:       make(map[string]map[string]string),
		fields:        make(map[string][]domain.ProjectField),
		defaults:      make(map[string]map[string]struct{}),
		nextSprintID:  1,
		failCreateFor: make(map[string]error),
		errOn:         make(map[string]error),
	}
}

func (g *fakeGateway) defaultsKey(projectID, fieldID string) string {
	return projectID + "/" + fieldID
}

func (g *fakeGateway) addBoard(name, id string) {
	g.boards[name] = id
	g.sprints[id] = make(map[string]string)
}

func (g *fakeGateway) addSprint(boardID, name, id string) {
	g.sprints[boardID][name] = id
}

func (g *fakeGateway) setDefaults(projectID, fieldID string, ids ...string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	g.defaults[g.defaultsKey(projectID, fieldID)] = set
}

func (g *fakeGateway) FindBoardID(_ context.Context, name string) (string, bool, error) {
	if err := g.errOn["FindBoardID"]; err != nil {
		return "", false, err
	}
	id, ok := g.boards[name]
	return id, ok, nil
}

func (g *fakeGateway) FindProjectID(_ context.Context, name string) (string, bool, error) {
	if err := g.errOn["FindProjectID"]; err != nil {
		return "", false, err
	}
	id, ok := g.projects[name]
	return id, ok, nil
}

func (g *fakeGateway) FindSprintID(_ context.Context, boardID, name string) (string, bool, error) {
	if err := g.errOn["FindSprintID"]; err != nil {
		return "", false, err
	}
	id, ok := g.sprints[boardID][name]
	return id, ok, nil
}

func (g *fakeGateway) SprintExists(ctx context.Context, boardID, name string) (bool, error) {
	if err := g.errOn["SprintExists"]; err != nil {
		return false, err
	}
	_, found, err := g.FindSprintID(ctx, boardID, name)
	return found, err
}

func (g *fakeGateway) CreateSprint(
	_ context.Context,
	boardID string,
	draft domain.SprintDraft,
) (*domain.Sprint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failCreateFor[draft.Name]; err != nil {
		return nil, err
	}

	g.createCalls = append(g.createCalls, draft)

	id := fmt.Sprintf("sprint-%d", g.nextSprintID)
	g.nextSprintID++
	g.sprints[boardID][draft.Name] = id

	return &domain.Sprint{
		ID:     id,
		Name:   draft.Name,
		Start:  draft.Start,
		Finish: draft.Finish,
	}, nil
}

func (g *fakeGateway) GetProjectFields(_ context.Context, projectID string) ([]domain.ProjectField, error) {
	if err := g.errOn["GetProjectFields"]; err != nil {
		return nil, err
	}
	return g.fields[projectID], nil
}

func (g *fakeGateway) GetFieldDefaults(
	_ context.Context,
	projectID, fieldID string,
) (*domain.FieldDefaults, error) {
	if err := g.errOn["GetFieldDefaults"]; err != nil {
		return nil, err
	}

	var fieldName string
	var values []domain.BundleValue
	for _, field := range g.fields[projectID] {
		if field.ID != fieldID {
			continue
		}
		fieldName = field.Field.Name
		for _, value := range field.Bundle.Values {
			if _, ok := g.defaults[g.defaultsKey(projectID, fieldID)][value.ID]; ok {
				values = append(values, value)
			}
		}
	}

	return &domain.FieldDefaults{
		Field:         domain.FieldInfo{Name: fieldName},
		DefaultValues: values,
	}, nil
}

func (g *fakeGateway) GetCurrentDefaultIDs(
	_ context.Context,
	projectID, fieldID string,
) (map[string]struct{}, error) {
	if err := g.errOn["GetCurrentDefaultIDs"]; err != nil {
		return nil, err
	}

	ids := make(map[string]struct{})
	for id := range g.defaults[g.defaultsKey(projectID, fieldID)] {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (g *fakeGateway) AddDefaultValue(_ context.Context, projectID, fieldID, valueID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.errOn["AddDefaultValue"]; err != nil {
		return err
	}

	g.addCalls = append(g.addCalls, valueID)
	key := g.defaultsKey(projectID, fieldID)
	if g.defaults[key] == nil {
		g.defaults[key] = make(map[string]struct{})
	}
	g.defaults[key][valueID] = struct{}{}
	return nil
}

func (g *fakeGateway) RemoveDefaultValue(
	_ context.Context,
	projectID, fieldID, valueID string,
) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.errOn["RemoveDefaultValue"]; err != nil {
		return false, err
	}

	g.removeCalls = append(g.removeCalls, valueID)
	key := g.defaultsKey(projectID, fieldID)
	if _, ok := g.defaults[key][valueID]; !ok {
		return true, nil
	}
	delete(g.defaults[key], valueID)
	return false, nil
}

// resetCalls clears the recorded mutation log between runs.
func (g *fakeGateway) resetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls = nil
	g.addCalls = nil
	g.removeCalls = nil
}
