package schedule_test

import (
	"context"
	"database/sql"
	"sort"

	"go-timeclock/internal/schedule"
	scheduleerrors "go-timeclock/internal/schedule/errors"

	"github.com/google/uuid"
)

// memRepo keeps assignments and templates in memory; fn fields override behaviour.
type memRepo struct {
	templates   map[uuid.UUID]*schedule.Template
	assignments []schedule.Assignment

	lockTargetFn       func(ctx context.Context, target schedule.Target) error
	createAssignmentFn func(ctx context.Context, a *schedule.Assignment) error
	locked             []schedule.Target
}

func newMemRepo() *memRepo {
	return &memRepo{templates: map[uuid.UUID]*schedule.Template{}}
}

func (m *memRepo) addTemplate(orgID uuid.UUID, slots ...schedule.Slot) *schedule.Template {
	tpl := &schedule.Template{ID: uuid.New(), OrganizationID: orgID, Name: "tpl", IsActive: true}
	for i, s := range slots {
		s.ID = uuid.New()
		s.TemplateID = tpl.ID
		s.Position = i
		tpl.Slots = append(tpl.Slots, s)
	}
	m.templates[tpl.ID] = tpl
	return tpl
}

func (m *memRepo) assign(a schedule.Assignment) schedule.Assignment {
	a.ID = uuid.New()
	a.IsActive = true
	m.assignments = append(m.assignments, a)
	return a
}

func (m *memRepo) WithTx(tx *sql.Tx) schedule.Repository { return m }

func (m *memRepo) LockTarget(ctx context.Context, target schedule.Target) error {
	m.locked = append(m.locked, target)
	if m.lockTargetFn != nil {
		return m.lockTargetFn(ctx, target)
	}
	return nil
}

func (m *memRepo) CreateTemplate(ctx context.Context, t *schedule.Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *memRepo) FindTemplateWithSlots(ctx context.Context, id uuid.UUID) (*schedule.Template, error) {
	tpl, ok := m.templates[id]
	if !ok {
		return nil, scheduleerrors.ErrTemplateNotFound
	}
	return tpl, nil
}

func (m *memRepo) CreateAssignment(ctx context.Context, a *schedule.Assignment) error {
	if m.createAssignmentFn != nil {
		return m.createAssignmentFn(ctx, a)
	}
	a.ID = uuid.New()
	m.assignments = append(m.assignments, *a)
	return nil
}

func (m *memRepo) FindActiveAssignmentsByTarget(ctx context.Context, target schedule.Target) ([]schedule.Assignment, error) {
	var out []schedule.Assignment
	for _, a := range m.assignments {
		if a.IsActive && a.Target == target {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepo) FindActiveAssignmentsForTeams(ctx context.Context, teamIDs []uuid.UUID) ([]schedule.Assignment, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range teamIDs {
		want[id] = true
	}
	var out []schedule.Assignment
	for _, a := range m.assignments {
		if a.IsActive && a.Target.Kind() == schedule.TargetTeam && want[a.Target.TargetID()] {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Target.TargetID().String() < out[j].Target.TargetID().String()
	})
	return out, nil
}
