package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/reporttype"
	"github.com/andy/timebill/internal/repository"
)

// fakeWorktimeRepo is a stateful in-memory WorktimeRepository.
type fakeWorktimeRepo struct {
	worktimes   map[int64]*domain.Worktime
	nextID      int64
	findOpenErr error
}

func newFakeWorktimeRepo() *fakeWorktimeRepo {
	return &fakeWorktimeRepo{worktimes: map[int64]*domain.Worktime{}, nextID: 1}
}

func (f *fakeWorktimeRepo) Create(ctx context.Context, w *domain.Worktime) error {
	w.ID = f.nextID
	f.nextID++
	stored := *w
	f.worktimes[w.ID] = &stored
	return nil
}

func (f *fakeWorktimeRepo) Update(ctx context.Context, w *domain.Worktime) error {
	if _, ok := f.worktimes[w.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *w
	f.worktimes[w.ID] = &stored
	return nil
}

func (f *fakeWorktimeRepo) GetByID(ctx context.Context, id int64) (*domain.Worktime, error) {
	if w, ok := f.worktimes[id]; ok {
		copy := *w
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorktimeRepo) List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error) {
	return nil, nil
}

func (f *fakeWorktimeRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.worktimes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.worktimes, id)
	return nil
}

func (f *fakeWorktimeRepo) FindOpen(ctx context.Context, employeeID int64) (*domain.Worktime, error) {
	if f.findOpenErr != nil {
		return nil, f.findOpenErr
	}
	for _, w := range f.worktimes {
		if w.EmployeeID == employeeID && w.Open() {
			copy := *w
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeWorktimeRepo) SumHoursByWorkItem(ctx context.Context, filter repository.BillingFilter) ([]repository.WorkItemHours, error) {
	return nil, nil
}

func (f *fakeWorktimeRepo) SumHoursByWorkItemAndEmployee(ctx context.Context, filter repository.BillingFilter) ([]repository.WorkItemEmployeeHours, error) {
	return nil, nil
}

func newWorktimeService() (WorktimeService, *fakeWorktimeRepo) {
	repo := newFakeWorktimeRepo()
	return NewWorktimeService(repo, zerolog.Nop()), repo
}

func TestCreateWorktime(t *testing.T) {
	svc, repo := newWorktimeService()

	w := &domain.Worktime{
		Kind:       domain.KindOrdertime,
		EmployeeID: 1,
		WorkItemID: 2,
		ReportType: "absolute_day",
		WorkDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Hours:      8,
		Billable:   true,
	}

	if err := svc.Create(context.Background(), w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID == 0 {
		t.Error("expected an assigned ID")
	}
	if _, ok := repo.worktimes[w.ID]; !ok {
		t.Error("worktime was not persisted")
	}
}

func TestCreateWorktime_InvalidHours(t *testing.T) {
	svc, repo := newWorktimeService()

	w := &domain.Worktime{ReportType: "absolute_day", Hours: 0}
	err := svc.Create(context.Background(), w)

	var ferrs domain.FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if len(ferrs.On("hours")) != 1 {
		t.Errorf("expected an hours error, got %v", ferrs)
	}
	if len(repo.worktimes) != 0 {
		t.Error("nothing may be persisted for an invalid worktime")
	}
}

func TestCreateWorktime_UnknownReportType(t *testing.T) {
	svc, _ := newWorktimeService()

	w := &domain.Worktime{ReportType: "bogus", Hours: 8}
	if err := svc.Create(context.Background(), w); !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("expected ErrUnknownReportType, got %v", err)
	}
}

func TestStartTimer(t *testing.T) {
	svc, _ := newWorktimeService()

	w, err := svc.Start(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.ReportType != reporttype.AutoStart.Key() {
		t.Errorf("expected auto_start, got %s", w.ReportType)
	}
	if w.FromStartTime == nil {
		t.Error("expected a start instant")
	}
	if !w.Open() {
		t.Error("a started entry must be open")
	}
}

func TestStartTimer_SecondOpenEntryRefused(t *testing.T) {
	svc, _ := newWorktimeService()

	if _, err := svc.Start(context.Background(), 1, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Start(context.Background(), 1, 2)
	var ferrs domain.FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if len(ferrs.On("employee_id")) != 1 {
		t.Errorf("expected an open-entry conflict, got %v", ferrs)
	}

	// Another employee's timer is unaffected
	if _, err := svc.Start(context.Background(), 2, 2); err != nil {
		t.Errorf("unexpected error for second employee: %v", err)
	}
}

func TestStartTimer_OpenLookupFails(t *testing.T) {
	svc, repo := newWorktimeService()
	repo.findOpenErr = errors.New("database is locked")

	_, err := svc.Start(context.Background(), 1, 2)
	if !errors.Is(err, repo.findOpenErr) {
		t.Fatalf("expected the lookup error, got %v", err)
	}

	var ferrs domain.FieldErrors
	if errors.As(err, &ferrs) {
		t.Errorf("a failed lookup is not a validation result: %v", ferrs)
	}
	if len(repo.worktimes) != 0 {
		t.Error("nothing may be persisted when the lookup fails")
	}
}

func TestStopTimer(t *testing.T) {
	svc, repo := newWorktimeService()

	started, err := svc.Start(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Backdate the start so the duration is measurable
	past := time.Now().Add(-2 * time.Hour)
	stored := repo.worktimes[started.ID]
	stored.FromStartTime = &past

	stopped, err := svc.Stop(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stopped.ReportType != reporttype.StartStopDay.Key() {
		t.Errorf("expected conversion to start_stop_day, got %s", stopped.ReportType)
	}
	if stopped.ToEndTime == nil {
		t.Error("expected an end instant")
	}
	if stopped.Hours < 1.9 || stopped.Hours > 2.1 {
		t.Errorf("expected roughly 2 hours, got %f", stopped.Hours)
	}
	if stopped.Open() {
		t.Error("a stopped entry must not be open")
	}
}

func TestStopTimer_NoneRunning(t *testing.T) {
	svc, _ := newWorktimeService()

	if _, err := svc.Stop(context.Background(), 1); !errors.Is(err, ErrNoOpenWorktime) {
		t.Errorf("expected ErrNoOpenWorktime, got %v", err)
	}
}

func TestUpdateWorktime_BilledRefused(t *testing.T) {
	svc, repo := newWorktimeService()

	invoiceID := int64(5)
	repo.worktimes[1] = &domain.Worktime{
		ID: 1, ReportType: "absolute_day", Hours: 8, InvoiceID: &invoiceID,
	}

	w := &domain.Worktime{ID: 1, ReportType: "absolute_day", Hours: 4}
	if err := svc.Update(context.Background(), w); !errors.Is(err, ErrWorktimeBilled) {
		t.Errorf("expected ErrWorktimeBilled, got %v", err)
	}

	if err := svc.Delete(context.Background(), 1); !errors.Is(err, ErrWorktimeBilled) {
		t.Errorf("expected ErrWorktimeBilled on delete, got %v", err)
	}
}

func TestChangeReportType_ClockedToSummary(t *testing.T) {
	svc, repo := newWorktimeService()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	repo.worktimes[1] = &domain.Worktime{
		ID: 1, ReportType: "start_stop_day", Hours: 2,
		WorkDate: start, FromStartTime: &start, ToEndTime: &end,
	}

	w, err := svc.ChangeReportType(context.Background(), 1, "absolute_day")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.ReportType != "absolute_day" {
		t.Errorf("expected absolute_day, got %s", w.ReportType)
	}
	if w.Hours != 2 {
		t.Errorf("hours must carry over, got %f", w.Hours)
	}
	if w.FromStartTime != nil || w.ToEndTime != nil {
		t.Error("summary variants must not carry instants")
	}
}

func TestChangeReportType_SummaryToClocked(t *testing.T) {
	svc, repo := newWorktimeService()

	repo.worktimes[1] = &domain.Worktime{
		ID: 1, ReportType: "absolute_day", Hours: 8,
		WorkDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	// A summary entry has no instants, so the clocked target cannot
	// validate without them.
	_, err := svc.ChangeReportType(context.Background(), 1, "start_stop_day")
	var ferrs domain.FieldErrors
	if !errors.As(err, &ferrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if len(ferrs.On("from_start_time")) != 1 {
		t.Errorf("expected a start time error, got %v", ferrs)
	}
}

func TestChangeReportType_UnknownKey(t *testing.T) {
	svc, repo := newWorktimeService()
	repo.worktimes[1] = &domain.Worktime{ID: 1, ReportType: "absolute_day", Hours: 8}

	if _, err := svc.ChangeReportType(context.Background(), 1, "bogus"); !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("expected ErrUnknownReportType, got %v", err)
	}
}
