package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andy/timebill/internal/domain"
	"github.com/andy/timebill/internal/reporttype"
	"github.com/andy/timebill/internal/repository"
)

var (
	// ErrUnknownReportType signals a worktime carrying a report type key
	// outside the registry. This is a configuration error, not a user
	// validation failure.
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrNoOpenWorktime is returned by Stop when the employee has no
	// running entry.
	ErrNoOpenWorktime = errors.New("no open worktime")

	// ErrWorktimeBilled refuses mutation of an entry an invoice has
	// already consumed.
	ErrWorktimeBilled = errors.New("worktime is assigned to an invoice")
)

// WorktimeService manages worktime recording, the start/stop timer
// workflow and report type conversion.
type WorktimeService interface {
	// Create validates and persists a new worktime under its report
	// type's rules.
	Create(ctx context.Context, w *domain.Worktime) error

	// Update re-validates and saves an existing worktime. Billed
	// entries are refused.
	Update(ctx context.Context, w *domain.Worktime) error

	// Delete removes a worktime. Billed entries are refused.
	Delete(ctx context.Context, id int64) error

	// Get retrieves a worktime by ID
	Get(ctx context.Context, id int64) (*domain.Worktime, error)

	// List lists worktimes, optionally restricted to an employee and a
	// date range.
	List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error)

	// Start opens a running entry for the employee on the work item.
	// At most one open entry may exist per employee.
	Start(ctx context.Context, employeeID, workItemID int64) (*domain.Worktime, error)

	// Stop closes the employee's open entry, computes its duration and
	// converts it to a regular clocked entry.
	Stop(ctx context.Context, employeeID int64) (*domain.Worktime, error)

	// ChangeReportType converts a worktime to another report type,
	// carrying over the fields the target type understands.
	ChangeReportType(ctx context.Context, id int64, key string) (*domain.Worktime, error)
}

type worktimeService struct {
	worktimes repository.WorktimeRepository
	log       zerolog.Logger
}

// NewWorktimeService creates a new worktime service
func NewWorktimeService(worktimes repository.WorktimeRepository, log zerolog.Logger) WorktimeService {
	return &worktimeService{worktimes: worktimes, log: log}
}

func (s *worktimeService) Create(ctx context.Context, w *domain.Worktime) error {
	if err := s.validate(ctx, w); err != nil {
		return err
	}
	if err := s.worktimes.Create(ctx, w); err != nil {
		return err
	}

	s.log.Debug().
		Int64("worktime_id", w.ID).
		Str("report_type", w.ReportType).
		Float64("hours", w.Hours).
		Msg("worktime created")
	return nil
}

func (s *worktimeService) Update(ctx context.Context, w *domain.Worktime) error {
	existing, err := s.worktimes.GetByID(ctx, w.ID)
	if err != nil {
		return err
	}
	if existing.Billed() {
		return ErrWorktimeBilled
	}

	if err := s.validate(ctx, w); err != nil {
		return err
	}
	return s.worktimes.Update(ctx, w)
}

func (s *worktimeService) Delete(ctx context.Context, id int64) error {
	existing, err := s.worktimes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Billed() {
		return ErrWorktimeBilled
	}
	return s.worktimes.Delete(ctx, id)
}

func (s *worktimeService) Get(ctx context.Context, id int64) (*domain.Worktime, error) {
	return s.worktimes.GetByID(ctx, id)
}

func (s *worktimeService) List(ctx context.Context, employeeID *int64, from, to *time.Time) ([]*domain.Worktime, error) {
	return s.worktimes.List(ctx, employeeID, from, to)
}

func (s *worktimeService) Start(ctx context.Context, employeeID, workItemID int64) (*domain.Worktime, error) {
	now := time.Now()
	w := &domain.Worktime{
		Kind:          domain.KindOrdertime,
		EmployeeID:    employeeID,
		WorkItemID:    workItemID,
		ReportType:    reporttype.AutoStart.Key(),
		WorkDate:      now,
		FromStartTime: &now,
		Billable:      true,
	}

	if err := s.Create(ctx, w); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("worktime_id", w.ID).
		Int64("employee_id", employeeID).
		Msg("timer started")
	return w, nil
}

func (s *worktimeService) Stop(ctx context.Context, employeeID int64) (*domain.Worktime, error) {
	open, err := s.worktimes.FindOpen(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoOpenWorktime
	}

	now := time.Now()
	open.ToEndTime = &now
	open.Hours = now.Sub(*open.FromStartTime).Hours()
	open.ReportType = reporttype.StartStopDay.Key()

	if err := s.Update(ctx, open); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("worktime_id", open.ID).
		Int64("employee_id", employeeID).
		Float64("hours", open.Hours).
		Msg("timer stopped")
	return open, nil
}

func (s *worktimeService) ChangeReportType(ctx context.Context, id int64, key string) (*domain.Worktime, error) {
	target := reporttype.Lookup(key)
	if target == nil {
		return nil, fmt.Errorf("%q: %w", key, ErrUnknownReportType)
	}

	w, err := s.worktimes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Billed() {
		return nil, ErrWorktimeBilled
	}

	src := *w
	w.Hours = 0
	w.FromStartTime = nil
	w.ToEndTime = nil
	target.CopyTimes(&src, w)
	w.ReportType = target.Key()

	if err := s.validate(ctx, w); err != nil {
		return nil, err
	}
	if err := s.worktimes.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// validate runs the worktime's report type rules. The open entry of
// the same employee is only loaded for the open-ended variant, which
// is the one variant that consults it.
func (s *worktimeService) validate(ctx context.Context, w *domain.Worktime) error {
	rt := reporttype.Lookup(w.ReportType)
	if rt == nil {
		return fmt.Errorf("%q: %w", w.ReportType, ErrUnknownReportType)
	}

	var open *domain.Worktime
	if rt == reporttype.AutoStart {
		var err error
		open, err = s.worktimes.FindOpen(ctx, w.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to look up open worktime: %w", err)
		}
	}

	if ferrs := rt.Validate(w, open); !ferrs.Empty() {
		return ferrs
	}
	return nil
}
