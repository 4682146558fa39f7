package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/request"
	"github.com/google/uuid"
)

type requestRepositoryImpl struct {
	s *Store
}

func NewRequestRepository(s *Store) request.RequestRepository {
	return &requestRepositoryImpl{s: s}
}

func (r *requestRepositoryImpl) Create(ctx context.Context, req request.Request) (request.Request, error) {
	err := r.s.write(ctx, func(d *data) error {
		if req.Kind == request.KindOvertimeClaim && req.Overtime != nil {
			for _, existing := range d.requests {
				if isClaimFor(existing, req.EmployeeID, req.Overtime.Date) {
					return request.ErrOvertimeClaimExists
				}
			}
		}
		now := r.s.now()
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		req.Version = 1
		req.CreatedAt = now
		req.UpdatedAt = now
		d.requests[req.ID] = cloneRequest(req)
		return nil
	})
	return req, err
}

func (r *requestRepositoryImpl) GetByID(ctx context.Context, id string) (request.Request, error) {
	var out request.Request
	err := r.s.read(func(d *data) error {
		req, ok := d.requests[id]
		if !ok {
			return request.ErrRequestNotFound
		}
		out = cloneRequest(req)
		return nil
	})
	return out, err
}

func (r *requestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (request.Request, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepositoryImpl) Update(ctx context.Context, req request.Request) (request.Request, error) {
	err := r.s.write(ctx, func(d *data) error {
		stored, ok := d.requests[req.ID]
		if !ok {
			return request.ErrRequestNotFound
		}
		if stored.Version != req.Version {
			return request.ErrVersionConflict
		}
		req.Version++
		req.UpdatedAt = r.s.now()
		d.requests[req.ID] = cloneRequest(req)
		return nil
	})
	return req, err
}

func (r *requestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]request.Request, error) {
	out := r.list(func(req request.Request) bool { return req.EmployeeID == employeeID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *requestRepositoryImpl) ListOpen(ctx context.Context) ([]request.Request, error) {
	out := r.list(func(req request.Request) bool { return !req.State.IsTerminal() })
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *requestRepositoryImpl) FindOvertimeClaim(ctx context.Context, employeeID string, date time.Time) (*request.Request, error) {
	var out *request.Request
	_ = r.s.read(func(d *data) error {
		for _, req := range d.requests {
			if isClaimFor(req, employeeID, date) {
				c := cloneRequest(req)
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, nil
}

func (r *requestRepositoryImpl) ListApprovedCovering(ctx context.Context, date time.Time) ([]request.Request, error) {
	return r.list(func(req request.Request) bool {
		if req.State != request.StateApproved {
			return false
		}
		return req.Covers(date)
	}), nil
}

func (r *requestRepositoryImpl) list(keep func(request.Request) bool) []request.Request {
	var out []request.Request
	_ = r.s.read(func(d *data) error {
		for _, req := range d.requests {
			if keep(req) {
				out = append(out, cloneRequest(req))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func isClaimFor(req request.Request, employeeID string, date time.Time) bool {
	return req.Kind == request.KindOvertimeClaim &&
		req.EmployeeID == employeeID &&
		req.Overtime != nil &&
		req.Overtime.Date.Equal(date)
}
