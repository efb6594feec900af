package dashgate

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/edhire/dashgate-go/internal/envelope"
	"github.com/edhire/dashgate-go/internal/request"
)

// dashboardService implements the DashboardService interface
type dashboardService struct {
	client *Client
}

// Educator retrieves educator dashboard statistics for a period.
func (s *dashboardService) Educator(ctx context.Context, period string) (*EducatorDashboard, *Redirect, error) {
	payload, redirect, err := s.stats(ctx, "/educator/dashboard/stats/", period)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var dashboard EducatorDashboard
	if err := json.Unmarshal(envelope.NormalizeDashboard(payload, "recent_courses"), &dashboard); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse educator dashboard")
	}
	if dashboard.RecentCourses == nil {
		dashboard.RecentCourses = []*Course{}
	}
	return &dashboard, nil, nil
}

// Recruiter retrieves recruiter dashboard statistics for a period.
func (s *dashboardService) Recruiter(ctx context.Context, period string) (*RecruiterDashboard, *Redirect, error) {
	payload, redirect, err := s.stats(ctx, "/recruiter/dashboard/stats/", period)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var dashboard RecruiterDashboard
	if err := json.Unmarshal(envelope.NormalizeDashboard(payload, "recent_jobs"), &dashboard); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse recruiter dashboard")
	}
	if dashboard.RecentJobs == nil {
		dashboard.RecentJobs = []*Job{}
	}
	return &dashboard, nil, nil
}

// EducatorOverview fetches the dashboard statistics and the first page of
// courses concurrently. A redirect from either fetch wins over a backend
// error: it is a control-flow exit, and the other call's result is
// discarded rather than proactively cancelled.
func (s *dashboardService) EducatorOverview(ctx context.Context, period string) (*EducatorOverview, *Redirect, error) {
	var (
		dashboard    *EducatorDashboard
		courses      *CourseList
		dashRedirect *Redirect
		listRedirect *Redirect
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		dashboard, dashRedirect, err = s.Educator(gctx, period)
		return err
	})

	g.Go(func() error {
		var err error
		courses, listRedirect, err = s.client.Courses.List(gctx, &CourseFilters{PageSize: 100})
		return err
	})

	err := g.Wait()

	if dashRedirect != nil {
		return nil, dashRedirect, nil
	}
	if listRedirect != nil {
		return nil, listRedirect, nil
	}
	if err != nil {
		return nil, nil, err
	}

	return &EducatorOverview{Dashboard: dashboard, Courses: courses}, nil, nil
}

func (s *dashboardService) stats(ctx context.Context, path, period string) (json.RawMessage, *Redirect, error) {
	out := s.client.builder.Get(path, request.StringParam("period", period))
	return s.client.execute(ctx, out)
}
