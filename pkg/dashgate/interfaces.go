package dashgate

import (
	"context"
	"net/url"
)

// CourseService handles the educator's course management operations.
//
// Every method returns a *Redirect alongside its data: a non-nil redirect
// means the session was missing or invalidated and the caller must issue
// an HTTP 302 to Redirect.Location() instead of rendering. The error, when
// set, is a recoverable *BackendError the caller may render in-page.
type CourseService interface {
	// List retrieves the educator's courses with optional filters.
	List(ctx context.Context, filters *CourseFilters) (*CourseList, *Redirect, error)

	// Query returns a fluent course query builder.
	Query() CourseQueryBuilder

	// Get retrieves a single course by ID
	Get(ctx context.Context, courseID int) (*Course, *Redirect, error)

	// Create creates a new course, uploading the image when present.
	Create(ctx context.Context, params *CreateCourseParams) (*Course, *Redirect, error)

	// CreateForm forwards a raw incoming form. Only allow-listed fields
	// reach the backend; an image may arrive under "image" or
	// "course_img".
	CreateForm(ctx context.Context, values url.Values, files map[string]*Upload) (*Course, *Redirect, error)

	// Update updates an existing course
	Update(ctx context.Context, courseID int, params *UpdateCourseParams) (*Course, *Redirect, error)

	// Delete deletes a course; force also removes one with applicants.
	Delete(ctx context.Context, courseID int, force bool) (*Redirect, error)

	// Publish activates a draft course.
	Publish(ctx context.Context, courseID int) (*Redirect, error)

	// Close deactivates an active course.
	Close(ctx context.Context, courseID int) (*Redirect, error)

	// Applicants retrieves the applicants of a course.
	Applicants(ctx context.Context, courseID int, filters *ApplicantFilters) (*ApplicantList, *Redirect, error)

	// FormMetadata retrieves the course-form metadata bundle.
	FormMetadata(ctx context.Context, filters *MetadataFilters) (*Metadata, *Redirect, error)

	// BulkAction runs delete/activate/deactivate over a set of courses.
	BulkAction(ctx context.Context, action string, courseIDs []int) (*BulkResult, *Redirect, error)
}

// CourseQueryBuilder builds course listing queries
type CourseQueryBuilder interface {
	WithStatus(status string) CourseQueryBuilder
	Search(query string) CourseQueryBuilder
	OrderBy(ordering string) CourseQueryBuilder
	Page(page int) CourseQueryBuilder
	PageSize(size int) CourseQueryBuilder

	// Execute runs the query
	Execute(ctx context.Context) (*CourseList, *Redirect, error)
}

// DashboardService handles the dashboard statistics endpoints.
type DashboardService interface {
	// Educator retrieves educator dashboard statistics for a period
	// ("7d", "30d" or "90d"; the backend defaults anything else to 30d).
	Educator(ctx context.Context, period string) (*EducatorDashboard, *Redirect, error)

	// Recruiter retrieves recruiter dashboard statistics.
	Recruiter(ctx context.Context, period string) (*RecruiterDashboard, *Redirect, error)

	// EducatorOverview fetches the dashboard statistics and the first
	// page of courses concurrently, as the dashboard render needs both.
	EducatorOverview(ctx context.Context, period string) (*EducatorOverview, *Redirect, error)
}

// AuthService exposes the session-backed identity lookup. Token issuance
// (the login flow) is external to this library.
type AuthService interface {
	// Me retrieves the authenticated user behind the current session.
	Me(ctx context.Context) (*User, *Redirect, error)
}
