package dashgate

import (
	"time"

	"github.com/edhire/dashgate-go/internal/request"
)

// Course is a course posted by an educator's organization.
type Course struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Instructor  string    `json:"instructor"`
	Provider    string    `json:"provider"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Keywords    string    `json:"keywords"`
	Skills      string    `json:"skills"`
	Status      string    `json:"status"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseList is a normalized page of courses with pagination metadata.
// Courses is never nil; TotalCount is the backend's count across all
// pages, which may exceed len(Courses).
type CourseList struct {
	Courses    []*Course
	TotalCount int
	Next       string
	Previous   string
}

// Applicant is one application to a course.
type Applicant struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	ResumeURL string    `json:"resume_url,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
}

// ApplicantList is a normalized page of applicants.
type ApplicantList struct {
	Applicants []*Applicant
	TotalCount int
	Next       string
	Previous   string
}

// Job is a recruiter's job posting, as it appears in dashboard summaries.
type Job struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the authenticated dashboard user.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Pipeline maps a funnel stage to its count.
type Pipeline map[string]int

// EducatorStats is the stats subsection of the educator dashboard.
type EducatorStats struct {
	TotalCourses    int `json:"total_courses"`
	ActiveCourses   int `json:"active_courses"`
	InactiveCourses int `json:"inactive_courses"`
	NewInPeriod     int `json:"new_in_period"`
}

// EducatorDashboard is the normalized educator dashboard payload. Stats
// and Pipeline may be nil when the backend omitted them; RecentCourses is
// never nil.
type EducatorDashboard struct {
	Stats         *EducatorStats `json:"stats"`
	Pipeline      Pipeline       `json:"pipeline"`
	RecentCourses []*Course      `json:"recent_courses"`
}

// RecruiterStats is the stats subsection of the recruiter dashboard.
type RecruiterStats struct {
	TotalJobs         int `json:"total_jobs"`
	ActiveJobs        int `json:"active_jobs"`
	TotalApplications int `json:"total_applications"`
	NewInPeriod       int `json:"new_in_period"`
}

// RecruiterDashboard is the normalized recruiter dashboard payload.
type RecruiterDashboard struct {
	Stats      *RecruiterStats `json:"stats"`
	Pipeline   Pipeline        `json:"pipeline"`
	RecentJobs []*Job          `json:"recent_jobs"`
}

// EducatorOverview combines the dashboard stats with the first page of
// courses, the two fetches the educator dashboard render needs.
type EducatorOverview struct {
	Dashboard *EducatorDashboard
	Courses   *CourseList
}

// NamedRef is a referenced entity in form metadata.
type NamedRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Metadata is the course-form metadata bundle.
type Metadata struct {
	Countries []*NamedRef `json:"countries"`
	States    []*NamedRef `json:"states"`
	Cities    []*NamedRef `json:"cities"`
	Skills    []*NamedRef `json:"skills"`
}

// Upload is a binary file attached to a course form.
type Upload struct {
	Filename    string
	Content     []byte
	ContentType string
}

// CourseFilters narrows a course listing. Zero values are omitted from
// the query string.
type CourseFilters struct {
	Status   string
	Search   string
	Ordering string
	Page     int
	PageSize int
}

// params encodes the filters in the fixed documented order for the course
// list endpoint, so identical filters always produce identical URLs.
func (f *CourseFilters) params() []request.Param {
	if f == nil {
		return nil
	}
	var params []request.Param
	params = append(params, request.StringParam("status", f.Status)...)
	params = append(params, request.StringParam("search", f.Search)...)
	params = append(params, request.StringParam("ordering", f.Ordering)...)
	params = append(params, request.IntParam("page", f.Page)...)
	params = append(params, request.IntParam("page_size", f.PageSize)...)
	return params
}

// ApplicantFilters narrows an applicant listing.
type ApplicantFilters struct {
	Status   string
	Ordering string
}

func (f *ApplicantFilters) params() []request.Param {
	if f == nil {
		return nil
	}
	var params []request.Param
	params = append(params, request.StringParam("status", f.Status)...)
	params = append(params, request.StringParam("ordering", f.Ordering)...)
	return params
}

// MetadataFilters narrows the geographic/skill metadata lookups.
type MetadataFilters struct {
	CountryID int
	StateID   int
	Search    string
}

func (f *MetadataFilters) params() []request.Param {
	if f == nil {
		return nil
	}
	var params []request.Param
	params = append(params, request.IntParam("country_id", f.CountryID)...)
	params = append(params, request.IntParam("state_id", f.StateID)...)
	params = append(params, request.StringParam("search", f.Search)...)
	return params
}

// CreateCourseParams carries the course-create form.
type CreateCourseParams struct {
	Name        string
	Slug        string
	Instructor  string
	Provider    string
	URL         string
	Description string
	Keywords    string
	Skills      string
	Status      string
	Image       *Upload
}

// UpdateCourseParams carries the course-edit form. Empty fields are still
// forwarded so the backend can blank them; a nil Image leaves the stored
// image untouched.
type UpdateCourseParams struct {
	Name        string
	Slug        string
	Instructor  string
	Provider    string
	URL         string
	Description string
	Keywords    string
	Skills      string
	Status      string
	Image       *Upload
}

// BulkError is a per-course failure inside a bulk action.
type BulkError struct {
	ID    int    `json:"id"`
	Error string `json:"error"`
}

// BulkResult summarizes a bulk course action.
type BulkResult struct {
	Processed int          `json:"processed"`
	Errors    []*BulkError `json:"errors"`
}
