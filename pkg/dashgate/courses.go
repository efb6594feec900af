package dashgate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/edhire/dashgate-go/internal/request"
)

// courseFormSpec is the fixed interface of the course upload endpoints.
// Fields outside the allow-list are dropped, not forwarded. The image may
// arrive under either alias but goes out exactly once as "image".
var courseFormSpec = request.MultipartSpec{
	Fields: []string{
		"name", "slug", "instructor", "provider", "url",
		"description", "keywords", "skills", "status",
	},
	FileAliases: []string{"image", "course_img"},
	FileField:   "image",
}

// courseService implements the CourseService interface
type courseService struct {
	client *Client
}

// List retrieves the educator's courses with optional filters.
func (s *courseService) List(ctx context.Context, filters *CourseFilters) (*CourseList, *Redirect, error) {
	out := s.client.builder.Get(s.client.audiencePath("/courses/"), filters.params())

	env, redirect, err := s.client.executeList(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	courses, err := decodeCourses(env.Items)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse course list")
	}

	return &CourseList{
		Courses:    courses,
		TotalCount: env.TotalCount,
		Next:       env.Next,
		Previous:   env.Previous,
	}, nil, nil
}

// Query returns a course query builder
func (s *courseService) Query() CourseQueryBuilder {
	return &courseQueryBuilder{service: s}
}

// Get retrieves a single course by ID
func (s *courseService) Get(ctx context.Context, courseID int) (*Course, *Redirect, error) {
	out := s.client.builder.Get(s.client.audiencePath(fmt.Sprintf("/courses/%d/", courseID)), nil)

	payload, redirect, err := s.client.execute(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var course Course
	if err := json.Unmarshal(payload, &course); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse course")
	}
	return &course, nil, nil
}

// Create creates a new course, uploading the image when present.
func (s *courseService) Create(ctx context.Context, params *CreateCourseParams) (*Course, *Redirect, error) {
	if params == nil {
		params = &CreateCourseParams{}
	}

	values := url.Values{}
	values.Set("name", params.Name)
	values.Set("slug", params.Slug)
	values.Set("instructor", params.Instructor)
	values.Set("provider", params.Provider)
	values.Set("url", params.URL)
	values.Set("description", params.Description)
	values.Set("keywords", params.Keywords)
	values.Set("skills", params.Skills)
	values.Set("status", params.Status)

	files := map[string]*Upload{}
	if params.Image != nil {
		files["image"] = params.Image
	}

	return s.CreateForm(ctx, values, files)
}

// CreateForm forwards a raw incoming form through the allow-list.
func (s *courseService) CreateForm(ctx context.Context, values url.Values, files map[string]*Upload) (*Course, *Redirect, error) {
	out, err := s.client.builder.Multipart(http.MethodPost,
		s.client.audiencePath("/courses/create/"),
		courseFormSpec, courseForm(values, files))
	if err != nil {
		return nil, nil, err
	}
	return s.submitCourseForm(ctx, out)
}

// Update updates an existing course
func (s *courseService) Update(ctx context.Context, courseID int, params *UpdateCourseParams) (*Course, *Redirect, error) {
	if params == nil {
		params = &UpdateCourseParams{}
	}

	values := url.Values{}
	values.Set("name", params.Name)
	values.Set("slug", params.Slug)
	values.Set("instructor", params.Instructor)
	values.Set("provider", params.Provider)
	values.Set("url", params.URL)
	values.Set("description", params.Description)
	values.Set("keywords", params.Keywords)
	values.Set("skills", params.Skills)
	values.Set("status", params.Status)

	files := map[string]*Upload{}
	if params.Image != nil {
		files["image"] = params.Image
	}

	out, err := s.client.builder.Multipart(http.MethodPut,
		s.client.audiencePath(fmt.Sprintf("/courses/%d/update/", courseID)),
		courseFormSpec, courseForm(values, files))
	if err != nil {
		return nil, nil, err
	}
	return s.submitCourseForm(ctx, out)
}

// Delete deletes a course; force also removes one with applicants.
func (s *courseService) Delete(ctx context.Context, courseID int, force bool) (*Redirect, error) {
	var params []request.Param
	if force {
		params = []request.Param{{Key: "force", Value: "true"}}
	}
	out := s.client.builder.Delete(
		s.client.audiencePath(fmt.Sprintf("/courses/%d/delete/", courseID)), params)

	_, redirect, err := s.client.execute(ctx, out)
	return redirect, err
}

// Publish activates a draft course.
func (s *courseService) Publish(ctx context.Context, courseID int) (*Redirect, error) {
	return s.setStatus(ctx, courseID, "publish")
}

// Close deactivates an active course.
func (s *courseService) Close(ctx context.Context, courseID int) (*Redirect, error) {
	return s.setStatus(ctx, courseID, "close")
}

func (s *courseService) setStatus(ctx context.Context, courseID int, action string) (*Redirect, error) {
	out, err := s.client.builder.JSON(http.MethodPost,
		s.client.audiencePath(fmt.Sprintf("/courses/%d/%s/", courseID, action)),
		struct{}{})
	if err != nil {
		return nil, err
	}

	_, redirect, err := s.client.execute(ctx, out)
	return redirect, err
}

// Applicants retrieves the applicants of a course.
func (s *courseService) Applicants(ctx context.Context, courseID int, filters *ApplicantFilters) (*ApplicantList, *Redirect, error) {
	out := s.client.builder.Get(
		s.client.audiencePath(fmt.Sprintf("/courses/%d/applicants/", courseID)),
		filters.params())

	env, redirect, err := s.client.executeList(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	applicants := make([]*Applicant, 0, len(env.Items))
	for _, item := range env.Items {
		var applicant Applicant
		if err := json.Unmarshal(item, &applicant); err != nil {
			return nil, nil, errors.Wrap(err, "failed to parse applicant list")
		}
		applicants = append(applicants, &applicant)
	}

	return &ApplicantList{
		Applicants: applicants,
		TotalCount: env.TotalCount,
		Next:       env.Next,
		Previous:   env.Previous,
	}, nil, nil
}

// FormMetadata retrieves the course-form metadata bundle.
func (s *courseService) FormMetadata(ctx context.Context, filters *MetadataFilters) (*Metadata, *Redirect, error) {
	out := s.client.builder.Get(s.client.audiencePath("/courses/metadata/"), filters.params())

	payload, redirect, err := s.client.execute(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var meta Metadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse form metadata")
	}
	return &meta, nil, nil
}

// BulkAction runs delete/activate/deactivate over a set of courses.
func (s *courseService) BulkAction(ctx context.Context, action string, courseIDs []int) (*BulkResult, *Redirect, error) {
	out, err := s.client.builder.JSON(http.MethodPost,
		s.client.audiencePath("/courses/bulk/"),
		map[string]interface{}{
			"action": action,
			"ids":    courseIDs,
		})
	if err != nil {
		return nil, nil, err
	}

	payload, redirect, err := s.client.execute(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var result struct {
		Results *BulkResult `json:"results"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse bulk action result")
	}
	if result.Results == nil {
		result.Results = &BulkResult{}
	}
	return result.Results, nil, nil
}

// submitCourseForm posts a built multipart request and decodes the course
// out of either {"success": true, "course": {...}} or a bare object.
func (s *courseService) submitCourseForm(ctx context.Context, out *request.Outbound) (*Course, *Redirect, error) {
	payload, redirect, err := s.client.execute(ctx, out)
	if redirect != nil || err != nil {
		return nil, redirect, err
	}

	var wrapped struct {
		Course *Course `json:"course"`
	}
	if err := json.Unmarshal(payload, &wrapped); err == nil && wrapped.Course != nil {
		return wrapped.Course, nil, nil
	}

	var course Course
	if err := json.Unmarshal(payload, &course); err != nil {
		return nil, nil, errors.Wrap(err, "failed to parse course response")
	}
	return &course, nil, nil
}

func courseForm(values url.Values, files map[string]*Upload) request.Form {
	form := request.Form{Values: values, Files: map[string]*request.Upload{}}
	for name, upload := range files {
		if upload == nil {
			continue
		}
		form.Files[name] = &request.Upload{
			Filename:    upload.Filename,
			Content:     upload.Content,
			ContentType: upload.ContentType,
		}
	}
	return form
}

func decodeCourses(items []json.RawMessage) ([]*Course, error) {
	courses := make([]*Course, 0, len(items))
	for _, item := range items {
		var course Course
		if err := json.Unmarshal(item, &course); err != nil {
			return nil, err
		}
		courses = append(courses, &course)
	}
	return courses, nil
}

// courseQueryBuilder implements the CourseQueryBuilder interface
type courseQueryBuilder struct {
	service *courseService
	filters CourseFilters
}

func (b *courseQueryBuilder) WithStatus(status string) CourseQueryBuilder {
	b.filters.Status = status
	return b
}

func (b *courseQueryBuilder) Search(query string) CourseQueryBuilder {
	b.filters.Search = query
	return b
}

func (b *courseQueryBuilder) OrderBy(ordering string) CourseQueryBuilder {
	b.filters.Ordering = ordering
	return b
}

func (b *courseQueryBuilder) Page(page int) CourseQueryBuilder {
	b.filters.Page = page
	return b
}

func (b *courseQueryBuilder) PageSize(size int) CourseQueryBuilder {
	b.filters.PageSize = size
	return b
}

// Execute runs the query
func (b *courseQueryBuilder) Execute(ctx context.Context) (*CourseList, *Redirect, error) {
	return b.service.List(ctx, &b.filters)
}
