package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestNormalizeList_BareArray(t *testing.T) {
	list := NormalizeList([]byte(`[{"id":1},{"id":2},{"id":3}]`))

	require.Len(t, list.Items, 3)
	assert.Equal(t, 3, list.TotalCount)
	assert.Empty(t, list.Next)
	assert.Empty(t, list.Previous)
	assert.Equal(t, `{"id":1}`, string(list.Items[0]))
}

func TestNormalizeList_EmptyArray(t *testing.T) {
	list := NormalizeList([]byte(`[]`))

	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
	assert.Zero(t, list.TotalCount)
}

func TestNormalizeList_PaginatedEnvelope(t *testing.T) {
	list := NormalizeList([]byte(`{
		"results": [{"id": 10}, {"id": 11}],
		"count": 42,
		"next": "http://localhost:8000/api/v1/educator/courses/?page=3",
		"previous": "http://localhost:8000/api/v1/educator/courses/?page=1"
	}`))

	require.Len(t, list.Items, 2)
	assert.Equal(t, `{"id": 10}`, string(list.Items[0]))
	// count is authoritative even when it disagrees with len(results).
	assert.Equal(t, 42, list.TotalCount)
	assert.Equal(t, "http://localhost:8000/api/v1/educator/courses/?page=3", list.Next)
	assert.Equal(t, "http://localhost:8000/api/v1/educator/courses/?page=1", list.Previous)
}

func TestNormalizeList_NullResults(t *testing.T) {
	list := NormalizeList([]byte(`{"results": null, "count": 0, "next": null, "previous": null}`))

	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
	assert.Zero(t, list.TotalCount)
	assert.Empty(t, list.Next)
	assert.Empty(t, list.Previous)
}

func TestNormalizeList_MissingCountFallsBackToLength(t *testing.T) {
	list := NormalizeList([]byte(`{"results": [{"id": 1}, {"id": 2}]}`))

	assert.Equal(t, 2, list.TotalCount)
}

func TestNormalizeList_NegativeCountClamped(t *testing.T) {
	list := NormalizeList([]byte(`{"results": [], "count": -5}`))

	assert.Zero(t, list.TotalCount)
}

func TestNormalizeList_ObjectWithoutResults(t *testing.T) {
	list := NormalizeList([]byte(`{"detail": "unexpected"}`))

	assert.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
}

func TestNormalizeDashboard_AllSectionsPresent(t *testing.T) {
	raw := []byte(`{
		"stats": {"total_courses": 5},
		"pipeline": {"applied": 12},
		"recent_courses": [{"id": 1}]
	}`)

	out := NormalizeDashboard(raw, "recent_courses")

	assert.Equal(t, int64(5), gjson.GetBytes(out, "stats.total_courses").Int())
	assert.Equal(t, int64(12), gjson.GetBytes(out, "pipeline.applied").Int())
	assert.Len(t, gjson.GetBytes(out, "recent_courses").Array(), 1)
}

func TestNormalizeDashboard_MissingSectionsDefaulted(t *testing.T) {
	out := NormalizeDashboard([]byte(`{"stats": {"total_courses": 5}}`), "recent_courses")

	// Missing keys become present with semantic defaults so callers can
	// use uniform presence checks.
	pipeline := gjson.GetBytes(out, "pipeline")
	assert.True(t, pipeline.Exists())
	assert.Equal(t, gjson.Null, pipeline.Type)

	recent := gjson.GetBytes(out, "recent_courses")
	assert.True(t, recent.IsArray())
	assert.Empty(t, recent.Array())
}

func TestNormalizeDashboard_NullRecentBecomesEmptyArray(t *testing.T) {
	out := NormalizeDashboard([]byte(`{"recent_jobs": null}`), "recent_jobs")

	recent := gjson.GetBytes(out, "recent_jobs")
	assert.True(t, recent.IsArray())
}

func TestNormalizeDashboard_GarbageInput(t *testing.T) {
	out := NormalizeDashboard([]byte(`"not an object"`), "recent_courses")

	assert.True(t, gjson.GetBytes(out, "stats").Exists())
	assert.True(t, gjson.GetBytes(out, "recent_courses").IsArray())
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error key", body: `{"error": "Course not found"}`, want: "Course not found"},
		{name: "message key", body: `{"message": "invalid action"}`, want: "invalid action"},
		{name: "detail key", body: `{"detail": "authentication required"}`, want: "authentication required"},
		{name: "plain text", body: "  Bad Gateway\n", want: "Bad Gateway"},
		{name: "empty", body: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage([]byte(tt.body)))
		})
	}
}

func TestErrorMessage_TruncatesLongBodies(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, ErrorMessage(long), 200)
}
