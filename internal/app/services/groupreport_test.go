package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmelnikov/unifed/internal/app/models"
)

func groupReportFixture() (*fakeRelational, *fakeGraph, *fakeKeyValue) {
	base := time.Date(2023, time.October, 2, 8, 0, 0, 0, time.UTC)

	relational := &fakeRelational{
		groups: []models.Group{
			{ID: 1, Name: "PH-23-01", DepartmentID: 1},
			{ID: 2, Name: "CH-23-01", DepartmentID: 99},
		},
		courses: []models.Course{
			{ID: 1, Name: "Physics 1", Term: "2023-2024", DepartmentID: 1, SpecialityID: 1},
			{ID: 2, Name: "Chemistry 1", Term: "2023-2024", DepartmentID: 2, SpecialityID: 1},
		},
		lectures: []models.Lecture{
			{ID: 1, Name: "Physics 1: lecture 1", Year: 2023, CourseID: 1},
			{ID: 2, Name: "Chemistry 1: lecture 1", Year: 2023, CourseID: 2},
		},
	}
	for i := int64(1); i <= 3; i++ {
		start := base.AddDate(0, 0, int(i-1)*7)
		relational.schedules = append(relational.schedules, models.Schedule{
			ID: i, LectureID: 1, GroupID: 1, StartTime: start, EndTime: start.Add(90 * time.Minute),
		})
	}
	relational.visits = []models.Visit{
		{ID: 1, StudentID: 1, ScheduleID: 1, VisitTime: base.Add(5 * time.Minute)},
		{ID: 2, StudentID: 1, ScheduleID: 2, VisitTime: base.AddDate(0, 0, 7).Add(5 * time.Minute)},
		// Duplicate row for an already visited occurrence.
		{ID: 3, StudentID: 1, ScheduleID: 2, VisitTime: base.AddDate(0, 0, 7).Add(30 * time.Minute)},
	}

	graph := newFakeGraph()
	// Group 1 is taught a department course lecture and a cross-department
	// one; group 2 only the cross-department lecture.
	graph.edges[models.EdgeTeaches] = []models.Edge{
		{FromID: 1, ToID: 1},
		{FromID: 1, ToID: 2},
		{FromID: 2, ToID: 2},
	}
	graph.edges[models.EdgeMemberOf] = []models.Edge{
		{FromID: 1, ToID: 1},
		{FromID: 2, ToID: 1},
		{FromID: 3, ToID: 2},
	}

	keyValue := newFakeKeyValue()
	for _, studentID := range []int64{1, 2} {
		keyValue.hashes[StudentKey(studentID)] = map[string]string{
			"fio": "Student", "id_group": "1", "date_of_recipient": "2023-08-15",
		}
	}
	keyValue.hashes[StudentKey(3)] = map[string]string{
		"fio": "Student", "id_group": "2", "date_of_recipient": "2023-08-15",
	}
	return relational, graph, keyValue
}

func newTestGroupReportService(relational *fakeRelational, graph *fakeGraph,
	keyValue *fakeKeyValue) *GroupReportService {
	fed := newTestFederation(relational, graph, keyValue, &fakeSearch{})
	return NewGroupReportService(fed, relational, graph, zerolog.Nop())
}

func TestGroupReportWorkload(t *testing.T) {
	svc := newTestGroupReportService(groupReportFixture())

	report, err := svc.Report(context.Background(), "PH-23-01")
	require.NoError(t, err)
	assert.Empty(t, report.Message)
	require.NotNil(t, report.Group)
	assert.Equal(t, int64(1), report.Group.ID)

	// Only the department's own course survives the filter.
	require.Len(t, report.Courses, 1)
	assert.Equal(t, int64(1), report.Courses[0].ID)
	require.Len(t, report.Lectures, 1)
	assert.Equal(t, int64(1), report.Lectures[0].ID)

	// Three occurrences of 90 minutes each: six academic hours scheduled.
	require.Len(t, report.Students, 2)
	for _, sh := range report.Students {
		assert.Equal(t, 6, sh.TotalHours)
	}
	assert.Equal(t, int64(1), report.Students[0].Student.ID)
	assert.Equal(t, 4, report.Students[0].VisitHours, "two distinct visited occurrences")
	assert.Equal(t, int64(2), report.Students[1].Student.ID)
	assert.Equal(t, 0, report.Students[1].VisitHours)
}

func TestGroupReportNoDepartmentCourses(t *testing.T) {
	svc := newTestGroupReportService(groupReportFixture())

	report, err := svc.Report(context.Background(), "CH-23-01")
	require.NoError(t, err)
	assert.Equal(t, "no special lectures found for this group", report.Message)
	require.NotNil(t, report.Group)
	assert.Equal(t, int64(2), report.Group.ID)
	assert.Empty(t, report.Students)
}

func TestGroupReportUnknownGroup(t *testing.T) {
	svc := newTestGroupReportService(groupReportFixture())

	report, err := svc.Report(context.Background(), "XX-00-00")
	require.NoError(t, err, "an unknown group is a report outcome, not an error")
	assert.Equal(t, "group not found", report.Message)
	assert.Nil(t, report.Group)
}
