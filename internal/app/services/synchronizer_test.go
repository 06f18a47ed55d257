package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// testDataset builds a tiny referentially closed dataset with placeholder
// identifiers: one university chain, one group of two students, one course
// with two lectures, one material per lecture, one schedule per lecture.
func testDataset() *models.Dataset {
	start := time.Date(2023, time.September, 1, 0, 0, 0, 0, time.UTC)
	return &models.Dataset{
		Universities: []models.University{{ID: 1, Name: "State University #1"}},
		Institutes:   []models.Institute{{ID: 1, Name: "Institute of Physics", UniversityID: 1}},
		Departments:  []models.Department{{ID: 1, Name: "Department of Physics", InstituteID: 1}},
		Specialities: []models.Speciality{{ID: 1, Name: "Speciality 01.01"}},
		Groups: []models.Group{
			{ID: 1, Name: "PH-23-01", DepartmentID: 1, StartDate: start, EndDate: start.AddDate(4, 0, 0)},
		},
		Students: []models.Student{
			{ID: 1, FullName: "Ivanov Ivan", GroupID: 1, DateOfRecipient: start},
			{ID: 2, FullName: "Petrov Petr", GroupID: 1, DateOfRecipient: start},
		},
		Courses: []models.Course{
			{ID: 1, Name: "Physics 1", Term: "2023-2024", DepartmentID: 1, SpecialityID: 1},
		},
		Lectures: []models.Lecture{
			{ID: 1, Name: "Physics 1: lecture 1", Year: 2023, CourseID: 1},
			{ID: 2, Name: "Physics 1: lecture 2", Year: 2023, CourseID: 1},
		},
		Materials: []models.Material{
			{ID: 1, Name: "Slides for Physics 1: lecture 1", LectureID: 1},
			{ID: 2, Name: "Slides for Physics 1: lecture 2", LectureID: 2},
		},
		Schedules: []models.Schedule{
			{ID: 1, LectureID: 1, GroupID: 1, StartTime: start.Add(8 * time.Hour), EndTime: start.Add(8*time.Hour + 90*time.Minute)},
			{ID: 2, LectureID: 2, GroupID: 1, StartTime: start.Add(32 * time.Hour), EndTime: start.Add(32*time.Hour + 90*time.Minute)},
		},
		Visits: []models.Visit{
			{ID: 1, StudentID: 1, ScheduleID: 1, VisitTime: start.Add(8*time.Hour + 5*time.Minute)},
		},
	}
}

func newTestSynchronizer(relational *fakeRelational, document *fakeDocument, graph *fakeGraph,
	keyValue *fakeKeyValue, search *fakeSearch) *Synchronizer {
	return NewSynchronizer(relational, document, graph, keyValue, search, zerolog.Nop())
}

func TestSynchronizeProjectsAssignedIdentifiers(t *testing.T) {
	relational := &fakeRelational{idOffset: 1000}
	document := &fakeDocument{}
	graph := newFakeGraph()
	keyValue := newFakeKeyValue()
	search := &fakeSearch{}
	sync := newTestSynchronizer(relational, document, graph, keyValue, search)

	report, err := sync.Synchronize(context.Background(), testDataset())
	require.NoError(t, err)
	assert.True(t, report.AllOK())
	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.Adapters, 5)

	// Every projection must carry the identifiers the relational store
	// assigned, never the generator placeholders.
	require.Len(t, document.docs, 1)
	assert.Equal(t, int64(1001), document.docs[0].ID)
	require.Len(t, document.docs[0].Institutes, 1)
	assert.Equal(t, int64(1001), document.docs[0].Institutes[0].ID)
	require.Len(t, document.docs[0].Institutes[0].Departments, 1)
	assert.Equal(t, int64(1001), document.docs[0].Institutes[0].Departments[0].ID)

	assert.ElementsMatch(t, []int64{1001, 1002}, graph.nodes[models.NodeStudent])
	assert.ElementsMatch(t, []int64{1001}, graph.nodes[models.NodeGroup])
	assert.ElementsMatch(t, []int64{1001, 1002}, graph.nodes[models.NodeLecture])

	assert.Contains(t, keyValue.hashes, "student:1001")
	assert.Contains(t, keyValue.hashes, "student:1002")
	assert.Equal(t, "1001", keyValue.hashes["student:1001"][studentFieldGroup])

	require.Len(t, search.docs, 2)
	assert.Equal(t, int64(1001), search.docs[0].ID)
	assert.Equal(t, int64(1001), search.docs[0].LectureID)
	assert.Contains(t, search.docs[0].Content, "material:1001 lecture:1001")
}

func TestSynchronizeDerivedEdges(t *testing.T) {
	relational := &fakeRelational{}
	graph := newFakeGraph()
	sync := newTestSynchronizer(relational, &fakeDocument{}, graph, newFakeKeyValue(), &fakeSearch{})

	_, err := sync.Synchronize(context.Background(), testDataset())
	require.NoError(t, err)

	assert.ElementsMatch(t, []models.Edge{
		{FromID: 1, ToID: 1},
		{FromID: 1, ToID: 2},
	}, graph.edges[models.EdgeTeaches])
	assert.ElementsMatch(t, []models.Edge{
		{FromID: 1, ToID: 1},
		{FromID: 2, ToID: 1},
	}, graph.edges[models.EdgeMemberOf])
	// Both students of the group are eligible for both taught lectures.
	assert.ElementsMatch(t, []models.Edge{
		{FromID: 1, ToID: 1},
		{FromID: 1, ToID: 2},
		{FromID: 2, ToID: 1},
		{FromID: 2, ToID: 2},
	}, graph.edges[models.EdgeEligible])
}

func TestSynchronizeAuthorityFailureAbortsFanOut(t *testing.T) {
	relational := &fakeRelational{insertErr: errors.New("connection refused")}
	document := &fakeDocument{}
	graph := newFakeGraph()
	keyValue := newFakeKeyValue()
	search := &fakeSearch{}
	sync := newTestSynchronizer(relational, document, graph, keyValue, search)

	report, err := sync.Synchronize(context.Background(), testDataset())
	require.Error(t, err)
	require.NotNil(t, report)
	assert.True(t, report.AuthorityFailed())
	assert.Len(t, report.Adapters, 1, "no projection may be attempted without identifiers")

	assert.Empty(t, document.docs)
	assert.Empty(t, graph.nodes)
	assert.Empty(t, keyValue.hashes)
	assert.Empty(t, search.docs)
}

func TestSynchronizePartialFailureIsIsolated(t *testing.T) {
	relational := &fakeRelational{}
	document := &fakeDocument{err: errors.New("mongo unavailable")}
	graph := newFakeGraph()
	keyValue := newFakeKeyValue()
	search := &fakeSearch{}
	sync := newTestSynchronizer(relational, document, graph, keyValue, search)

	report, err := sync.Synchronize(context.Background(), testDataset())
	require.NoError(t, err, "projection failures never surface as errors")
	assert.False(t, report.AllOK())
	assert.False(t, report.AuthorityFailed())

	byAdapter := make(map[string]AdapterResult)
	for _, a := range report.Adapters {
		byAdapter[a.Adapter] = a
	}
	assert.False(t, byAdapter[AdapterDocument].OK)
	assert.Contains(t, byAdapter[AdapterDocument].Error, "mongo unavailable")
	for _, name := range []string{AdapterRelational, AdapterGraph, AdapterKeyValue, AdapterSearch} {
		assert.True(t, byAdapter[name].OK, "adapter %s must not be affected", name)
	}

	// The healthy siblings completed their writes.
	assert.NotEmpty(t, graph.nodes[models.NodeStudent])
	assert.NotEmpty(t, keyValue.hashes)
	assert.NotEmpty(t, search.docs)
}

func TestSynchronizeReportCounts(t *testing.T) {
	relational := &fakeRelational{}
	sync := newTestSynchronizer(relational, &fakeDocument{}, newFakeGraph(), newFakeKeyValue(), &fakeSearch{})

	report, err := sync.Synchronize(context.Background(), testDataset())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Counts.Students)
	assert.Equal(t, 2, report.Counts.Lectures)
	assert.Equal(t, 2, report.Counts.Schedules)
	assert.Equal(t, 1, report.Counts.Visits)
	assert.Greater(t, report.Duration, time.Duration(0))
}

func TestDeriveTeachesEdgesDeduplicates(t *testing.T) {
	schedules := []models.Schedule{
		{ID: 1, LectureID: 7, GroupID: 3},
		{ID: 2, LectureID: 7, GroupID: 3},
		{ID: 3, LectureID: 8, GroupID: 3},
	}
	edges := deriveTeachesEdges(schedules)
	assert.ElementsMatch(t, []models.Edge{
		{FromID: 3, ToID: 7},
		{FromID: 3, ToID: 8},
	}, edges)
}

func TestBuildStudentHashes(t *testing.T) {
	students := []models.Student{
		{ID: 42, FullName: "Ivanov Ivan", GroupID: 7,
			DateOfRecipient: time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)},
	}
	entries := buildStudentHashes(students)
	require.Contains(t, entries, "student:42")
	assert.Equal(t, map[string]string{
		"fio":               "Ivanov Ivan",
		"id_group":          "7",
		"date_of_recipient": "2023-08-15",
	}, entries["student:42"])
}
