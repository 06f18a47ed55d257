package services

import (
	"context"
	"time"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// The five store contracts the synchronizer and federator consume. The
// concrete implementations live in internal/app/stores; tests substitute
// in-memory fakes.

// RelationalStore is the identifier authority plus the filtered queries the
// read paths chain after search and graph resolution.
type RelationalStore interface {
	// InsertDataset persists every entity list in dependency order and
	// returns an identifier-bearing copy of the dataset. Foreign keys in the
	// copy reference the newly assigned identifiers, not the placeholders
	// the input carried.
	InsertDataset(ctx context.Context, ds *models.Dataset) (*models.Dataset, error)

	SchedulesInRange(ctx context.Context, lectureIDs, groupIDs []int64, from, to time.Time) ([]models.Schedule, error)
	SchedulesForGroup(ctx context.Context, lectureIDs []int64, groupID int64) ([]models.Schedule, error)
	VisitsBySchedules(ctx context.Context, scheduleIDs []int64) ([]models.Visit, error)
	VisitsBySchedulesAndStudents(ctx context.Context, scheduleIDs, studentIDs []int64) ([]models.Visit, error)

	// CourseByName and GroupByName return nil without error when no row
	// matches; absence is a report outcome, not a failure.
	CourseByName(ctx context.Context, name string) (*models.Course, error)
	GroupByName(ctx context.Context, name string) (*models.Group, error)

	CoursesByLecturesAndDepartment(ctx context.Context, lectureIDs []int64, departmentID int64) ([]models.Course, error)
	LecturesByCourseYear(ctx context.Context, courseID int64, year int) ([]models.Lecture, error)
	LecturesByCoursesAndIDs(ctx context.Context, courseIDs, lectureIDs []int64) ([]models.Lecture, error)
}

// DocumentStore receives the nested university hierarchy.
type DocumentStore interface {
	InsertUniversities(ctx context.Context, docs []models.UniversityDocument) error
}

// GraphStore holds identifier-only nodes and typed derived edges. Merges
// are idempotent: re-applying the same node or edge is a no-op.
type GraphStore interface {
	MergeNodes(ctx context.Context, kind string, ids []int64) error
	MergeEdges(ctx context.Context, kind string, edges []models.Edge) error

	// LectureNeighbors returns, in one traversal across all given lectures,
	// the union of students with an ELIGIBLE edge and groups with a TEACHES
	// edge to any of them.
	LectureNeighbors(ctx context.Context, lectureIDs []int64) (studentIDs, groupIDs []int64, err error)

	// LectureAudience returns the groups scheduled for one lecture together
	// with their member student counts.
	LectureAudience(ctx context.Context, lectureID int64) ([]models.GroupAudience, error)

	// GroupNeighbors returns the one-hop neighbor sets of a single group:
	// the lectures it is scheduled for and its member students.
	GroupNeighbors(ctx context.Context, groupID int64) (lectureIDs, studentIDs []int64, err error)
}

// KeyValueStore holds one flat hash per student.
type KeyValueStore interface {
	SetHashes(ctx context.Context, entries map[string]map[string]string) error
	// GetHash returns an empty map when the key is absent.
	GetHash(ctx context.Context, key string) (map[string]string, error)
}

// SearchStore indexes the material documents and resolves free text back to
// the owning lecture identifiers.
type SearchStore interface {
	BulkIndex(ctx context.Context, docs []models.MaterialDocument) error
	MatchLectureIDs(ctx context.Context, text string, limit int) ([]int64, error)
}
