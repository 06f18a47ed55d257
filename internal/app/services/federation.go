package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// fetchStudentsConcurrency caps the number of key-value reads in flight for
// one request.
const fetchStudentsConcurrency = 16

// Federation bundles the shared read primitives the report services chain
// together. Primitives run sequentially relative to each other (each needs
// the identifiers the previous one produced); batch work inside a primitive
// is dispatched concurrently.
type Federation struct {
	relational RelationalStore
	graph      GraphStore
	keyValue   KeyValueStore
	search     SearchStore
	logger     zerolog.Logger
}

// NewFederation creates the shared primitive layer over the read-side
// stores.
func NewFederation(relational RelationalStore, graph GraphStore, keyValue KeyValueStore,
	search SearchStore, logger zerolog.Logger) *Federation {
	return &Federation{
		relational: relational,
		graph:      graph,
		keyValue:   keyValue,
		search:     search,
		logger:     logger,
	}
}

// ResolveBySearch matches free text against the indexed material content
// and returns the owning lecture identifiers, de-duplicated. The limit caps
// search hits, so duplicates across materials of one lecture collapse after
// capping.
func (f *Federation) ResolveBySearch(ctx context.Context, text string, limit int) ([]int64, error) {
	hits, err := f.search.MatchLectureIDs(ctx, text, limit)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(hits))
	ids := make([]int64, 0, len(hits))
	for _, id := range hits {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	f.logger.Debug().Str("text", text).Int("lectures", len(ids)).Msg("Resolved lectures by search")
	return ids, nil
}

// ResolveGraphNeighbors returns the union of eligible students and teaching
// groups for the given lectures via a single traversal. Empty input yields
// empty output without touching the store.
func (f *Federation) ResolveGraphNeighbors(ctx context.Context, lectureIDs []int64) (studentIDs, groupIDs []int64, err error) {
	if len(lectureIDs) == 0 {
		return nil, nil, nil
	}
	return f.graph.LectureNeighbors(ctx, lectureIDs)
}

// FetchStudents reads the student hashes concurrently and returns the ones
// that parse. Missing or malformed records are logged and dropped; the
// result is silently partial by design, so a single bad record never fails
// the batch.
func (f *Federation) FetchStudents(ctx context.Context, studentIDs []int64) ([]models.Student, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}

	var (
		mu       sync.Mutex
		students = make([]models.Student, 0, len(studentIDs))
		skipped  int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchStudentsConcurrency)
	for _, id := range studentIDs {
		g.Go(func() error {
			fields, err := f.keyValue.GetHash(ctx, StudentKey(id))
			if err != nil {
				// Per-record failure: record and move on.
				f.logger.Warn().Err(err).Int64("studentId", id).Msg("Student hash fetch failed, skipping")
				mu.Lock()
				skipped++
				mu.Unlock()
				return ctx.Err()
			}
			rec := parseStudentHash(id, fields)
			mu.Lock()
			defer mu.Unlock()
			switch rec.Status {
			case RecordParsed:
				students = append(students, rec.Student)
			case RecordMissing:
				f.logger.Warn().Int64("studentId", id).Msg("Student hash missing, skipping")
				skipped++
			case RecordMalformed:
				f.logger.Warn().Int64("studentId", id).Str("reason", rec.Reason).Msg("Student hash malformed, skipping")
				skipped++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only caller cancellation reaches here.
		return nil, err
	}

	if skipped > 0 {
		f.logger.Warn().Int("skipped", skipped).Int("requested", len(studentIDs)).Msg("Partial student batch")
	}
	// Concurrent completion order is nondeterministic; sort for stable
	// downstream iteration.
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// FetchSchedulesInRange returns the schedule rows matching both identifier
// sets inside the closed time window.
func (f *Federation) FetchSchedulesInRange(ctx context.Context, lectureIDs, groupIDs []int64, from, to time.Time) ([]models.Schedule, error) {
	if len(lectureIDs) == 0 || len(groupIDs) == 0 {
		return nil, nil
	}
	return f.relational.SchedulesInRange(ctx, lectureIDs, groupIDs, from, to)
}

// FetchVisits returns the visits of the given schedules, optionally
// narrowed to a student identifier set.
func (f *Federation) FetchVisits(ctx context.Context, scheduleIDs, studentIDs []int64) ([]models.Visit, error) {
	if len(scheduleIDs) == 0 {
		return nil, nil
	}
	if len(studentIDs) > 0 {
		return f.relational.VisitsBySchedulesAndStudents(ctx, scheduleIDs, studentIDs)
	}
	return f.relational.VisitsBySchedules(ctx, scheduleIDs)
}
