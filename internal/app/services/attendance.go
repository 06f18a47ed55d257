package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models/dto"
)

const (
	// searchResolutionLimit caps the search hits feeding the ranking.
	searchResolutionLimit = 3000
	// attendanceReportSize is the length of the worst-attendance ranking.
	attendanceReportSize = 10
)

// AttendanceService produces the worst-attendance ranking: students whose
// groups were scheduled for lectures matching a search term, ordered by
// attendance percentage ascending.
type AttendanceService struct {
	federation *Federation
	logger     zerolog.Logger
}

// NewAttendanceService creates an attendance ranking service.
func NewAttendanceService(federation *Federation, logger zerolog.Logger) *AttendanceService {
	return &AttendanceService{federation: federation, logger: logger}
}

// WorstAttendance chains search, graph, key-value, and relational lookups
// and joins the results in memory. Every resolution gap flows through as an
// empty set, so a term matching nothing yields an empty report.
func (s *AttendanceService) WorstAttendance(ctx context.Context, searchTerm string, from, to time.Time) (*dto.AttendanceReport, error) {
	report := &dto.AttendanceReport{SearchTerm: searchTerm, From: from, To: to}

	lectureIDs, err := s.federation.ResolveBySearch(ctx, searchTerm, searchResolutionLimit)
	if err != nil {
		return nil, err
	}

	studentIDs, groupIDs, err := s.federation.ResolveGraphNeighbors(ctx, lectureIDs)
	if err != nil {
		return nil, err
	}

	students, err := s.federation.FetchStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	schedules, err := s.federation.FetchSchedulesInRange(ctx, lectureIDs, groupIDs, from, to)
	if err != nil {
		return nil, err
	}

	expectedByGroup := make(map[int64]int, len(schedules))
	scheduleIDs := make([]int64, 0, len(schedules))
	for _, sch := range schedules {
		expectedByGroup[sch.GroupID]++
		scheduleIDs = append(scheduleIDs, sch.ID)
	}

	visits, err := s.federation.FetchVisits(ctx, scheduleIDs, nil)
	if err != nil {
		return nil, err
	}

	// Count distinct attended schedules per student; duplicate visit rows
	// for one occurrence must not inflate the count.
	attendedSchedules := make(map[int64]map[int64]struct{})
	for _, v := range visits {
		set, ok := attendedSchedules[v.StudentID]
		if !ok {
			set = make(map[int64]struct{})
			attendedSchedules[v.StudentID] = set
		}
		set[v.ScheduleID] = struct{}{}
	}

	items := make([]dto.AttendanceReportItem, 0, len(students))
	for _, st := range students {
		expected := expectedByGroup[st.GroupID]
		attended := len(attendedSchedules[st.ID])
		// A student whose group had no matching schedule stays in the
		// ranking at 0% to surface the coverage gap.
		pct := 0.0
		if expected > 0 {
			pct = float64(attended) / float64(expected) * 100.0
		}
		items = append(items, dto.AttendanceReportItem{
			Student:       st,
			AttendancePct: pct,
			Attended:      attended,
			Expected:      expected,
		})
	}

	// Worst first; ties break on ascending student identifier so repeated
	// runs over identical data rank identically.
	sort.Slice(items, func(i, j int) bool {
		if items[i].AttendancePct != items[j].AttendancePct {
			return items[i].AttendancePct < items[j].AttendancePct
		}
		return items[i].Student.ID < items[j].Student.ID
	})
	if len(items) > attendanceReportSize {
		items = items[:attendanceReportSize]
	}
	report.Items = items

	s.logger.Info().Str("searchTerm", searchTerm).Int("items", len(items)).Msg("Attendance report generated")
	return report, nil
}
