package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models/dto"
)

// academicHoursPerSchedule converts schedule occurrences to academic hours:
// one 90-minute occurrence counts as two hours.
const academicHoursPerSchedule = 2

// GroupReportService reports, per student of one group, the academic hours
// the group was scheduled for and the hours the student attended,
// restricted to courses of the group's own department.
type GroupReportService struct {
	federation *Federation
	relational RelationalStore
	graph      GraphStore
	logger     zerolog.Logger
}

// NewGroupReportService creates a group workload report service.
func NewGroupReportService(federation *Federation, relational RelationalStore, graph GraphStore,
	logger zerolog.Logger) *GroupReportService {
	return &GroupReportService{
		federation: federation,
		relational: relational,
		graph:      graph,
		logger:     logger,
	}
}

// Report resolves the group by exact name, walks its one-hop graph
// neighborhood, and joins course, schedule, and visit rows in memory. Both
// terminal outcomes ("group not found", "no special lectures found") are
// messages on the report, never errors.
func (s *GroupReportService) Report(ctx context.Context, groupName string) (*dto.GroupReport, error) {
	group, err := s.relational.GroupByName(ctx, groupName)
	if err != nil {
		return nil, err
	}
	if group == nil {
		s.logger.Info().Str("group", groupName).Msg("Group not found for workload report")
		return &dto.GroupReport{Message: "group not found"}, nil
	}

	lectureIDs, studentIDs, err := s.graph.GroupNeighbors(ctx, group.ID)
	if err != nil {
		return nil, err
	}

	students, err := s.federation.FetchStudents(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	// Only courses of the group's own department count; cross-department
	// lectures the group happens to attend are excluded.
	courses, err := s.relational.CoursesByLecturesAndDepartment(ctx, lectureIDs, group.DepartmentID)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		s.logger.Info().Str("group", groupName).Msg("No department courses matched the group's lectures")
		return &dto.GroupReport{Message: "no special lectures found for this group", Group: group}, nil
	}

	courseIDs := make([]int64, 0, len(courses))
	for _, c := range courses {
		courseIDs = append(courseIDs, c.ID)
	}
	lectures, err := s.relational.LecturesByCoursesAndIDs(ctx, courseIDs, lectureIDs)
	if err != nil {
		return nil, err
	}

	specialLectureIDs := make([]int64, 0, len(lectures))
	for _, l := range lectures {
		specialLectureIDs = append(specialLectureIDs, l.ID)
	}
	schedules, err := s.relational.SchedulesForGroup(ctx, specialLectureIDs, group.ID)
	if err != nil {
		return nil, err
	}
	totalHours := len(schedules) * academicHoursPerSchedule

	scheduleIDs := make([]int64, 0, len(schedules))
	for _, sch := range schedules {
		scheduleIDs = append(scheduleIDs, sch.ID)
	}
	visits, err := s.federation.FetchVisits(ctx, scheduleIDs, studentIDs)
	if err != nil {
		return nil, err
	}

	visitedSchedules := make(map[int64]map[int64]struct{})
	for _, v := range visits {
		set, ok := visitedSchedules[v.StudentID]
		if !ok {
			set = make(map[int64]struct{})
			visitedSchedules[v.StudentID] = set
		}
		set[v.ScheduleID] = struct{}{}
	}

	report := &dto.GroupReport{
		Group:    group,
		Courses:  courses,
		Lectures: lectures,
		Students: make([]dto.StudentHours, 0, len(students)),
	}
	for _, st := range students {
		report.Students = append(report.Students, dto.StudentHours{
			Student:    st,
			TotalHours: totalHours,
			VisitHours: len(visitedSchedules[st.ID]) * academicHoursPerSchedule,
		})
	}

	s.logger.Info().Str("group", groupName).Int("students", len(report.Students)).Msg("Group report generated")
	return report, nil
}
