package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models/dto"
)

// AudienceService sizes the audience of every lecture of one course in one
// year: the sum of member counts over the groups scheduled for the lecture.
// Groups are disjoint, so each student counts once per group.
type AudienceService struct {
	relational RelationalStore
	graph      GraphStore
	logger     zerolog.Logger
}

// NewAudienceService creates an audience sizing service.
func NewAudienceService(relational RelationalStore, graph GraphStore, logger zerolog.Logger) *AudienceService {
	return &AudienceService{relational: relational, graph: graph, logger: logger}
}

// CourseAudience looks the course up by name, then sizes each of its
// lectures in the given year through the graph store. An unknown course
// yields a report with a message, not an error.
func (s *AudienceService) CourseAudience(ctx context.Context, courseName string, year int) (*dto.AudienceReport, error) {
	course, err := s.relational.CourseByName(ctx, courseName)
	if err != nil {
		return nil, err
	}
	if course == nil {
		s.logger.Info().Str("course", courseName).Msg("Course not found for audience report")
		return &dto.AudienceReport{Message: "course not found"}, nil
	}

	lectures, err := s.relational.LecturesByCourseYear(ctx, course.ID, year)
	if err != nil {
		return nil, err
	}

	report := &dto.AudienceReport{Course: course, Lectures: make([]dto.LectureAudience, 0, len(lectures))}
	for _, lecture := range lectures {
		groups, err := s.graph.LectureAudience(ctx, lecture.ID)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, g := range groups {
			total += g.StudentCount
		}
		report.Lectures = append(report.Lectures, dto.LectureAudience{Lecture: lecture, StudentCount: total})
	}

	s.logger.Info().Str("course", courseName).Int("year", year).Int("lectures", len(report.Lectures)).Msg("Audience report generated")
	return report, nil
}
