package dto

import (
	"time"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// AttendanceReportItem is one row of the worst-attendance ranking.
type AttendanceReportItem struct {
	Student       models.Student `json:"student"`
	AttendancePct float64        `json:"attendancePct"`
	Attended      int            `json:"attended"`
	Expected      int            `json:"expected"`
}

// AttendanceReport lists the students with the lowest attendance for the
// lectures whose materials matched the search term, worst first.
type AttendanceReport struct {
	SearchTerm string                 `json:"searchTerm"`
	From       time.Time              `json:"from"`
	To         time.Time              `json:"to"`
	Items      []AttendanceReportItem `json:"items"`
}

// LectureAudience is one row of the audience sizing report: a lecture and
// the total number of students across the groups scheduled for it.
type LectureAudience struct {
	Lecture      models.Lecture `json:"lecture"`
	StudentCount int            `json:"studentCount"`
}

// AudienceReport sizes the audience of every lecture of one course in one
// year. Message is set instead of Lectures when the course does not exist.
type AudienceReport struct {
	Message  string            `json:"message,omitempty"`
	Course   *models.Course    `json:"course,omitempty"`
	Lectures []LectureAudience `json:"lectures,omitempty"`
}

// StudentHours is one row of the group workload report: the academic hours
// the student's group was scheduled for and the hours the student attended.
type StudentHours struct {
	Student    models.Student `json:"student"`
	TotalHours int            `json:"totalHours"`
	VisitHours int            `json:"visitHours"`
}

// GroupReport is the workload report of one group restricted to the courses
// of its own department. Message carries the terminal "not found" outcomes.
type GroupReport struct {
	Message  string           `json:"message,omitempty"`
	Group    *models.Group    `json:"group,omitempty"`
	Courses  []models.Course  `json:"courses,omitempty"`
	Lectures []models.Lecture `json:"lectures,omitempty"`
	Students []StudentHours   `json:"students,omitempty"`
}
