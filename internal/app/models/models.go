package models

import "time"

// The organizational hierarchy mirrors the relational schema: a university
// owns institutes, institutes own departments, and departments own groups
// and courses. Identifiers are assigned by PostgreSQL on insert; before a
// dataset has been synchronized they are generator placeholders only.

// University is the root of the organizational hierarchy.
type University struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Institute belongs to a university.
type Institute struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	UniversityID int64  `json:"universityId" db:"university_id"`
}

// Department belongs to an institute.
type Department struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	InstituteID int64  `json:"instituteId" db:"institute_id"`
}

// Speciality is a field of study a course can be assigned to.
type Speciality struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Course is taught by a department for a speciality during one academic
// period. Term has the form "startYear-endYear", e.g. "2023-2024".
type Course struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Term         string `json:"term" db:"term"`
	DepartmentID int64  `json:"departmentId" db:"department_id"`
	SpecialityID int64  `json:"specialityId" db:"speciality_id"`
}

// Group is a set of students studying together in one department.
type Group struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	DepartmentID int64     `json:"departmentId" db:"department_id"`
	StartDate    time.Time `json:"startDate" db:"start_date"`
	EndDate      time.Time `json:"endDate" db:"end_date"`
}

// Student belongs to exactly one group.
type Student struct {
	ID              int64     `json:"id" db:"id"`
	FullName        string    `json:"fullName" db:"full_name"`
	GroupID         int64     `json:"groupId" db:"group_id"`
	DateOfRecipient time.Time `json:"dateOfRecipient" db:"date_of_recipient"`
}

// Lecture is one teaching unit of a course in a given calendar year.
type Lecture struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Year         int    `json:"year" db:"year"`
	Requirements bool   `json:"requirements" db:"requirements"`
	CourseID     int64  `json:"courseId" db:"course_id"`
}

// Material is a named attachment of a lecture. Its free-text twin for the
// search index is MaterialDocument.
type Material struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	LectureID int64  `json:"lectureId" db:"lecture_id"`
}

// MaterialDocument is the search-index projection of a Material: the same
// identifiers plus derived full-text content. It is produced by the
// synchronizer once identifiers are stable and never stored relationally.
type MaterialDocument struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	LectureID int64  `json:"lectureId"`
	Content   string `json:"content"`
}

// Schedule is a single 90-minute occurrence of a lecture for a group.
type Schedule struct {
	ID        int64     `json:"id" db:"id"`
	LectureID int64     `json:"lectureId" db:"lecture_id"`
	GroupID   int64     `json:"groupId" db:"group_id"`
	StartTime time.Time `json:"startTime" db:"start_time"`
	EndTime   time.Time `json:"endTime" db:"end_time"`
}

// Visit records that a student attended one scheduled occurrence. A student
// has at most one visit per schedule entry.
type Visit struct {
	ID         int64     `json:"id" db:"id"`
	StudentID  int64     `json:"studentId" db:"student_id"`
	ScheduleID int64     `json:"scheduleId" db:"schedule_id"`
	VisitTime  time.Time `json:"visitTime" db:"visit_time"`
}
