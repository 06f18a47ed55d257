// Package generator produces the authoritative in-memory dataset of one
// generation run. Every foreign key references an entity generated in the
// same run, so the dataset is referentially closed before it ever reaches a
// store. Identifiers assigned here are placeholders; the relational store
// replaces them during synchronization.
package generator

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// Academic year boundaries: lectures run from September 1 of the term's
// start year through June 30 of its end year.
const (
	academicYearStartMonth = time.September
	academicYearEndMonth   = time.June
	academicYearEndDay     = 30
)

// scheduleDuration is the fixed length of one occurrence.
const scheduleDuration = 90 * time.Minute

// Config sizes one generation run.
type Config struct {
	Universities        int
	Institutes          int
	Departments         int
	Specialities        int
	Groups              int
	Students            int
	Courses             int
	SchedulesPerLecture int
	// PresenceProbability is the chance a student attended one scheduled
	// occurrence of their group.
	PresenceProbability float64
	Seed                uint64
}

// DefaultConfig returns the counts used when the caller does not override
// them.
func DefaultConfig() Config {
	return Config{
		Universities:        3,
		Institutes:          12,
		Departments:         40,
		Specialities:        30,
		Groups:              60,
		Students:            600,
		Courses:             50,
		SchedulesPerLecture: 4,
		PresenceProbability: 0.6,
		Seed:                uint64(time.Now().UnixNano()),
	}
}

// Generator builds datasets from a seeded random source, so a fixed seed
// reproduces the same structure.
type Generator struct {
	rng *rand.Rand
	cfg Config
}

// New creates a generator for the given configuration.
func New(cfg Config) *Generator {
	return &Generator{
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		cfg: cfg,
	}
}

// Generate produces one complete dataset.
func (g *Generator) Generate() *models.Dataset {
	ds := &models.Dataset{}

	for i := 0; i < g.cfg.Universities; i++ {
		ds.Universities = append(ds.Universities, models.University{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("State University #%d", i+1),
		})
	}
	for i := 0; i < g.cfg.Institutes; i++ {
		ds.Institutes = append(ds.Institutes, models.Institute{
			ID:           int64(i + 1),
			Name:         fmt.Sprintf("Institute of %s", subjectName(i)),
			UniversityID: g.pick(ds.Universities).ID,
		})
	}
	for i := 0; i < g.cfg.Departments; i++ {
		ds.Departments = append(ds.Departments, models.Department{
			ID:          int64(i + 1),
			Name:        fmt.Sprintf("Department of %s", subjectName(i)),
			InstituteID: g.pickInstitute(ds.Institutes).ID,
		})
	}
	for i := 0; i < g.cfg.Specialities; i++ {
		ds.Specialities = append(ds.Specialities, models.Speciality{
			ID:   int64(i + 1),
			Name: fmt.Sprintf("Speciality %02d.%02d", i/10+1, i%10+1),
		})
	}

	for i := 0; i < g.cfg.Groups; i++ {
		startYear := 2020 + g.rng.IntN(5)
		ds.Groups = append(ds.Groups, models.Group{
			ID:           int64(i + 1),
			Name:         fmt.Sprintf("%s-%d-%02d", groupPrefix(i), startYear%100, i%30+1),
			DepartmentID: g.pickDepartment(ds.Departments).ID,
			StartDate:    date(startYear, time.September, 1),
			EndDate:      date(startYear+4, academicYearEndMonth, academicYearEndDay),
		})
	}
	for i := 0; i < g.cfg.Students; i++ {
		group := g.pickGroup(ds.Groups)
		ds.Students = append(ds.Students, models.Student{
			ID:              int64(i + 1),
			FullName:        fullName(g.rng, i),
			GroupID:         group.ID,
			DateOfRecipient: group.StartDate.AddDate(0, 0, -g.rng.IntN(60)),
		})
	}

	for i := 0; i < g.cfg.Courses; i++ {
		startYear := 2020 + g.rng.IntN(5)
		ds.Courses = append(ds.Courses, models.Course{
			ID:           int64(i + 1),
			Name:         courseName(i),
			Term:         fmt.Sprintf("%d-%d", startYear, startYear+1),
			DepartmentID: g.pickDepartment(ds.Departments).ID,
			SpecialityID: g.pickSpeciality(ds.Specialities).ID,
		})
	}

	lectureID := int64(0)
	for _, course := range ds.Courses {
		startYear, _, _ := ParseTerm(course.Term)
		n := 3 + g.rng.IntN(5)
		for j := 0; j < n; j++ {
			lectureID++
			ds.Lectures = append(ds.Lectures, models.Lecture{
				ID:           lectureID,
				Name:         fmt.Sprintf("%s: lecture %d", course.Name, j+1),
				Year:         startYear,
				Requirements: g.rng.IntN(2) == 0,
				CourseID:     course.ID,
			})
		}
	}

	materialID := int64(0)
	for _, lecture := range ds.Lectures {
		n := 1 + g.rng.IntN(2)
		for j := 0; j < n; j++ {
			materialID++
			ds.Materials = append(ds.Materials, models.Material{
				ID:        materialID,
				Name:      fmt.Sprintf("%s %s", materialKind(int(materialID)), lecture.Name),
				LectureID: lecture.ID,
			})
		}
	}

	g.generateSchedules(ds)
	g.generateVisits(ds)
	return ds
}

// generateSchedules creates SchedulesPerLecture occurrences per lecture,
// each for a random group, inside the academic year of the lecture's
// course term and never on a weekend.
func (g *Generator) generateSchedules(ds *models.Dataset) {
	terms := make(map[int64]string, len(ds.Courses))
	for _, c := range ds.Courses {
		terms[c.ID] = c.Term
	}
	scheduleID := int64(0)
	for _, lecture := range ds.Lectures {
		startYear, endYear, err := ParseTerm(terms[lecture.CourseID])
		if err != nil {
			continue
		}
		for j := 0; j < g.cfg.SchedulesPerLecture; j++ {
			scheduleID++
			start := g.lectureSlot(startYear, endYear)
			ds.Schedules = append(ds.Schedules, models.Schedule{
				ID:        scheduleID,
				LectureID: lecture.ID,
				GroupID:   g.pickGroup(ds.Groups).ID,
				StartTime: start,
				EndTime:   start.Add(scheduleDuration),
			})
		}
	}
}

// lectureSlot picks a weekday start time between 08:00 and 16:30 inside
// the academic year window of the term.
func (g *Generator) lectureSlot(startYear, endYear int) time.Time {
	windowStart := date(startYear, academicYearStartMonth, 1)
	windowEnd := date(endYear, academicYearEndMonth, academicYearEndDay)
	days := int(windowEnd.Sub(windowStart).Hours() / 24)
	for {
		day := windowStart.AddDate(0, 0, g.rng.IntN(days+1))
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		hour := 8 + g.rng.IntN(9)
		minute := 30 * g.rng.IntN(2)
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
	}
}

// generateVisits walks each group's schedule and rolls presence per
// student and occurrence, producing at most one visit per (student,
// schedule) pair. Arrival is between start time and 40 minutes in.
func (g *Generator) generateVisits(ds *models.Dataset) {
	studentsByGroup := make(map[int64][]models.Student)
	for _, st := range ds.Students {
		studentsByGroup[st.GroupID] = append(studentsByGroup[st.GroupID], st)
	}
	visitID := int64(0)
	for _, sch := range ds.Schedules {
		for _, st := range studentsByGroup[sch.GroupID] {
			if g.rng.Float64() >= g.cfg.PresenceProbability {
				continue
			}
			visitID++
			ds.Visits = append(ds.Visits, models.Visit{
				ID:         visitID,
				StudentID:  st.ID,
				ScheduleID: sch.ID,
				VisitTime:  sch.StartTime.Add(time.Duration(g.rng.IntN(41)) * time.Minute),
			})
		}
	}
}

// ParseTerm splits an academic period of the form "startYear-endYear".
func ParseTerm(term string) (startYear, endYear int, err error) {
	parts := strings.Split(term, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid term %q: want \"startYear-endYear\"", term)
	}
	startYear, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid term %q: %w", term, err)
	}
	endYear, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid term %q: %w", term, err)
	}
	if startYear < 1900 || endYear < startYear || endYear > 2999 {
		return 0, 0, fmt.Errorf("invalid term %q: years out of range", term)
	}
	return startYear, endYear, nil
}

func (g *Generator) pick(s []models.University) models.University     { return s[g.rng.IntN(len(s))] }
func (g *Generator) pickInstitute(s []models.Institute) models.Institute {
	return s[g.rng.IntN(len(s))]
}
func (g *Generator) pickDepartment(s []models.Department) models.Department {
	return s[g.rng.IntN(len(s))]
}
func (g *Generator) pickSpeciality(s []models.Speciality) models.Speciality {
	return s[g.rng.IntN(len(s))]
}
func (g *Generator) pickGroup(s []models.Group) models.Group { return s[g.rng.IntN(len(s))] }

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var subjects = []string{
	"Mathematics", "Physics", "Computer Science", "Chemistry", "Biology",
	"History", "Linguistics", "Economics", "Law", "Geology",
	"Philosophy", "Mechanics", "Radio Engineering", "Architecture", "Medicine",
}

var surnames = []string{
	"Ivanov", "Petrov", "Sidorov", "Smirnov", "Kuznetsov",
	"Popov", "Vasiliev", "Sokolov", "Mikhailov", "Novikov",
	"Fedorov", "Morozov", "Volkov", "Alekseev", "Lebedev",
}

var givenNames = []string{
	"Alexander", "Dmitry", "Maxim", "Sergey", "Andrey",
	"Anna", "Maria", "Elena", "Olga", "Natalia",
	"Ivan", "Mikhail", "Ekaterina", "Tatiana", "Pavel",
}

var materialKinds = []string{
	"Slides for", "Lecture notes for", "Assignment for", "Reading list for", "Practice problems for",
}

func subjectName(i int) string {
	name := subjects[i%len(subjects)]
	if n := i / len(subjects); n > 0 {
		name = fmt.Sprintf("Applied %s %d", name, n)
	}
	return name
}

func groupPrefix(i int) string {
	return strings.ToUpper(subjects[i%len(subjects)][:2])
}

func courseName(i int) string {
	return fmt.Sprintf("%s %d", subjects[i%len(subjects)], i/len(subjects)+1)
}

func fullName(rng *rand.Rand, i int) string {
	return fmt.Sprintf("%s %s %s",
		surnames[rng.IntN(len(surnames))],
		givenNames[rng.IntN(len(givenNames))],
		surnames[(i+7)%len(surnames)])
}

func materialKind(i int) string {
	return materialKinds[i%len(materialKinds)]
}
