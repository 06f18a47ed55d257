package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// In-memory store fakes. The relational fake remaps identifiers on insert
// the way the real store does, so tests can verify that projections only
// ever see assigned identifiers.

type fakeRelational struct {
	mu         sync.Mutex
	idOffset   int64
	insertErr  error
	inserted   *models.Dataset
	insertedAt time.Time

	groups    []models.Group
	courses   []models.Course
	lectures  []models.Lecture
	schedules []models.Schedule
	visits    []models.Visit
}

func (f *fakeRelational) InsertDataset(_ context.Context, ds *models.Dataset) (*models.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	out := &models.Dataset{}
	for _, u := range ds.Universities {
		u.ID += f.idOffset
		out.Universities = append(out.Universities, u)
	}
	for _, inst := range ds.Institutes {
		inst.ID += f.idOffset
		inst.UniversityID += f.idOffset
		out.Institutes = append(out.Institutes, inst)
	}
	for _, d := range ds.Departments {
		d.ID += f.idOffset
		d.InstituteID += f.idOffset
		out.Departments = append(out.Departments, d)
	}
	for _, sp := range ds.Specialities {
		sp.ID += f.idOffset
		out.Specialities = append(out.Specialities, sp)
	}
	for _, g := range ds.Groups {
		g.ID += f.idOffset
		g.DepartmentID += f.idOffset
		out.Groups = append(out.Groups, g)
	}
	for _, st := range ds.Students {
		st.ID += f.idOffset
		st.GroupID += f.idOffset
		out.Students = append(out.Students, st)
	}
	for _, c := range ds.Courses {
		c.ID += f.idOffset
		c.DepartmentID += f.idOffset
		c.SpecialityID += f.idOffset
		out.Courses = append(out.Courses, c)
	}
	for _, l := range ds.Lectures {
		l.ID += f.idOffset
		l.CourseID += f.idOffset
		out.Lectures = append(out.Lectures, l)
	}
	for _, m := range ds.Materials {
		m.ID += f.idOffset
		m.LectureID += f.idOffset
		out.Materials = append(out.Materials, m)
	}
	for _, sch := range ds.Schedules {
		sch.ID += f.idOffset
		sch.LectureID += f.idOffset
		sch.GroupID += f.idOffset
		out.Schedules = append(out.Schedules, sch)
	}
	for _, v := range ds.Visits {
		v.ID += f.idOffset
		v.StudentID += f.idOffset
		v.ScheduleID += f.idOffset
		out.Visits = append(out.Visits, v)
	}
	f.inserted = out
	f.insertedAt = time.Now()
	return out, nil
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (f *fakeRelational) SchedulesInRange(_ context.Context, lectureIDs, groupIDs []int64, from, to time.Time) ([]models.Schedule, error) {
	lectures, groups := idSet(lectureIDs), idSet(groupIDs)
	var out []models.Schedule
	for _, sch := range f.schedules {
		if _, ok := lectures[sch.LectureID]; !ok {
			continue
		}
		if _, ok := groups[sch.GroupID]; !ok {
			continue
		}
		if sch.StartTime.Before(from) || sch.StartTime.After(to) {
			continue
		}
		out = append(out, sch)
	}
	return out, nil
}

func (f *fakeRelational) SchedulesForGroup(_ context.Context, lectureIDs []int64, groupID int64) ([]models.Schedule, error) {
	lectures := idSet(lectureIDs)
	var out []models.Schedule
	for _, sch := range f.schedules {
		if sch.GroupID != groupID {
			continue
		}
		if _, ok := lectures[sch.LectureID]; !ok {
			continue
		}
		out = append(out, sch)
	}
	return out, nil
}

func (f *fakeRelational) VisitsBySchedules(_ context.Context, scheduleIDs []int64) ([]models.Visit, error) {
	schedules := idSet(scheduleIDs)
	var out []models.Visit
	for _, v := range f.visits {
		if _, ok := schedules[v.ScheduleID]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeRelational) VisitsBySchedulesAndStudents(_ context.Context, scheduleIDs, studentIDs []int64) ([]models.Visit, error) {
	schedules, students := idSet(scheduleIDs), idSet(studentIDs)
	var out []models.Visit
	for _, v := range f.visits {
		if _, ok := schedules[v.ScheduleID]; !ok {
			continue
		}
		if _, ok := students[v.StudentID]; !ok {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeRelational) CourseByName(_ context.Context, name string) (*models.Course, error) {
	name = strings.Trim(name, "%")
	for _, c := range f.courses {
		if strings.Contains(c.Name, name) {
			course := c
			return &course, nil
		}
	}
	return nil, nil
}

func (f *fakeRelational) GroupByName(_ context.Context, name string) (*models.Group, error) {
	for _, g := range f.groups {
		if g.Name == name {
			group := g
			return &group, nil
		}
	}
	return nil, nil
}

func (f *fakeRelational) CoursesByLecturesAndDepartment(_ context.Context, lectureIDs []int64, departmentID int64) ([]models.Course, error) {
	lectures := idSet(lectureIDs)
	matched := make(map[int64]struct{})
	for _, l := range f.lectures {
		if _, ok := lectures[l.ID]; ok {
			matched[l.CourseID] = struct{}{}
		}
	}
	var out []models.Course
	for _, c := range f.courses {
		if c.DepartmentID != departmentID {
			continue
		}
		if _, ok := matched[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRelational) LecturesByCourseYear(_ context.Context, courseID int64, year int) ([]models.Lecture, error) {
	var out []models.Lecture
	for _, l := range f.lectures {
		if l.CourseID == courseID && l.Year == year {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRelational) LecturesByCoursesAndIDs(_ context.Context, courseIDs, lectureIDs []int64) ([]models.Lecture, error) {
	courses, lectures := idSet(courseIDs), idSet(lectureIDs)
	var out []models.Lecture
	for _, l := range f.lectures {
		if _, ok := courses[l.CourseID]; !ok {
			continue
		}
		if _, ok := lectures[l.ID]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeDocument struct {
	mu      sync.Mutex
	err     error
	docs    []models.UniversityDocument
	written time.Time
}

func (f *fakeDocument) InsertUniversities(_ context.Context, docs []models.UniversityDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = docs
	f.written = time.Now()
	return nil
}

type fakeGraph struct {
	mu    sync.Mutex
	err   error
	nodes map[string][]int64
	edges map[string][]models.Edge
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		nodes: make(map[string][]int64),
		edges: make(map[string][]models.Edge),
	}
}

func (f *fakeGraph) MergeNodes(_ context.Context, kind string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.nodes[kind] = append(f.nodes[kind], ids...)
	return nil
}

func (f *fakeGraph) MergeEdges(_ context.Context, kind string, edges []models.Edge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.edges[kind] = append(f.edges[kind], edges...)
	return nil
}

func (f *fakeGraph) LectureNeighbors(_ context.Context, lectureIDs []int64) (studentIDs, groupIDs []int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	lectures := idSet(lectureIDs)
	studentSeen, groupSeen := make(map[int64]struct{}), make(map[int64]struct{})
	for _, e := range f.edges[models.EdgeEligible] {
		if _, ok := lectures[e.ToID]; !ok {
			continue
		}
		if _, dup := studentSeen[e.FromID]; !dup {
			studentSeen[e.FromID] = struct{}{}
			studentIDs = append(studentIDs, e.FromID)
		}
	}
	for _, e := range f.edges[models.EdgeTeaches] {
		if _, ok := lectures[e.ToID]; !ok {
			continue
		}
		if _, dup := groupSeen[e.FromID]; !dup {
			groupSeen[e.FromID] = struct{}{}
			groupIDs = append(groupIDs, e.FromID)
		}
	}
	return studentIDs, groupIDs, nil
}

func (f *fakeGraph) LectureAudience(_ context.Context, lectureID int64) ([]models.GroupAudience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	members := make(map[int64]int)
	for _, e := range f.edges[models.EdgeMemberOf] {
		members[e.ToID]++
	}
	var out []models.GroupAudience
	for _, e := range f.edges[models.EdgeTeaches] {
		if e.ToID != lectureID {
			continue
		}
		out = append(out, models.GroupAudience{GroupID: e.FromID, StudentCount: members[e.FromID]})
	}
	return out, nil
}

func (f *fakeGraph) GroupNeighbors(_ context.Context, groupID int64) (lectureIDs, studentIDs []int64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	for _, e := range f.edges[models.EdgeTeaches] {
		if e.FromID == groupID {
			lectureIDs = append(lectureIDs, e.ToID)
		}
	}
	for _, e := range f.edges[models.EdgeMemberOf] {
		if e.ToID == groupID {
			studentIDs = append(studentIDs, e.FromID)
		}
	}
	return lectureIDs, studentIDs, nil
}

type fakeKeyValue struct {
	mu      sync.Mutex
	setErr  error
	getErr  map[string]error
	hashes  map[string]map[string]string
	written time.Time
}

func newFakeKeyValue() *fakeKeyValue {
	return &fakeKeyValue{
		getErr: make(map[string]error),
		hashes: make(map[string]map[string]string),
	}
}

func (f *fakeKeyValue) SetHashes(_ context.Context, entries map[string]map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	for key, fields := range entries {
		f.hashes[key] = fields
	}
	f.written = time.Now()
	return nil
}

func (f *fakeKeyValue) GetHash(_ context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	fields, ok := f.hashes[key]
	if !ok {
		// Same contract as the real store: absence is an empty map.
		return map[string]string{}, nil
	}
	return fields, nil
}

type fakeSearch struct {
	mu      sync.Mutex
	err     error
	docs    []models.MaterialDocument
	written time.Time
}

func (f *fakeSearch) BulkIndex(_ context.Context, docs []models.MaterialDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = docs
	f.written = time.Now()
	return nil
}

func (f *fakeSearch) MatchLectureIDs(_ context.Context, text string, limit int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var ids []int64
	for _, doc := range f.docs {
		if len(ids) == limit {
			break
		}
		if strings.Contains(doc.Content, text) || strings.Contains(doc.Name, text) {
			ids = append(ids, doc.LectureID)
		}
	}
	return ids, nil
}
