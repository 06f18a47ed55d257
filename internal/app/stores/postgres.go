package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// PostgresStore is the relational adapter and the identifier authority:
// its insert assigns every identifier the other stores reuse.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore creates a relational adapter over a pgx pool.
func NewPostgresStore(db *pgxpool.Pool, logger zerolog.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// InsertDataset writes all entity lists in dependency order inside one
// transaction and returns a copy of the dataset carrying the assigned
// identifiers, with every foreign key remapped from the generator
// placeholders to the new values.
func (s *PostgresStore) InsertDataset(ctx context.Context, ds *models.Dataset) (*models.Dataset, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning dataset transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	out := &models.Dataset{}

	specialityIDs := make(map[int64]int64, len(ds.Specialities))
	{
		batch := &pgx.Batch{}
		for _, sp := range ds.Specialities {
			batch.Queue(`INSERT INTO specialities (name) VALUES ($1) RETURNING id`, sp.Name)
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting specialities: %w", err)
		}
		for i, sp := range ds.Specialities {
			specialityIDs[sp.ID] = ids[i]
			sp.ID = ids[i]
			out.Specialities = append(out.Specialities, sp)
		}
	}

	universityIDs := make(map[int64]int64, len(ds.Universities))
	{
		batch := &pgx.Batch{}
		for _, u := range ds.Universities {
			batch.Queue(`INSERT INTO universities (name) VALUES ($1) RETURNING id`, u.Name)
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting universities: %w", err)
		}
		for i, u := range ds.Universities {
			universityIDs[u.ID] = ids[i]
			u.ID = ids[i]
			out.Universities = append(out.Universities, u)
		}
	}

	instituteIDs := make(map[int64]int64, len(ds.Institutes))
	{
		batch := &pgx.Batch{}
		for _, inst := range ds.Institutes {
			batch.Queue(`INSERT INTO institutes (name, university_id) VALUES ($1, $2) RETURNING id`,
				inst.Name, universityIDs[inst.UniversityID])
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting institutes: %w", err)
		}
		for i, inst := range ds.Institutes {
			instituteIDs[inst.ID] = ids[i]
			inst.ID = ids[i]
			inst.UniversityID = universityIDs[inst.UniversityID]
			out.Institutes = append(out.Institutes, inst)
		}
	}

	departmentIDs := make(map[int64]int64, len(ds.Departments))
	{
		batch := &pgx.Batch{}
		for _, d := range ds.Departments {
			batch.Queue(`INSERT INTO departments (name, institute_id) VALUES ($1, $2) RETURNING id`,
				d.Name, instituteIDs[d.InstituteID])
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting departments: %w", err)
		}
		for i, d := range ds.Departments {
			departmentIDs[d.ID] = ids[i]
			d.ID = ids[i]
			d.InstituteID = instituteIDs[d.InstituteID]
			out.Departments = append(out.Departments, d)
		}
	}

	groupIDs := make(map[int64]int64, len(ds.Groups))
	{
		batch := &pgx.Batch{}
		for _, g := range ds.Groups {
			batch.Queue(`INSERT INTO groups (name, department_id, start_date, end_date) VALUES ($1, $2, $3, $4) RETURNING id`,
				g.Name, departmentIDs[g.DepartmentID], g.StartDate, g.EndDate)
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting groups: %w", err)
		}
		for i, g := range ds.Groups {
			groupIDs[g.ID] = ids[i]
			g.ID = ids[i]
			g.DepartmentID = departmentIDs[g.DepartmentID]
			out.Groups = append(out.Groups, g)
		}
	}

	studentIDs := make(map[int64]int64, len(ds.Students))
	{
		batch := &pgx.Batch{}
		for _, st := range ds.Students {
			batch.Queue(`INSERT INTO students (full_name, group_id, date_of_recipient) VALUES ($1, $2, $3) RETURNING id`,
				st.FullName, groupIDs[st.GroupID], st.DateOfRecipient)
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting students: %w", err)
		}
		for i, st := range ds.Students {
			studentIDs[st.ID] = ids[i]
			st.ID = ids[i]
			st.GroupID = groupIDs[st.GroupID]
			out.Students = append(out.Students, st)
		}
	}

	courseIDs := make(map[int64]int64, len(ds.Courses))
	{
		batch := &pgx.Batch{}
		for _, c := range ds.Courses {
			batch.Queue(`INSERT INTO courses (name, term, department_id, speciality_id) VALUES ($1, $2, $3, $4) RETURNING id`,
				c.Name, c.Term, departmentIDs[c.DepartmentID], specialityIDs[c.SpecialityID])
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting courses: %w", err)
		}
		for i, c := range ds.Courses {
			courseIDs[c.ID] = ids[i]
			c.ID = ids[i]
			c.DepartmentID = departmentIDs[c.DepartmentID]
			c.SpecialityID = specialityIDs[c.SpecialityID]
			out.Courses = append(out.Courses, c)
		}
	}

	lectureIDs := make(map[int64]int64, len(ds.Lectures))
	{
		batch := &pgx.Batch{}
		for _, l := range ds.Lectures {
			batch.Queue(`INSERT INTO lectures (name, year, requirements, course_id) VALUES ($1, $2, $3, $4) RETURNING id`,
				l.Name, l.Year, l.Requirements, courseIDs[l.CourseID])
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting lectures: %w", err)
		}
		for i, l := range ds.Lectures {
			lectureIDs[l.ID] = ids[i]
			l.ID = ids[i]
			l.CourseID = courseIDs[l.CourseID]
			out.Lectures = append(out.Lectures, l)
		}
	}

	{
		batch := &pgx.Batch{}
		for _, m := range ds.Materials {
			batch.Queue(`INSERT INTO materials (name, lecture_id) VALUES ($1, $2) RETURNING id`,
				m.Name, lectureIDs[m.LectureID])
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting materials: %w", err)
		}
		for i, m := range ds.Materials {
			m.ID = ids[i]
			m.LectureID = lectureIDs[m.LectureID]
			out.Materials = append(out.Materials, m)
		}
	}

	scheduleIDs := make(map[int64]int64, len(ds.Schedules))
	{
		batch := &pgx.Batch{}
		for _, sch := range ds.Schedules {
			batch.Queue(`INSERT INTO schedules (lecture_id, group_id, start_time, end_time) VALUES ($1, $2, $3, $4) RETURNING id`,
				lectureIDs[sch.LectureID], groupIDs[sch.GroupID], sch.StartTime, sch.EndTime)
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting schedules: %w", err)
		}
		for i, sch := range ds.Schedules {
			scheduleIDs[sch.ID] = ids[i]
			sch.ID = ids[i]
			sch.LectureID = lectureIDs[sch.LectureID]
			sch.GroupID = groupIDs[sch.GroupID]
			out.Schedules = append(out.Schedules, sch)
		}
	}

	{
		batch := &pgx.Batch{}
		for _, v := range ds.Visits {
			batch.Queue(`INSERT INTO visits (student_id, schedule_id, visit_time) VALUES ($1, $2, $3) RETURNING id`,
				studentIDs[v.StudentID], scheduleIDs[v.ScheduleID], v.VisitTime)
		}
		ids, err := sendBatchCollectIDs(ctx, tx, batch)
		if err != nil {
			return nil, fmt.Errorf("inserting visits: %w", err)
		}
		for i, v := range ds.Visits {
			v.ID = ids[i]
			v.StudentID = studentIDs[v.StudentID]
			v.ScheduleID = scheduleIDs[v.ScheduleID]
			out.Visits = append(out.Visits, v)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing dataset transaction: %w", err)
	}
	s.logger.Info().Int("students", len(out.Students)).Int("visits", len(out.Visits)).Msg("Dataset persisted to PostgreSQL")
	return out, nil
}

// sendBatchCollectIDs executes a batch of RETURNING id inserts and
// collects the assigned identifiers in queue order.
func sendBatchCollectIDs(ctx context.Context, tx pgx.Tx, batch *pgx.Batch) ([]int64, error) {
	if batch.Len() == 0 {
		return nil, nil
	}
	br := tx.SendBatch(ctx, batch)
	ids := make([]int64, 0, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		var id int64
		if err := br.QueryRow().Scan(&id); err != nil {
			br.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := br.Close(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SchedulesInRange retrieves schedules filtered by both identifier sets
// and a closed start-time window.
func (s *PostgresStore) SchedulesInRange(ctx context.Context, lectureIDs, groupIDs []int64, from, to time.Time) ([]models.Schedule, error) {
	query := `
		SELECT id, lecture_id, group_id, start_time, end_time
		FROM schedules
		WHERE lecture_id = ANY($1) AND group_id = ANY($2)
		  AND start_time >= $3 AND start_time <= $4
	`
	rows, err := s.db.Query(ctx, query, lectureIDs, groupIDs, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying schedules in range: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// SchedulesForGroup retrieves all schedules of one group for the given
// lectures.
func (s *PostgresStore) SchedulesForGroup(ctx context.Context, lectureIDs []int64, groupID int64) ([]models.Schedule, error) {
	query := `
		SELECT id, lecture_id, group_id, start_time, end_time
		FROM schedules
		WHERE lecture_id = ANY($1) AND group_id = $2
	`
	rows, err := s.db.Query(ctx, query, lectureIDs, groupID)
	if err != nil {
		return nil, fmt.Errorf("querying schedules for group: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func scanSchedules(rows pgx.Rows) ([]models.Schedule, error) {
	var schedules []models.Schedule
	for rows.Next() {
		var sch models.Schedule
		if err := rows.Scan(&sch.ID, &sch.LectureID, &sch.GroupID, &sch.StartTime, &sch.EndTime); err != nil {
			return nil, err
		}
		schedules = append(schedules, sch)
	}
	return schedules, rows.Err()
}

// VisitsBySchedules retrieves the visits of the given schedules.
func (s *PostgresStore) VisitsBySchedules(ctx context.Context, scheduleIDs []int64) ([]models.Visit, error) {
	query := `
		SELECT id, student_id, schedule_id, visit_time
		FROM visits
		WHERE schedule_id = ANY($1)
	`
	rows, err := s.db.Query(ctx, query, scheduleIDs)
	if err != nil {
		return nil, fmt.Errorf("querying visits by schedules: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

// VisitsBySchedulesAndStudents retrieves visits narrowed by both the
// schedule and the student identifier sets.
func (s *PostgresStore) VisitsBySchedulesAndStudents(ctx context.Context, scheduleIDs, studentIDs []int64) ([]models.Visit, error) {
	query := `
		SELECT id, student_id, schedule_id, visit_time
		FROM visits
		WHERE schedule_id = ANY($1) AND student_id = ANY($2)
	`
	rows, err := s.db.Query(ctx, query, scheduleIDs, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("querying visits by schedules and students: %w", err)
	}
	defer rows.Close()
	return scanVisits(rows)
}

func scanVisits(rows pgx.Rows) ([]models.Visit, error) {
	var visits []models.Visit
	for rows.Next() {
		var v models.Visit
		if err := rows.Scan(&v.ID, &v.StudentID, &v.ScheduleID, &v.VisitTime); err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// CourseByName retrieves one course by name. LIKE keeps operator-supplied
// patterns working; a plain name matches exactly. Absence returns nil, not
// an error.
func (s *PostgresStore) CourseByName(ctx context.Context, name string) (*models.Course, error) {
	query := `
		SELECT id, name, term, department_id, speciality_id
		FROM courses
		WHERE name LIKE $1
		LIMIT 1
	`
	var c models.Course
	err := s.db.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.Term, &c.DepartmentID, &c.SpecialityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying course by name: %w", err)
	}
	return &c, nil
}

// GroupByName retrieves one group by exact name; absence returns nil.
func (s *PostgresStore) GroupByName(ctx context.Context, name string) (*models.Group, error) {
	query := `
		SELECT id, name, department_id, start_date, end_date
		FROM groups
		WHERE name = $1
	`
	var g models.Group
	err := s.db.QueryRow(ctx, query, name).Scan(&g.ID, &g.Name, &g.DepartmentID, &g.StartDate, &g.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying group by name: %w", err)
	}
	return &g, nil
}

// CoursesByLecturesAndDepartment retrieves the distinct courses owning any
// of the lectures and belonging to the department.
func (s *PostgresStore) CoursesByLecturesAndDepartment(ctx context.Context, lectureIDs []int64, departmentID int64) ([]models.Course, error) {
	query := `
		SELECT DISTINCT c.id, c.name, c.term, c.department_id, c.speciality_id
		FROM courses c
		JOIN lectures l ON l.course_id = c.id
		WHERE l.id = ANY($1) AND c.department_id = $2
		ORDER BY c.id
	`
	rows, err := s.db.Query(ctx, query, lectureIDs, departmentID)
	if err != nil {
		return nil, fmt.Errorf("querying courses by lectures and department: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Name, &c.Term, &c.DepartmentID, &c.SpecialityID); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// LecturesByCourseYear retrieves the lectures of one course in one year.
func (s *PostgresStore) LecturesByCourseYear(ctx context.Context, courseID int64, year int) ([]models.Lecture, error) {
	query := `
		SELECT id, name, year, requirements, course_id
		FROM lectures
		WHERE course_id = $1 AND year = $2
		ORDER BY id
	`
	rows, err := s.db.Query(ctx, query, courseID, year)
	if err != nil {
		return nil, fmt.Errorf("querying lectures by course and year: %w", err)
	}
	defer rows.Close()
	return scanLectures(rows)
}

// LecturesByCoursesAndIDs retrieves the lectures that belong to any of the
// courses and appear in the identifier set.
func (s *PostgresStore) LecturesByCoursesAndIDs(ctx context.Context, courseIDs, lectureIDs []int64) ([]models.Lecture, error) {
	query := `
		SELECT id, name, year, requirements, course_id
		FROM lectures
		WHERE course_id = ANY($1) AND id = ANY($2)
		ORDER BY id
	`
	rows, err := s.db.Query(ctx, query, courseIDs, lectureIDs)
	if err != nil {
		return nil, fmt.Errorf("querying lectures by courses and ids: %w", err)
	}
	defer rows.Close()
	return scanLectures(rows)
}

func scanLectures(rows pgx.Rows) ([]models.Lecture, error) {
	var lectures []models.Lecture
	for rows.Next() {
		var l models.Lecture
		if err := rows.Scan(&l.ID, &l.Name, &l.Year, &l.Requirements, &l.CourseID); err != nil {
			return nil, err
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}
