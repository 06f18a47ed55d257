package models

// Dataset is the authoritative in-memory dataset of one generation run. It
// is handed whole to the synchronizer and never mutated afterwards; every
// foreign key resolves to an entity in the same dataset.
type Dataset struct {
	Universities []University `json:"universities"`
	Institutes   []Institute  `json:"institutes"`
	Departments  []Department `json:"departments"`
	Specialities []Speciality `json:"specialities"`
	Groups       []Group      `json:"groups"`
	Students     []Student    `json:"students"`
	Courses      []Course     `json:"courses"`
	Lectures     []Lecture    `json:"lectures"`
	Materials    []Material   `json:"materials"`
	Schedules    []Schedule   `json:"schedules"`
	Visits       []Visit      `json:"visits"`
}

// DatasetCounts summarizes a dataset for sync reports and logs.
type DatasetCounts struct {
	Universities int `json:"universities"`
	Institutes   int `json:"institutes"`
	Departments  int `json:"departments"`
	Specialities int `json:"specialities"`
	Groups       int `json:"groups"`
	Students     int `json:"students"`
	Courses      int `json:"courses"`
	Lectures     int `json:"lectures"`
	Materials    int `json:"materials"`
	Schedules    int `json:"schedules"`
	Visits       int `json:"visits"`
}

// Counts returns the per-entity sizes of the dataset.
func (d *Dataset) Counts() DatasetCounts {
	return DatasetCounts{
		Universities: len(d.Universities),
		Institutes:   len(d.Institutes),
		Departments:  len(d.Departments),
		Specialities: len(d.Specialities),
		Groups:       len(d.Groups),
		Students:     len(d.Students),
		Courses:      len(d.Courses),
		Lectures:     len(d.Lectures),
		Materials:    len(d.Materials),
		Schedules:    len(d.Schedules),
		Visits:       len(d.Visits),
	}
}
