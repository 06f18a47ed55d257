package models

// Store-specific projections of the dataset. The synchronizer builds these
// from the identifier-stable dataset; the adapters only persist them.

// Node kinds of the graph projection.
const (
	NodeStudent = "Student"
	NodeGroup   = "Group"
	NodeLecture = "Lecture"
)

// Edge kinds of the graph projection. All three are derived, not
// authoritative: TEACHES comes from schedule rows, MEMBER_OF from the
// students' group references, and ELIGIBLE is the transitive
// student->group->lecture closure. They are rebuilt wholesale on every
// generation run, never patched incrementally.
const (
	EdgeTeaches  = "TEACHES"
	EdgeMemberOf = "MEMBER_OF"
	EdgeEligible = "ELIGIBLE"
)

// Edge is one typed, directed identifier pair.
type Edge struct {
	FromID int64
	ToID   int64
}

// GroupAudience is a graph traversal row: one group attending a lecture and
// the number of its member students.
type GroupAudience struct {
	GroupID      int64 `json:"groupId"`
	StudentCount int   `json:"studentCount"`
}

// DepartmentDocument is the innermost level of the nested document
// projection.
type DepartmentDocument struct {
	ID   int64  `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// InstituteDocument nests the departments of one institute.
type InstituteDocument struct {
	ID          int64                `bson:"_id" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Departments []DepartmentDocument `bson:"departments" json:"departments"`
}

// UniversityDocument is the document-store projection: one document per
// university carrying the full institute/department hierarchy.
type UniversityDocument struct {
	ID         int64               `bson:"_id" json:"id"`
	Name       string              `bson:"name" json:"name"`
	Institutes []InstituteDocument `bson:"institutes" json:"institutes"`
}
