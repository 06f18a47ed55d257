package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// Wire format of a student hash in the key-value store.
const (
	studentKeyPrefix      = "student:"
	studentFieldName      = "fio"
	studentFieldGroup     = "id_group"
	studentFieldRecipient = "date_of_recipient"
	studentDateFormat     = "2006-01-02"
)

// StudentKey returns the key-value store key of a student.
func StudentKey(id int64) string {
	return fmt.Sprintf("%s%d", studentKeyPrefix, id)
}

// RecordStatus classifies the outcome of reading one key-value record.
type RecordStatus int

const (
	// RecordParsed means the hash held every required field.
	RecordParsed RecordStatus = iota
	// RecordMissing means no hash exists under the key.
	RecordMissing
	// RecordMalformed means a required field was absent or unparseable.
	RecordMalformed
)

// StudentRecord is the typed result of parsing one student hash. Callers
// include only parsed records in aggregates; missing and malformed ones are
// logged and skipped.
type StudentRecord struct {
	Status  RecordStatus
	Student models.Student
	Reason  string
}

// parseStudentHash turns a raw hash into a StudentRecord. The full name may
// be empty, but the group reference and recipient date are required: a
// student without a resolvable group cannot participate in any aggregation.
func parseStudentHash(id int64, fields map[string]string) StudentRecord {
	if len(fields) == 0 {
		return StudentRecord{Status: RecordMissing}
	}

	st := models.Student{ID: id, FullName: fields[studentFieldName]}

	groupID, err := strconv.ParseInt(fields[studentFieldGroup], 10, 64)
	if err != nil {
		return StudentRecord{
			Status: RecordMalformed,
			Reason: fmt.Sprintf("invalid %s %q", studentFieldGroup, fields[studentFieldGroup]),
		}
	}
	st.GroupID = groupID

	recipient, err := time.Parse(studentDateFormat, fields[studentFieldRecipient])
	if err != nil {
		return StudentRecord{
			Status: RecordMalformed,
			Reason: fmt.Sprintf("invalid %s %q", studentFieldRecipient, fields[studentFieldRecipient]),
		}
	}
	st.DateOfRecipient = recipient

	return StudentRecord{Status: RecordParsed, Student: st}
}
