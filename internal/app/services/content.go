package services

import (
	"fmt"
	"strings"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// DeriveMaterialDocuments produces the search-index twin of every material.
// It is a pure transformation and must run after the relational write so
// the documents carry the authoritative material and lecture identifiers.
func DeriveMaterialDocuments(ds *models.Dataset) []models.MaterialDocument {
	lectureNames := make(map[int64]string, len(ds.Lectures))
	for _, l := range ds.Lectures {
		lectureNames[l.ID] = l.Name
	}

	docs := make([]models.MaterialDocument, 0, len(ds.Materials))
	for _, m := range ds.Materials {
		docs = append(docs, models.MaterialDocument{
			ID:        m.ID,
			Name:      m.Name,
			LectureID: m.LectureID,
			Content:   renderMaterialContent(m, lectureNames[m.LectureID]),
		})
	}
	return docs
}

// renderMaterialContent builds the full-text body indexed for a material.
// The text is derived from the material and lecture names only, so repeated
// runs over the same dataset produce identical documents.
func renderMaterialContent(m models.Material, lectureName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", m.Name)
	if lectureName != "" {
		fmt.Fprintf(&b, "Lecture: %s\n\n", lectureName)
	}
	fmt.Fprintf(&b, "Course handout covering %s.\n\n", strings.ToLower(m.Name))
	for _, section := range []string{"Overview", "Key definitions", "Worked examples", "Further reading"} {
		fmt.Fprintf(&b, "### %s\n\n%s of %s as presented in %s.\n\n",
			section, section, strings.ToLower(m.Name), lectureName)
	}
	fmt.Fprintf(&b, "---\nmaterial:%d lecture:%d\n", m.ID, m.LectureID)
	return b.String()
}
