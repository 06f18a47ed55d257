package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// Adapter names as they appear in sync reports.
const (
	AdapterRelational = "postgres"
	AdapterDocument   = "mongo"
	AdapterGraph      = "neo4j"
	AdapterKeyValue   = "redis"
	AdapterSearch     = "elastic"
)

// AdapterResult records the outcome of one store write during a
// synchronization run.
type AdapterResult struct {
	Adapter string `json:"adapter"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// SyncReport is the composite outcome of one synchronization run: one
// result per adapter, no rollback semantics. A failed projection store
// simply lags until the next generation run.
type SyncReport struct {
	RunID    string               `json:"runId"`
	Counts   models.DatasetCounts `json:"counts"`
	Duration time.Duration        `json:"duration"`
	Adapters []AdapterResult      `json:"adapters"`
}

// AuthorityFailed reports whether the relational write failed. When it did,
// no identifiers exist and nothing else was attempted.
func (r *SyncReport) AuthorityFailed() bool {
	for _, a := range r.Adapters {
		if a.Adapter == AdapterRelational {
			return !a.OK
		}
	}
	return false
}

// AllOK reports whether every adapter write succeeded.
func (r *SyncReport) AllOK() bool {
	for _, a := range r.Adapters {
		if !a.OK {
			return false
		}
	}
	return true
}

// Synchronizer fans one authoritative dataset out into the five
// store-specific representations.
type Synchronizer struct {
	relational RelationalStore
	document   DocumentStore
	graph      GraphStore
	keyValue   KeyValueStore
	search     SearchStore
	logger     zerolog.Logger
}

// NewSynchronizer creates a synchronizer over the five store adapters.
func NewSynchronizer(relational RelationalStore, document DocumentStore, graph GraphStore,
	keyValue KeyValueStore, search SearchStore, logger zerolog.Logger) *Synchronizer {
	return &Synchronizer{
		relational: relational,
		document:   document,
		graph:      graph,
		keyValue:   keyValue,
		search:     search,
		logger:     logger,
	}
}

// Synchronize writes the dataset to the relational store first, derives the
// material documents from the now-stable identifiers, then projects into
// the remaining four stores concurrently. The returned error is non-nil
// only when the relational authority write failed; projection failures are
// recorded per adapter in the report and do not affect their siblings.
func (s *Synchronizer) Synchronize(ctx context.Context, ds *models.Dataset) (*SyncReport, error) {
	report := &SyncReport{RunID: uuid.NewString()}
	started := time.Now()

	s.logger.Info().
		Str("runId", report.RunID).
		Int("students", len(ds.Students)).
		Int("schedules", len(ds.Schedules)).
		Msg("Starting synchronization")

	// Identifier authority: the relational write assigns every identifier.
	// Everything after this step must use the returned copy of the dataset.
	stable, err := s.relational.InsertDataset(ctx, ds)
	if err != nil {
		report.Adapters = append(report.Adapters, AdapterResult{Adapter: AdapterRelational, Error: err.Error()})
		report.Duration = time.Since(started)
		s.logger.Error().Err(err).Str("runId", report.RunID).Msg("Relational write failed, aborting synchronization")
		return report, fmt.Errorf("relational write failed: %w", err)
	}
	report.Adapters = append(report.Adapters, AdapterResult{Adapter: AdapterRelational, OK: true})
	report.Counts = stable.Counts()

	docs := DeriveMaterialDocuments(stable)

	projections := []struct {
		name string
		run  func(context.Context) error
	}{
		{AdapterDocument, func(ctx context.Context) error {
			return s.document.InsertUniversities(ctx, buildUniversityDocuments(stable))
		}},
		{AdapterGraph, func(ctx context.Context) error {
			return s.projectGraph(ctx, stable)
		}},
		{AdapterKeyValue, func(ctx context.Context) error {
			return s.keyValue.SetHashes(ctx, buildStudentHashes(stable.Students))
		}},
		{AdapterSearch, func(ctx context.Context) error {
			return s.search.BulkIndex(ctx, docs)
		}},
	}

	// Independent fan-out: one result per adapter behind a barrier, so a
	// failing store never aborts its siblings.
	results := make([]AdapterResult, len(projections))
	var wg sync.WaitGroup
	for i, p := range projections {
		wg.Add(1)
		go func(i int, name string, run func(context.Context) error) {
			defer wg.Done()
			if err := run(ctx); err != nil {
				s.logger.Error().Err(err).Str("runId", report.RunID).Str("adapter", name).Msg("Projection write failed")
				results[i] = AdapterResult{Adapter: name, Error: err.Error()}
				return
			}
			results[i] = AdapterResult{Adapter: name, OK: true}
		}(i, p.name, p.run)
	}
	wg.Wait()

	report.Adapters = append(report.Adapters, results...)
	report.Duration = time.Since(started)

	s.logger.Info().
		Str("runId", report.RunID).
		Bool("allOk", report.AllOK()).
		Dur("duration", report.Duration).
		Msg("Synchronization finished")
	return report, nil
}

// projectGraph merges the identifier-only nodes and the three derived edge
// sets. Edges are deduplicated here so the merge batches stay minimal; the
// merge itself is idempotent either way.
func (s *Synchronizer) projectGraph(ctx context.Context, ds *models.Dataset) error {
	lectureIDs := make([]int64, 0, len(ds.Lectures))
	for _, l := range ds.Lectures {
		lectureIDs = append(lectureIDs, l.ID)
	}
	groupIDs := make([]int64, 0, len(ds.Groups))
	for _, g := range ds.Groups {
		groupIDs = append(groupIDs, g.ID)
	}
	studentIDs := make([]int64, 0, len(ds.Students))
	for _, st := range ds.Students {
		studentIDs = append(studentIDs, st.ID)
	}

	if err := s.graph.MergeNodes(ctx, models.NodeLecture, lectureIDs); err != nil {
		return fmt.Errorf("merging lecture nodes: %w", err)
	}
	if err := s.graph.MergeNodes(ctx, models.NodeGroup, groupIDs); err != nil {
		return fmt.Errorf("merging group nodes: %w", err)
	}
	if err := s.graph.MergeNodes(ctx, models.NodeStudent, studentIDs); err != nil {
		return fmt.Errorf("merging student nodes: %w", err)
	}

	teaches := deriveTeachesEdges(ds.Schedules)
	if err := s.graph.MergeEdges(ctx, models.EdgeTeaches, teaches); err != nil {
		return fmt.Errorf("merging %s edges: %w", models.EdgeTeaches, err)
	}
	if err := s.graph.MergeEdges(ctx, models.EdgeMemberOf, deriveMemberEdges(ds.Students)); err != nil {
		return fmt.Errorf("merging %s edges: %w", models.EdgeMemberOf, err)
	}
	if err := s.graph.MergeEdges(ctx, models.EdgeEligible, deriveEligibleEdges(ds.Students, teaches)); err != nil {
		return fmt.Errorf("merging %s edges: %w", models.EdgeEligible, err)
	}
	return nil
}

// deriveTeachesEdges maps schedule rows to distinct group->lecture edges.
func deriveTeachesEdges(schedules []models.Schedule) []models.Edge {
	seen := make(map[models.Edge]struct{}, len(schedules))
	edges := make([]models.Edge, 0, len(schedules))
	for _, sch := range schedules {
		e := models.Edge{FromID: sch.GroupID, ToID: sch.LectureID}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		edges = append(edges, e)
	}
	return edges
}

// deriveMemberEdges maps students to student->group edges.
func deriveMemberEdges(students []models.Student) []models.Edge {
	edges := make([]models.Edge, 0, len(students))
	for _, st := range students {
		edges = append(edges, models.Edge{FromID: st.ID, ToID: st.GroupID})
	}
	return edges
}

// deriveEligibleEdges computes the student->lecture closure through the
// group memberships and the already-deduplicated teaches edges.
func deriveEligibleEdges(students []models.Student, teaches []models.Edge) []models.Edge {
	lecturesByGroup := make(map[int64][]int64)
	for _, e := range teaches {
		lecturesByGroup[e.FromID] = append(lecturesByGroup[e.FromID], e.ToID)
	}
	var edges []models.Edge
	for _, st := range students {
		for _, lectureID := range lecturesByGroup[st.GroupID] {
			edges = append(edges, models.Edge{FromID: st.ID, ToID: lectureID})
		}
	}
	return edges
}

// buildUniversityDocuments nests the flat hierarchy into one document per
// university for the document store.
func buildUniversityDocuments(ds *models.Dataset) []models.UniversityDocument {
	departmentsByInstitute := make(map[int64][]models.DepartmentDocument)
	for _, d := range ds.Departments {
		departmentsByInstitute[d.InstituteID] = append(departmentsByInstitute[d.InstituteID],
			models.DepartmentDocument{ID: d.ID, Name: d.Name})
	}
	institutesByUniversity := make(map[int64][]models.InstituteDocument)
	for _, inst := range ds.Institutes {
		institutesByUniversity[inst.UniversityID] = append(institutesByUniversity[inst.UniversityID],
			models.InstituteDocument{
				ID:          inst.ID,
				Name:        inst.Name,
				Departments: departmentsByInstitute[inst.ID],
			})
	}
	docs := make([]models.UniversityDocument, 0, len(ds.Universities))
	for _, u := range ds.Universities {
		docs = append(docs, models.UniversityDocument{
			ID:         u.ID,
			Name:       u.Name,
			Institutes: institutesByUniversity[u.ID],
		})
	}
	return docs
}

// buildStudentHashes flattens students into the per-entity hash shape of
// the key-value store.
func buildStudentHashes(students []models.Student) map[string]map[string]string {
	entries := make(map[string]map[string]string, len(students))
	for _, st := range students {
		entries[StudentKey(st.ID)] = map[string]string{
			studentFieldName:      st.FullName,
			studentFieldGroup:     fmt.Sprintf("%d", st.GroupID),
			studentFieldRecipient: st.DateOfRecipient.Format(studentDateFormat),
		}
	}
	return entries
}
