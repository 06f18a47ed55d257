package stores

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"

	"github.com/vmelnikov/unifed/internal/app/models"
)

// edgeEndpoints maps an edge kind to the labels of its endpoints. Kinds
// and labels are compile-time constants, never caller input, so embedding
// them in Cypher text is safe.
var edgeEndpoints = map[string][2]string{
	models.EdgeTeaches:  {models.NodeGroup, models.NodeLecture},
	models.EdgeMemberOf: {models.NodeStudent, models.NodeGroup},
	models.EdgeEligible: {models.NodeStudent, models.NodeLecture},
}

// Neo4jStore is the graph adapter. Nodes carry only relational
// identifiers; every attribute lookup goes back to the owning store.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	logger zerolog.Logger
}

// NewNeo4jStore creates a graph adapter over the given driver.
func NewNeo4jStore(driver neo4j.DriverWithContext, logger zerolog.Logger) *Neo4jStore {
	return &Neo4jStore{driver: driver, logger: logger}
}

// MergeNodes upserts one node per identifier under the given label.
func (s *Neo4jStore) MergeNodes(ctx context.Context, kind string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := fmt.Sprintf(`UNWIND $ids AS id MERGE (:%s {id: id})`, kind)
	_, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"ids": ids}, neo4j.EagerResultTransformer)
	if err != nil {
		return fmt.Errorf("merging %s nodes: %w", kind, err)
	}
	return nil
}

// MergeEdges upserts typed edges between already-merged nodes.
func (s *Neo4jStore) MergeEdges(ctx context.Context, kind string, edges []models.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	endpoints, ok := edgeEndpoints[kind]
	if !ok {
		return fmt.Errorf("unknown edge kind %q", kind)
	}
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{"from": e.FromID, "to": e.ToID})
	}
	query := fmt.Sprintf(`
		UNWIND $edges AS edge
		MATCH (a:%s {id: edge.from})
		MATCH (b:%s {id: edge.to})
		MERGE (a)-[:%s]->(b)`,
		endpoints[0], endpoints[1], kind)
	_, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"edges": rows}, neo4j.EagerResultTransformer)
	if err != nil {
		return fmt.Errorf("merging %s edges: %w", kind, err)
	}
	s.logger.Debug().Str("kind", kind).Int("edges", len(edges)).Msg("Edges merged")
	return nil
}

// LectureNeighbors resolves, in one traversal, the distinct eligible
// students of the lectures and the distinct groups taught any of them.
func (s *Neo4jStore) LectureNeighbors(ctx context.Context, lectureIDs []int64) (studentIDs, groupIDs []int64, err error) {
	query := `
		MATCH (l:Lecture) WHERE l.id IN $ids
		OPTIONAL MATCH (st:Student)-[:ELIGIBLE]->(l)
		OPTIONAL MATCH (g:Group)-[:TEACHES]->(l)
		RETURN collect(DISTINCT st.id) AS students, collect(DISTINCT g.id) AS groups`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"ids": lectureIDs}, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, nil, fmt.Errorf("querying lecture neighbors: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, nil, nil
	}
	record := result.Records[0]
	students, err := collectIDs(record, "students")
	if err != nil {
		return nil, nil, err
	}
	groups, err := collectIDs(record, "groups")
	if err != nil {
		return nil, nil, err
	}
	return students, groups, nil
}

// LectureAudience returns, per group taught the lecture, the number of its
// member students.
func (s *Neo4jStore) LectureAudience(ctx context.Context, lectureID int64) ([]models.GroupAudience, error) {
	query := `
		MATCH (g:Group)-[:TEACHES]->(l:Lecture {id: $id})
		OPTIONAL MATCH (st:Student)-[:MEMBER_OF]->(g)
		RETURN g.id AS groupId, count(st) AS students`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"id": lectureID}, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("querying lecture audience: %w", err)
	}
	audience := make([]models.GroupAudience, 0, len(result.Records))
	for _, record := range result.Records {
		groupID, _, err := neo4j.GetRecordValue[int64](record, "groupId")
		if err != nil {
			return nil, fmt.Errorf("reading audience group id: %w", err)
		}
		count, _, err := neo4j.GetRecordValue[int64](record, "students")
		if err != nil {
			return nil, fmt.Errorf("reading audience student count: %w", err)
		}
		audience = append(audience, models.GroupAudience{GroupID: groupID, StudentCount: int(count)})
	}
	return audience, nil
}

// GroupNeighbors resolves the lectures taught to one group and the
// students who are members of it.
func (s *Neo4jStore) GroupNeighbors(ctx context.Context, groupID int64) (lectureIDs, studentIDs []int64, err error) {
	query := `
		MATCH (g:Group {id: $id})
		OPTIONAL MATCH (g)-[:TEACHES]->(l:Lecture)
		OPTIONAL MATCH (st:Student)-[:MEMBER_OF]->(g)
		RETURN collect(DISTINCT l.id) AS lectures, collect(DISTINCT st.id) AS students`
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query,
		map[string]any{"id": groupID}, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, nil, fmt.Errorf("querying group neighbors: %w", err)
	}
	if len(result.Records) == 0 {
		return nil, nil, nil
	}
	record := result.Records[0]
	lectures, err := collectIDs(record, "lectures")
	if err != nil {
		return nil, nil, err
	}
	students, err := collectIDs(record, "students")
	if err != nil {
		return nil, nil, err
	}
	return lectures, students, nil
}

// collectIDs reads a collected identifier list column off a record.
func collectIDs(record *neo4j.Record, key string) ([]int64, error) {
	raw, _, err := neo4j.GetRecordValue[[]any](record, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s column: %w", key, err)
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, ok := v.(int64)
		if !ok {
			// OPTIONAL MATCH with no match collects a null.
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
