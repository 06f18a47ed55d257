package stores

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vmelnikov/unifed/internal/app/models"
)

const universitiesCollection = "universities"

// MongoStore is the document adapter. It holds the organizational
// hierarchy as one nested document per university.
type MongoStore struct {
	db     *mongo.Database
	logger zerolog.Logger
}

// NewMongoStore creates a document adapter over the given database handle.
func NewMongoStore(db *mongo.Database, logger zerolog.Logger) *MongoStore {
	return &MongoStore{db: db, logger: logger}
}

// InsertUniversities replaces the stored hierarchy with the given one.
// Documents carry relational identifiers as _id, so re-running a sync
// against a cleared collection never collides.
func (s *MongoStore) InsertUniversities(ctx context.Context, docs []models.UniversityDocument) error {
	coll := s.db.Collection(universitiesCollection)
	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("clearing universities collection: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting university documents: %w", err)
	}
	s.logger.Info().Int("universities", len(docs)).Msg("Hierarchy persisted to MongoDB")
	return nil
}
