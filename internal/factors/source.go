package factors

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrUnavailable is returned when no emission-factor table is configured.
var ErrUnavailable = errors.New("emission factors configuration not found")

// Source yields the currently active emission-factor table. The table is
// managed out-of-band (ops tooling writes it); this core only reads it.
type Source interface {
	Current(ctx context.Context) (*Table, error)
}

const (
	configCollection = "configuration"
	factorsDocID     = "emissionFactors"
)

// MongoSource reads the active factor table from the configuration
// collection, one document keyed by a well-known id.
type MongoSource struct {
	collection *mongo.Collection
}

// NewMongoSource creates a factor source backed by the given database.
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{collection: db.Collection(configCollection)}
}

// Current fetches the active table. Every log request loads a fresh
// snapshot so factor updates take effect without a restart; records priced
// against an older snapshot are never retroactively recomputed.
func (s *MongoSource) Current(ctx context.Context) (*Table, error) {
	var table Table
	err := s.collection.FindOne(ctx, bson.M{"_id": factorsDocID}).Decode(&table)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUnavailable
		}
		return nil, fmt.Errorf("failed to load emission factors: %w", err)
	}
	return &table, nil
}

// StaticSource serves a fixed table. Used in tests and single-tenant
// deployments that ship factors with the binary.
type StaticSource struct {
	Table *Table
}

func (s *StaticSource) Current(ctx context.Context) (*Table, error) {
	if s.Table == nil {
		return nil, ErrUnavailable
	}
	return s.Table, nil
}
