package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RishiKendai/textmatch/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentsCollection = "documents"

var ErrDocumentNotFound = errors.New("document not found")

type DocumentsRepository struct {
	mongoRepo *MongoRepository
}

func NewDocumentsRepository(mongoRepo *MongoRepository) *DocumentsRepository {
	return &DocumentsRepository{
		mongoRepo: mongoRepo,
	}
}

// EnsureIndexes creates the checksum index used for de-duplication
func (r *DocumentsRepository) EnsureIndexes(ctx context.Context) error {
	err := r.mongoRepo.CreateIndexes(ctx, documentsCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "checksum", Value: 1}},
		Options: options.Index().SetName("checksum_1"),
	})
	if err != nil {
		return fmt.Errorf("failed to create document indexes: %w", err)
	}
	return nil
}

func (r *DocumentsRepository) InsertDocument(ctx context.Context, doc *models.Document) error {
	doc.CreatedAt = time.Now()

	res, err := r.mongoRepo.InsertOne(ctx, documentsCollection, doc)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = id
	}

	return nil
}

func (r *DocumentsRepository) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}

	var doc models.Document
	err = r.mongoRepo.FindOne(ctx, documentsCollection, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	return &doc, nil
}

// FindByChecksum returns the oldest document with the given checksum, or nil
func (r *DocumentsRepository) FindByChecksum(ctx context.Context, checksum string) (*models.Document, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	var doc models.Document
	err := r.mongoRepo.FindOne(ctx, documentsCollection, bson.M{"checksum": checksum}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document by checksum: %w", err)
	}

	return &doc, nil
}

func (r *DocumentsRepository) CountDocuments(ctx context.Context) (int64, error) {
	count, err := r.mongoRepo.CountDocuments(ctx, documentsCollection, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return count, nil
}
