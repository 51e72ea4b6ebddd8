// Package mongodb implements the persistence gateway on a MongoDB deployment.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
	"github.com/jubayerahmmad/study-shelf-server/internal/repository"
)

const (
	BooksCollection    = "allBooks"
	BorrowedCollection = "borrowedBooks"

	connectTimeout = 10 * time.Second
)

type Repository struct {
	client   *mongo.Client
	books    *mongo.Collection
	borrowed *mongo.Collection
}

// Connect dials uri with the stable server API and verifies the deployment answers.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1).SetStrict(true).SetDeprecationErrors(true)).
		SetConnectTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	repo := New(client, database)
	if err = repo.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return repo, nil
}

func New(client *mongo.Client, database string) *Repository {
	db := client.Database(database)
	return &Repository{
		client:   client,
		books:    db.Collection(BooksCollection),
		borrowed: db.Collection(BorrowedCollection),
	}
}

// EnsureIndexes creates the (bookId, email) unique index that backs the duplicate-borrow check.
func (repo *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := repo.borrowed.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: models.FieldBookID, Value: 1}, {Key: models.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("bookId_email_unique"),
		},
		{
			Keys:    bson.D{{Key: models.FieldEmail, Value: 1}},
			Options: options.Index().SetName("email"),
		},
	})
	if err != nil {
		return fmt.Errorf("create borrowed indexes: %w", err)
	}
	return nil
}

func (repo *Repository) Books() repository.BookRepository {
	return bookRepo{coll: repo.books}
}

func (repo *Repository) Borrowed() repository.BorrowedRepository {
	return borrowedRepo{coll: repo.borrowed}
}

// RunInTx runs fn inside a session transaction. The driver retries fn on
// transient transaction errors, so fn must be safe to re-run.
func (repo *Repository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	sess, err := repo.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, repo)
	})
	return err
}

func (repo *Repository) Ping(ctx context.Context) error {
	if err := repo.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping: %w", err)
	}
	return nil
}

func (repo *Repository) Close(ctx context.Context) error {
	return repo.client.Disconnect(ctx)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, models.ErrInvalidIdentifier
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	return err
}

func insertedID(res *mongo.InsertOneResult) models.InsertResult {
	out := models.InsertResult{Acknowledged: true}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		out.InsertedID = oid.Hex()
	}
	return out
}

func updateResult(res *mongo.UpdateResult) models.UpdateResult {
	return models.UpdateResult{Acknowledged: true, MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}
}
