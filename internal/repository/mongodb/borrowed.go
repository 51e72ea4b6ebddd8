package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

// Borrowed records are stored flat: pass-through fields sit next to bookId and email.
func toBorrowedDocument(rec models.BorrowedBook) bson.M {
	doc := make(bson.M, len(rec.Extra)+2) //nolint: gomnd // bookId, email
	for k, v := range rec.Extra {
		doc[k] = v
	}
	delete(doc, models.FieldID)
	doc[models.FieldBookID] = rec.BookID
	doc[models.FieldEmail] = rec.Email
	return doc
}

func fromBorrowedDocument(doc bson.M) models.BorrowedBook {
	if oid, ok := doc[models.FieldID].(primitive.ObjectID); ok {
		doc[models.FieldID] = oid.Hex()
	}
	return models.BorrowedFromDocument(doc)
}

type borrowedRepo struct {
	coll *mongo.Collection
}

func (r borrowedRepo) find(ctx context.Context, filter bson.M) ([]models.BorrowedBook, error) {
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find borrowed: %w", err)
	}
	var docs []bson.M
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode borrowed: %w", err)
	}
	recs := make([]models.BorrowedBook, 0, len(docs))
	for _, d := range docs {
		recs = append(recs, fromBorrowedDocument(d))
	}
	return recs, nil
}

func (r borrowedRepo) findOne(ctx context.Context, filter bson.M) (models.BorrowedBook, error) {
	var doc bson.M
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.BorrowedBook{}, notFound(err)
	}
	return fromBorrowedDocument(doc), nil
}

func (r borrowedRepo) ListByEmail(ctx context.Context, email string) ([]models.BorrowedBook, error) {
	return r.find(ctx, bson.M{models.FieldEmail: email})
}

func (r borrowedRepo) Get(ctx context.Context, id string) (models.BorrowedBook, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.BorrowedBook{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r borrowedRepo) FindOne(ctx context.Context, bookID, email string) (models.BorrowedBook, error) {
	return r.findOne(ctx, bson.M{models.FieldBookID: bookID, models.FieldEmail: email})
}

func (r borrowedRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{models.FieldEmail: email})
	if err != nil {
		return 0, fmt.Errorf("count borrowed: %w", err)
	}
	return n, nil
}

func (r borrowedRepo) Insert(ctx context.Context, rec models.BorrowedBook) (models.InsertResult, error) {
	res, err := r.coll.InsertOne(ctx, toBorrowedDocument(rec))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.InsertResult{}, models.ErrAlreadyBorrowed
		}
		return models.InsertResult{}, fmt.Errorf("insert borrowed: %w", err)
	}
	return insertedID(res), nil
}

func (r borrowedRepo) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("delete borrowed: %w", err)
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
