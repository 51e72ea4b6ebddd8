package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jubayerahmmad/study-shelf-server/internal/domain/models"
)

type bookDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Image            string             `bson:"image"`
	Name             string             `bson:"name"`
	AuthorName       string             `bson:"authorName"`
	Category         string             `bson:"category"`
	Rating           float64            `bson:"rating"`
	Quantity         int                `bson:"quantity"`
	Description      string             `bson:"description,omitempty"`
	ShortDescription string             `bson:"shortDescription,omitempty"`
}

func toBookDocument(b models.Book) bookDocument {
	return bookDocument{
		Image:            b.Image,
		Name:             b.Name,
		AuthorName:       b.AuthorName,
		Category:         b.Category,
		Rating:           b.Rating,
		Quantity:         b.Quantity,
		Description:      b.Description,
		ShortDescription: b.ShortDescription,
	}
}

func (d bookDocument) model() models.Book {
	return models.Book{
		ID:               d.ID.Hex(),
		Image:            d.Image,
		Name:             d.Name,
		AuthorName:       d.AuthorName,
		Category:         d.Category,
		Rating:           d.Rating,
		Quantity:         d.Quantity,
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
	}
}

func bookFilter(f models.BookFilter) bson.M {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.AvailableOnly {
		filter["quantity"] = bson.M{"$gt": 0}
	}
	return filter
}

type bookRepo struct {
	coll *mongo.Collection
}

func (r bookRepo) List(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	cur, err := r.coll.Find(ctx, bookFilter(f))
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	var docs []bookDocument
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	books := make([]models.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.model())
	}
	return books, nil
}

func (r bookRepo) Get(ctx context.Context, id string) (models.Book, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.Book{}, err
	}
	var doc bookDocument
	if err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return models.Book{}, notFound(err)
	}
	return doc.model(), nil
}

func (r bookRepo) Insert(ctx context.Context, book models.Book) (models.InsertResult, error) {
	res, err := r.coll.InsertOne(ctx, toBookDocument(book))
	if err != nil {
		return models.InsertResult{}, fmt.Errorf("insert book: %w", err)
	}
	return insertedID(res), nil
}

func (r bookRepo) Update(ctx context.Context, id string, upd models.BookUpdate) (models.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	if upd.IsEmpty() {
		return models.UpdateResult{}, models.ErrEmptyUpdate
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M(upd.Fields())})
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("update book: %w", err)
	}
	return updateResult(res), nil
}

func (r bookRepo) IncrementQuantity(ctx context.Context, id string, delta int) (models.UpdateResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.UpdateResult{}, err
	}
	filter := bson.M{"_id": oid}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}
	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"quantity": delta}})
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("increment quantity: %w", err)
	}
	return updateResult(res), nil
}

func (r bookRepo) Delete(ctx context.Context, id string) (models.DeleteResult, error) {
	oid, err := objectID(id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return models.DeleteResult{}, fmt.Errorf("delete book: %w", err)
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
