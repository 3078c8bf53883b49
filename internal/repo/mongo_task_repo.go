package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "TaskAPI/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "tasks"

// taskDocument mirrors the stored BSON document.
type taskDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	Priority  string             `bson:"priority"`
	DueDate   time.Time          `bson:"dueDate"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d taskDocument) toDomain() dom.Task {
	return dom.Task{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		Priority:  dom.Priority(d.Priority),
		DueDate:   d.DueDate.UTC(),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

// MongoTaskRepo implements TaskRepo with a MongoDB collection.
type MongoTaskRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoTaskRepo returns a new MongoTaskRepo over db.tasks. If now is nil, time.Now is used.
func NewMongoTaskRepo(db *mongo.Database, now func() time.Time) *MongoTaskRepo {
	if now == nil {
		now = time.Now
	}
	return &MongoTaskRepo{coll: db.Collection(mongoCollection), now: now}
}

// EnsureIndexes creates the createdAt index used by Latest.
func (r *MongoTaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

// BSON dates hold milliseconds.
func (r *MongoTaskRepo) stamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *MongoTaskRepo) Create(ctx context.Context, d dom.Draft) (dom.Task, error) {
	now := r.stamp()
	doc := taskDocument{
		Title:     d.Title,
		Content:   d.Content,
		Priority:  string(d.Priority),
		DueDate:   d.DueDate.UTC().Truncate(time.Millisecond),
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return dom.Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return dom.Task{}, fmt.Errorf("insert task: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) GetByID(ctx context.Context, id string) (dom.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Task{}, ErrNotFound
	}
	var doc taskDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, fmt.Errorf("get task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) List(ctx context.Context) ([]dom.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, opts)
}

func (r *MongoTaskRepo) Latest(ctx context.Context, n int) ([]dom.Task, error) {
	if n <= 0 {
		return []dom.Task{}, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(n))
	return r.find(ctx, opts)
}

func (r *MongoTaskRepo) Update(ctx context.Context, id string, d dom.Draft) (dom.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Task{}, ErrNotFound
	}
	// Pipeline form so updatedAt can be kept >= createdAt; $literal keeps
	// user strings starting with "$" from reading as field paths.
	update := mongo.Pipeline{{{Key: "$set", Value: bson.D{
		{Key: "title", Value: literal(d.Title)},
		{Key: "content", Value: literal(d.Content)},
		{Key: "priority", Value: literal(string(d.Priority))},
		{Key: "dueDate", Value: d.DueDate.UTC().Truncate(time.Millisecond)},
		{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{"$createdAt", r.stamp()}}}},
	}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, fmt.Errorf("update task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTaskRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoTaskRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func literal(v string) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

func (r *MongoTaskRepo) find(ctx context.Context, opts *options.FindOptions) ([]dom.Task, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	out := make([]dom.Task, len(docs))
	for i := range docs {
		out[i] = docs[i].toDomain()
	}
	return out, nil
}
