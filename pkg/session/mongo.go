package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps dialogues in a MongoDB collection. The document is
// stored as its JSON encoding since layout maps are keyed by integers.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Nodes     int       `bson:"nodes"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore creates a store over the "dialogues" collection of database.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection("dialogues"),
	}
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get: %w", err)
	}
	return decode(rec.Data)
}

func (s *MongoStore) Put(ctx context.Context, sess *Session) error {
	if err := touch(sess); err != nil {
		return err
	}
	data, err := encode(sess)
	if err != nil {
		return err
	}
	rec := mongoRecord{
		ID:        sess.ID,
		Name:      sess.Name,
		Nodes:     len(sess.Document.Nodes),
		Data:      data,
		UpdatedAt: sess.UpdatedAt,
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo put: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"data": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	defer cur.Close(ctx)

	out := []Summary{}
	for cur.Next(ctx) {
		var rec mongoRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("mongo decode: %w", err)
		}
		out = append(out, Summary{ID: rec.ID, Name: rec.Name, Nodes: rec.Nodes, UpdatedAt: rec.UpdatedAt})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
