package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/linkgrid/pkg/cache"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "linkgrid"

const widgetsCollection = "widgets"

// MongoStore keeps one document per widget. Position fields may hold
// sub-documents or strings, depending on which client wrote them.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// widgetDoc is the decoded form of a widget document.
type widgetDoc struct {
	ID             string        `bson:"_id"`
	PageID         string        `bson:"page_id"`
	Type           string        `bson:"type"`
	Size           string        `bson:"size"`
	Position       bson.RawValue `bson:"position,omitempty"`
	WebPosition    bson.RawValue `bson:"web_position,omitempty"`
	MobilePosition bson.RawValue `bson:"mobile_position,omitempty"`
	Order          int64         `bson:"sort_order"`
	CreatedAt      time.Time     `bson:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at"`
}

// OpenMongo connects to uri and ensures the page index exists.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: mongo connect: %v", cache.ErrNetwork, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: mongo ping: %v", cache.ErrNetwork, err)
	}

	coll := client.Database(database).Collection(widgetsCollection)
	_, err = coll.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "page_id", Value: 1}, {Key: "sort_order", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func classifyMongo(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return err
}

// ListWidgets returns a page's records in insertion order.
func (s *MongoStore) ListWidgets(ctx context.Context, pageID string) ([]widget.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "created_at", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"page_id": pageID}, opts)
	if err != nil {
		return nil, wrapf(classifyMongo(err), "list widgets of %s", pageID)
	}
	defer cur.Close(ctx)

	var out []widget.Record
	for cur.Next(ctx) {
		var doc widgetDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, wrapf(err, "decode widget")
		}
		out = append(out, doc.record())
	}
	return out, classifyMongo(cur.Err())
}

func (s *MongoStore) nextOrder(ctx context.Context, pageID string) (int64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "sort_order", Value: -1}}).SetProjection(bson.M{"sort_order": 1})
	var last struct {
		Order int64 `bson:"sort_order"`
	}
	err := s.coll.FindOne(ctx, bson.M{"page_id": pageID}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, classifyMongo(err)
	}
	return last.Order + 1, nil
}

// CreateWidget inserts a document.
func (s *MongoStore) CreateWidget(ctx context.Context, pageID string, r widget.Record) error {
	if err := checkRecord(pageID, r); err != nil {
		return err
	}
	order, err := s.nextOrder(ctx, pageID)
	if err != nil {
		return wrapf(err, "create widget %s", r.ID)
	}
	doc, err := recordDoc(pageID, r)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	doc = append(doc,
		bson.E{Key: "sort_order", Value: order},
		bson.E{Key: "created_at", Value: now},
		bson.E{Key: "updated_at", Value: now},
	)
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicate(r.ID)
		}
		return wrapf(classifyMongo(err), "create widget %s", r.ID)
	}
	return nil
}

// SaveWidget upserts a document. New documents are appended to the page.
func (s *MongoStore) SaveWidget(ctx context.Context, pageID string, r widget.Record) error {
	if err := checkRecord(pageID, r); err != nil {
		return err
	}
	order, err := s.nextOrder(ctx, pageID)
	if err != nil {
		return wrapf(err, "save widget %s", r.ID)
	}
	set, err := recordDoc(pageID, r)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	set = append(set[1:], bson.E{Key: "updated_at", Value: now})

	unset := bson.D{}
	for _, f := range []struct {
		name string
		raw  json.RawMessage
	}{{"position", r.Position}, {"web_position", r.WebPosition}, {"mobile_position", r.MobilePosition}} {
		if len(f.raw) == 0 {
			unset = append(unset, bson.E{Key: f.name, Value: ""})
		}
	}

	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$setOnInsert", Value: bson.D{{Key: "sort_order", Value: order}, {Key: "created_at", Value: now}}},
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	_, err = s.coll.UpdateOne(ctx, bson.M{"_id": r.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return wrapf(classifyMongo(err), "save widget %s", r.ID)
	}
	return nil
}

// UpdatePosition writes one view's position as a sub-document.
func (s *MongoStore) UpdatePosition(ctx context.Context, id string, view widget.ViewMode, p widget.Point) error {
	field, err := positionField(view)
	if err != nil {
		return err
	}
	if _, err := widget.EncodePoint(p); err != nil {
		return err
	}
	return s.update(ctx, id, bson.D{{Key: field, Value: p}}, "update position of %s")
}

// UpdateSize writes the size tag.
func (s *MongoStore) UpdateSize(ctx context.Context, id string, size widget.Size) error {
	return s.update(ctx, id, bson.D{{Key: "size", Value: string(size)}}, "update size of %s")
}

func (s *MongoStore) update(ctx context.Context, id string, set bson.D, what string) error {
	set = append(set, bson.E{Key: "updated_at", Value: time.Now().UTC()})
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return wrapf(classifyMongo(err), what, id)
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}

// DeleteWidget removes a document.
func (s *MongoStore) DeleteWidget(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapf(classifyMongo(err), "delete widget %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// =============================================================================
// Conversion
// =============================================================================

// recordDoc builds the document fields of r. The _id field comes first.
// Positions keep their JSON shape: objects become sub-documents, strings
// stay strings.
func recordDoc(pageID string, r widget.Record) (bson.D, error) {
	doc := bson.D{
		{Key: "_id", Value: r.ID},
		{Key: "page_id", Value: pageID},
		{Key: "type", Value: r.Type},
		{Key: "size", Value: r.Size},
	}
	for _, f := range []struct {
		name string
		raw  json.RawMessage
	}{{"position", r.Position}, {"web_position", r.WebPosition}, {"mobile_position", r.MobilePosition}} {
		if len(f.raw) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(f.raw, &v); err != nil {
			// Unparseable input is kept verbatim as a string.
			v = string(f.raw)
		}
		doc = append(doc, bson.E{Key: f.name, Value: v})
	}
	return doc, nil
}

func (d widgetDoc) record() widget.Record {
	return widget.Record{
		ID:             d.ID,
		Type:           d.Type,
		Size:           d.Size,
		Position:       rawValueJSON(d.Position),
		WebPosition:    rawValueJSON(d.WebPosition),
		MobilePosition: rawValueJSON(d.MobilePosition),
	}
}

// rawValueJSON converts a stored BSON value to raw JSON. Absent and null
// values yield nil; values of unexpected BSON types are passed on as JSON
// strings so that position parsing rejects them.
func rawValueJSON(v bson.RawValue) json.RawMessage {
	switch v.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return nil
	case bsontype.String:
		b, _ := json.Marshal(v.StringValue())
		return b
	case bsontype.EmbeddedDocument:
		var m map[string]any
		if err := v.Unmarshal(&m); err != nil {
			return nil
		}
		b, err := json.Marshal(m)
		if err != nil {
			return nil
		}
		return b
	}
	b, _ := json.Marshal(v.String())
	return b
}

var _ Store = (*MongoStore)(nil)
