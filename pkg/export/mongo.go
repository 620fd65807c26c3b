package export

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/menuboard/pkg/errors"
)

// MongoConfig configures a [MongoHistory].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoHistory stores records in a MongoDB collection indexed by creation time.
type MongoHistory struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// recordDoc is the stored form of a Record.
type recordDoc struct {
	ID            string            `bson:"_id"`
	FileName      string            `bson:"file_name"`
	SVGURL        string            `bson:"svg_url,omitempty"`
	VisibleIDs    []string          `bson:"visible_ids"`
	RawVisibleIDs []string          `bson:"raw_visible_ids,omitempty"`
	Prices        map[string]string `bson:"prices,omitempty"`
	Size          int               `bson:"size"`
	UploadURL     string            `bson:"upload_url,omitempty"`
	CreatedAt     time.Time         `bson:"created_at"`
}

func toDoc(r Record) recordDoc {
	return recordDoc{
		ID:            r.ID.String(),
		FileName:      r.FileName,
		SVGURL:        r.SVGURL,
		VisibleIDs:    r.VisibleIDs,
		RawVisibleIDs: r.RawVisibleIDs,
		Prices:        r.Prices,
		Size:          r.Size,
		UploadURL:     r.UploadURL,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func fromDoc(d recordDoc) Record {
	id, _ := uuid.Parse(d.ID)
	return Record{
		ID:            id,
		FileName:      d.FileName,
		SVGURL:        d.SVGURL,
		VisibleIDs:    d.VisibleIDs,
		RawVisibleIDs: d.RawVisibleIDs,
		Prices:        d.Prices,
		Size:          d.Size,
		UploadURL:     d.UploadURL,
		CreatedAt:     d.CreatedAt,
	}
}

// NewMongoHistory connects, pings and ensures the created_at index.
func NewMongoHistory(ctx context.Context, cfg MongoConfig) (*MongoHistory, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "ping mongo")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "create history index")
	}
	return &MongoHistory{client: client, coll: coll}, nil
}

// Add implements History.
func (h *MongoHistory) Add(ctx context.Context, r Record) error {
	if _, err := h.coll.InsertOne(ctx, toDoc(r)); err != nil {
		return errs.Wrap(errs.ErrCodeUpstream, err, "record export %s", r.FileName)
	}
	return nil
}

// Recent implements History.
func (h *MongoHistory) Recent(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := h.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "list exports")
	}
	defer cur.Close(ctx)

	var docs []recordDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(errs.ErrCodeUpstream, err, "decode exports")
	}
	records := make([]Record, len(docs))
	for i, d := range docs {
		records[i] = fromDoc(d)
	}
	return records, nil
}

// Close implements History.
func (h *MongoHistory) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return h.client.Disconnect(ctx)
}
