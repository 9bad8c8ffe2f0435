package linkstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the durable Link Indirection Store backend, used when
// DATABASE_URL is set (spec §4.2, §6.3), equivalent to
// original_source/Adarsh/utils/database.py's Motor-backed collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type linkDocument struct {
	Token           string    `bson:"token"`
	ObjectID        int64     `bson:"object_id"`
	SourceChannelID int64     `bson:"source_channel_id"`
	FileName        string    `bson:"file_name"`
	FileSize        int64     `bson:"file_size"`
	MimeType        string    `bson:"mime_type"`
	Caption         string    `bson:"caption"`
	DomainTag       string    `bson:"domain_tag,omitempty"`
	ThumbnailURL    string    `bson:"thumbnail_url,omitempty"`
	CreatedAt       time.Time `bson:"created_at"`
}

func (d linkDocument) toRecord() LinkRecord {
	return LinkRecord{
		Token:           d.Token,
		ObjectID:        d.ObjectID,
		SourceChannelID: d.SourceChannelID,
		Display: Display{
			FileName: d.FileName,
			FileSize: d.FileSize,
			MimeType: d.MimeType,
			Caption:  d.Caption,
		},
		DomainTag:    d.DomainTag,
		ThumbnailURL: d.ThumbnailURL,
		CreatedAt:    d.CreatedAt,
	}
}

// NewMongoStore connects to uri and prepares the links collection,
// creating a unique index on token if it does not already exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("linkstore: connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("linkstore: ping mongo: %w", err)
	}

	collection := client.Database(database).Collection("links")
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("linkstore: create token index: %w", err)
	}

	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) Put(ctx context.Context, objectID, sourceChannelID int64, display Display, domainTag, thumbnailURL string) (LinkRecord, error) {
	token, err := newToken()
	if err != nil {
		return LinkRecord{}, err
	}
	doc := linkDocument{
		Token:           token,
		ObjectID:        objectID,
		SourceChannelID: sourceChannelID,
		FileName:        display.FileName,
		FileSize:        display.FileSize,
		MimeType:        display.MimeType,
		Caption:         display.Caption,
		DomainTag:       domainTag,
		ThumbnailURL:    thumbnailURL,
		CreatedAt:       time.Now().UTC(),
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return LinkRecord{}, fmt.Errorf("linkstore: insert link: %w", err)
	}
	return doc.toRecord(), nil
}

func (s *MongoStore) Get(ctx context.Context, token, requireDomainTag string) (LinkRecord, error) {
	var doc linkDocument
	err := s.collection.FindOne(ctx, bson.D{{Key: "token", Value: token}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return LinkRecord{}, ErrUnknownToken
	}
	if err != nil {
		return LinkRecord{}, fmt.Errorf("linkstore: find link: %w", err)
	}
	if requireDomainTag != "" && doc.DomainTag != "" && doc.DomainTag != requireDomainTag {
		return LinkRecord{}, ErrUnknownToken
	}
	return doc.toRecord(), nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
