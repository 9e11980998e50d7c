// Package mongodb provides the MongoDB-backed implementation of
// storage.Storage, the service's default backend.
//
// Students are stored as documents in a single "students" collection:
//
//	{ "_id": ObjectId("..."), "name": "Ada", "age": 28, "grade": "A" }
//
// The collection is created with a $jsonSchema validator, so the server
// rejects documents that break the field rules even if they were written
// by another client. The same rules are checked in Go before every write.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/aanand-mishra/students-mongo-api/internal/config"
	"github.com/aanand-mishra/students-mongo-api/internal/storage"
	"github.com/aanand-mishra/students-mongo-api/internal/types"
)

const collectionName = "students"

// Server error codes.
const (
	codeNamespaceExists          = 48
	codeDocumentValidationFailed = 121
)

// studentSchema mirrors storage.ValidateStudent on the server side. Age
// must be an integer BSON type: a double like 28.5 would not decode into
// document.Age and would break every list call.
var studentSchema = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": bson.A{"name", "age", "grade"},
		"properties": bson.M{
			"name":  bson.M{"bsonType": "string", "minLength": 1},
			"age":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			"grade": bson.M{"bsonType": "string", "minLength": 1},
		},
	},
}

// document is the BSON shape of a stored student.
type document struct {
	ID    bson.ObjectID `bson:"_id,omitempty"`
	Name  string        `bson:"name"`
	Age   int           `bson:"age"`
	Grade string        `bson:"grade"`
}

func (d document) student() types.Student {
	return types.Student{
		ID:    d.ID.Hex(),
		Name:  d.Name,
		Age:   d.Age,
		Grade: d.Grade,
	}
}

// MongoDB is the concrete implementation of storage.Storage.
// A *mongo.Client owns its own connection pool and is safe for concurrent
// use.
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
	coll   *mongo.Collection
	log    zerolog.Logger
}

// New creates the client. It does not wait for the server: connections
// are opened lazily, so a request can race the first successful connect
// and fail at the call site. Call Init to ping and prepare the collection.
func New(cfg *config.Config, log zerolog.Logger) (*MongoDB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb.New: connect: %w", err)
	}

	db := client.Database(cfg.Storage.MongoDatabase)

	return &MongoDB{
		client: client,
		db:     db,
		coll:   db.Collection(collectionName),
		log:    log.With().Str("component", "mongodb").Logger(),
	}, nil
}

// Init pings the server and makes sure the students collection carries
// the schema validator. Only a failed ping is returned; schema setup
// problems (e.g. a user without createCollection rights) are logged,
// since validation still happens in Go.
func (m *MongoDB) Init(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb.Init: ping: %w", err)
	}

	if err := m.ensureCollection(ctx); err != nil {
		m.log.Warn().Err(err).Msg("students collection schema not applied")
	}
	return nil
}

func (m *MongoDB) ensureCollection(ctx context.Context) error {
	err := m.db.CreateCollection(ctx, collectionName,
		options.CreateCollection().SetValidator(studentSchema))
	if hasErrorCode(err, codeNamespaceExists) {
		m.log.Debug().Msg("students collection already exists")
		return nil
	}
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	m.log.Info().Msg("students collection created")
	return nil
}

// CreateStudent validates and inserts a new document. The id comes from
// the ObjectID the driver generates for the insert.
func (m *MongoDB) CreateStudent(ctx context.Context, student types.Student) (types.Student, error) {
	student, err := storage.ValidateStudent(student)
	if err != nil {
		return types.Student{}, err
	}

	doc := document{Name: student.Name, Age: student.Age, Grade: student.Grade}
	result, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", classify(err))
	}

	id, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return types.Student{}, fmt.Errorf("CreateStudent: unexpected id type %T", result.InsertedID)
	}
	doc.ID = id

	return doc.student(), nil
}

// GetStudentByID fetches a single document by _id.
func (m *MongoDB) GetStudentByID(ctx context.Context, id string) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}

	var doc document
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("GetStudentByID %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: find: %w", err)
	}

	return doc.student(), nil
}

// GetStudents returns every document in natural (insertion) order.
func (m *MongoDB) GetStudents(ctx context.Context) ([]types.Student, error) {
	cursor, err := m.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetStudents: decode: %w", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, doc.student())
	}
	return students, nil
}

// UpdateStudentByID overwrites name, age and grade together and returns
// the document as it is after the update. The server re-checks the
// collection validator on update.
func (m *MongoDB) UpdateStudentByID(ctx context.Context, id string, student types.Student) (types.Student, error) {
	oid, err := parseID(id)
	if err != nil {
		return types.Student{}, err
	}
	student, err = storage.ValidateStudent(student)
	if err != nil {
		return types.Student{}, err
	}

	update := bson.M{"$set": bson.M{
		"name":  student.Name,
		"age":   student.Age,
		"grade": student.Grade,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	err = m.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: %w", classify(err))
	}

	return doc.student(), nil
}

// DeleteStudentByID removes a document by _id.
func (m *MongoDB) DeleteStudentByID(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	err = m.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("DeleteStudentByID %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}

	return nil
}

// Ping checks the primary is reachable.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client, waiting for in-use connections to be
// returned to the pool or for ctx to expire.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func parseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w %q: %v", storage.ErrInvalidID, id, err)
	}
	return oid, nil
}

// classify maps server-side schema rejections onto storage.ErrValidation.
func classify(err error) error {
	if hasErrorCode(err, codeDocumentValidationFailed) {
		return fmt.Errorf("%w: %v", storage.ErrValidation, err)
	}
	return err
}

func hasErrorCode(err error, code int) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorCode(code)
}
