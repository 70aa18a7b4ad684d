// Package docstore keeps appointments and per-property visit settings in a
// document database.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AppointmentsCollection  = "appointments"
	VisitSettingsCollection = "visit_settings"
)

var ErrNotFound = errors.New("document not found")

type Store struct {
	appointments  *mongo.Collection
	visitSettings *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		appointments:  db.Collection(AppointmentsCollection),
		visitSettings: db.Collection(VisitSettingsCollection),
	}
}

// EnsureIndexes creates the lookup indexes the list queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.appointments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "propertyId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "buyerId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create appointment indexes: %w", err)
	}
	return nil
}

func (s *Store) GetVisitSettings(ctx context.Context, propertyID uuid.UUID) (*model.VisitSettings, error) {
	var doc visitSettingsDoc
	err := s.visitSettings.FindOne(ctx, bson.M{"_id": propertyID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

// UpsertVisitSettings replaces the property's settings document, creating it
// on first write.
func (s *Store) UpsertVisitSettings(ctx context.Context, v *model.VisitSettings) (*model.VisitSettings, error) {
	doc := toVisitSettingsDoc(v)
	doc.UpdatedAt = time.Now().UTC()
	_, err := s.visitSettings.ReplaceOne(ctx, bson.M{"_id": doc.PropertyID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) (*model.Appointment, error) {
	now := time.Now().UTC()
	doc := toAppointmentDoc(a)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := s.appointments.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toModel()
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc appointmentDoc
	err = s.appointments.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	update := bson.M{"$set": bson.M{"status": string(status), "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc appointmentDoc
	err = s.appointments.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

// ListAppointments returns matching appointments newest first.
func (s *Store) ListAppointments(ctx context.Context, f model.AppointmentFilter) ([]*model.Appointment, error) {
	filter := bson.M{}
	if len(f.PropertyIDs) > 0 {
		ids := make([]string, 0, len(f.PropertyIDs))
		for _, id := range f.PropertyIDs {
			ids = append(ids, id.String())
		}
		filter["propertyId"] = bson.M{"$in": ids}
	}
	if f.BuyerID != nil {
		filter["buyerId"] = f.BuyerID.String()
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)

	cur, err := s.appointments.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]*model.Appointment, 0, len(docs))
	for i := range docs {
		a, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
