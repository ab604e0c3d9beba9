package appointmentRepo

import (
	"context"
	"fmt"
	"time"

	"babyspa/database"
	"babyspa/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentRepo is the MongoDB-backed repository.
type MongoAppointmentRepo struct {
	coll        *mongo.Collection
	historyColl *mongo.Collection
	dayColl     *mongo.Collection
}

func NewMongoAppointmentRepo() *MongoAppointmentRepo {
	return &MongoAppointmentRepo{
		coll:        database.Collection("appointments"),
		historyColl: database.Collection("appointment_history"),
		dayColl:     database.Collection("day_occupancy"),
	}
}

func (r *MongoAppointmentRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTransaction(ctx, fn)
}

func (r *MongoAppointmentRepo) Create(ctx context.Context, apt *models.Appointment) error {
	now := time.Now()
	apt.CreatedAt = now
	apt.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, apt); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	var apt models.Appointment
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&apt)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &apt, nil
}

func (r *MongoAppointmentRepo) Update(ctx context.Context, apt *models.Appointment) error {
	apt.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"date":                apt.Date,
		"start_time":          apt.StartTime,
		"end_time":            apt.EndTime,
		"status":              apt.Status,
		"therapist_id":        apt.TherapistID,
		"package_purchase_id": apt.PackagePurchaseID,
		"notes":               apt.Notes,
		"cancel_reason":       apt.CancelReason,
		"updated_at":          apt.UpdatedAt,
	}}

	result, err := r.coll.UpdateOne(ctx, bson.M{"id": apt.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", apt.ID, err)
	}
	if result.MatchedCount == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *MongoAppointmentRepo) ListActiveByDate(ctx context.Context, date string) ([]models.Appointment, error) {
	filter := bson.M{
		"date":   date,
		"status": bson.M{"$ne": models.AppointmentCancelled},
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for %s: %w", date, err)
	}
	defer cursor.Close(ctx)

	var apts []models.Appointment
	if err := cursor.All(ctx, &apts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments for %s: %w", date, err)
	}
	return apts, nil
}

func (r *MongoAppointmentRepo) ListPendingPaymentBefore(ctx context.Context, cutoff time.Time) ([]models.Appointment, error) {
	filter := bson.M{
		"status":     models.AppointmentPendingPayment,
		"created_at": bson.M{"$lt": cutoff},
	}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale pending-payment appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var apts []models.Appointment
	if err := cursor.All(ctx, &apts); err != nil {
		return nil, fmt.Errorf("failed to decode stale pending-payment appointments: %w", err)
	}
	return apts, nil
}

func (r *MongoAppointmentRepo) AppendHistory(ctx context.Context, h *models.AppointmentHistory) error {
	h.CreatedAt = time.Now()
	if _, err := r.historyColl.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("failed to append appointment history: %w", err)
	}
	return nil
}

func (r *MongoAppointmentRepo) HistoryFor(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error) {
	cursor, err := r.historyColl.Find(ctx, bson.M{"appointment_id": appointmentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", appointmentID, err)
	}
	defer cursor.Close(ctx)

	var rows []models.AppointmentHistory
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode history for %s: %w", appointmentID, err)
	}
	return rows, nil
}

func (r *MongoAppointmentRepo) TouchDay(ctx context.Context, date string) error {
	_, err := r.dayColl.UpdateOne(ctx,
		bson.M{"date": date},
		bson.M{"$inc": bson.M{"rev": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to touch day occupancy %s: %w", date, err)
	}
	return nil
}
