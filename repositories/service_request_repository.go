package repositories

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
)

// ServiceRequestRepository is the single writer of request state. Every
// transition is a compare-and-swap on the current status inside one update,
// so two concurrent writers can never both apply the same transition.
type ServiceRequestRepository struct {
	requests *mongo.Collection
	reports  *mongo.Collection
}

// NewServiceRequestRepository creates a new service request repository
func NewServiceRequestRepository(db *mongo.Client) *ServiceRequestRepository {
	return &ServiceRequestRepository{
		requests: config.GetCollection(db, "serviceRequests"),
		reports:  config.GetCollection(db, "reports"),
	}
}

// Create inserts a newly submitted request in pending_approval.
func (r *ServiceRequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	req.ID = primitive.NewObjectID()
	req.Status = models.StatusPendingApproval
	req.RequestDate = time.Now()
	req.UpdatedAt = req.RequestDate

	_, err := r.requests.InsertOne(ctx, req)
	return err
}

// GetByID fetches one request, mapping a miss to models.ErrNotFound.
func (r *ServiceRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetByTxnID fetches the request that owns a payment transaction id.
func (r *ServiceRequestRepository) GetByTxnID(ctx context.Context, txnid string) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	err := r.requests.FindOne(ctx, bson.M{"paymentGatewayTxnId": txnid}).Decode(&req)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// List returns requests matching the caller's visibility filter, newest first.
func (r *ServiceRequestRepository) List(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requestDate", Value: -1}})
	cursor, err := r.requests.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.ServiceRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// ApplyTransition moves one request from expected status from to status to,
// applying extraSet in the same write. Returns ErrInvalidStateTransition
// when the request was not in from at write time, which is how concurrent
// duplicate events collapse to exactly one applied transition.
func (r *ServiceRequestRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, from, to models.RequestStatus, extraSet bson.M) error {
	set := bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}
	for k, v := range extraSet {
		set[k] = v
	}

	result, err := r.requests.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the request is gone or its status moved underneath us.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return models.ErrInvalidStateTransition
	}
	return nil
}

// TransitionByTxnID applies the payment transition keyed by transaction id.
// The status guard lives in the same update, so two callbacks for one txnid
// can never both move the request to in_progress.
func (r *ServiceRequestRepository) TransitionByTxnID(ctx context.Context, txnid string, from, to models.RequestStatus) (bool, error) {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"paymentGatewayTxnId": txnid, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// RecordTxnID stores a fresh transaction id on a request still awaiting
// payment. Returns ErrConflict when the request is not in awaiting_payment.
func (r *ServiceRequestRepository) RecordTxnID(ctx context.Context, id primitive.ObjectID, txnid string) error {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusAwaitingPayment},
		bson.M{"$set": bson.M{"paymentGatewayTxnId": txnid, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return models.ErrConflict
	}
	return nil
}

// Assign sets the staff member responsible for a request. Independent of
// status; allowed-role checks happen in the controller.
func (r *ServiceRequestRepository) Assign(ctx context.Context, id, adminID primitive.ObjectID) error {
	result, err := r.requests.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"assignedTo": adminID, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// CreateReport records an immutable deliverable artifact.
func (r *ServiceRequestRepository) CreateReport(ctx context.Context, report *models.Report) error {
	report.ID = primitive.NewObjectID()
	report.UploadedAt = time.Now()
	_, err := r.reports.InsertOne(ctx, report)
	return err
}

// DeliverReport attaches the deliverable and completes the request. The
// report insert happens before the status write: a failure between the two
// leaves an in_progress request with an orphaned report that a retry can
// supersede, never a completed request without its deliverable. When the
// completion CAS loses, the inserted report is removed again.
func (r *ServiceRequestRepository) DeliverReport(ctx context.Context, id primitive.ObjectID, from models.RequestStatus, report *models.Report) error {
	if err := r.CreateReport(ctx, report); err != nil {
		return err
	}

	if err := r.ApplyTransition(ctx, id, from, models.StatusCompleted, nil); err != nil {
		if _, delErr := r.reports.DeleteOne(ctx, bson.M{"_id": report.ID}); delErr != nil {
			log.Printf("Failed to remove report %s after losing completion for request %s: %v",
				report.ID.Hex(), id.Hex(), delErr)
		}
		return err
	}
	return nil
}

// ListReports returns the reports attached to the given requests.
func (r *ServiceRequestRepository) ListReports(ctx context.Context, requestIDs []primitive.ObjectID) ([]models.Report, error) {
	cursor, err := r.reports.Find(ctx, bson.M{"serviceRequestId": bson.M{"$in": requestIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []models.Report{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// CountByStatus groups matching requests by status. Used by dashboards, so
// it reads committed state only.
func (r *ServiceRequestRepository) CountByStatus(ctx context.Context, filter bson.M) (map[models.RequestStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := r.requests.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.RequestStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountSince counts matching requests submitted after the cutoff.
func (r *ServiceRequestRepository) CountSince(ctx context.Context, filter bson.M, since time.Time) (map[models.RequestStatus]int64, int64, error) {
	scoped := bson.M{"requestDate": bson.M{"$gte": since}}
	for k, v := range filter {
		scoped[k] = v
	}

	counts, err := r.CountByStatus(ctx, scoped)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return counts, total, nil
}
