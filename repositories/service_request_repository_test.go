package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/cyphexlabs/cyphex_backend/models"
)

const requestsNS = "cyphex.serviceRequests"

func TestTransitionByTxnIDAppliesExactlyOnce(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second callback for the same txnid loses the CAS", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		repo := NewServiceRequestRepository(mt.Client)
		ctx := context.Background()

		moved, err := repo.TransitionByTxnID(ctx, "txn-1", models.StatusAwaitingPayment, models.StatusInProgress)
		require.NoError(mt, err)
		assert.True(mt, moved)

		moved, err = repo.TransitionByTxnID(ctx, "txn-1", models.StatusAwaitingPayment, models.StatusInProgress)
		require.NoError(mt, err)
		assert.False(mt, moved)
	})
}

func TestRecordTxnID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("conflict outside awaiting payment", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(1, requestsNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: string(models.StatusInProgress)},
			}),
		)

		repo := NewServiceRequestRepository(mt.Client)
		err := repo.RecordTxnID(context.Background(), id, "txn-2")
		assert.ErrorIs(mt, err, models.ErrConflict)
	})

	mt.Run("missing request", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, requestsNS, mtest.FirstBatch),
		)

		repo := NewServiceRequestRepository(mt.Client)
		err := repo.RecordTxnID(context.Background(), id, "txn-3")
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}

func TestApplyTransitionStaleStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("status moved underneath the writer", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(1, requestsNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: string(models.StatusCancelled)},
			}),
		)

		repo := NewServiceRequestRepository(mt.Client)
		err := repo.ApplyTransition(context.Background(), id, models.StatusPendingApproval, models.StatusAwaitingPayment, nil)
		assert.ErrorIs(mt, err, models.ErrInvalidStateTransition)
	})
}

func TestDeliverReportInsertsBeforeCompleting(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("report write precedes the status write", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		repo := NewServiceRequestRepository(mt.Client)
		report := &models.Report{
			ServiceRequestID: id,
			FilePath:         "/uploads/reports/audit.pdf",
		}
		err := repo.DeliverReport(context.Background(), id, models.StatusInProgress, report)
		require.NoError(mt, err)

		// A crash between the two writes must leave an in_progress request
		// with an orphan report, never a completed request without one.
		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "insert", events[0].CommandName)
		assert.Equal(mt, "update", events[1].CommandName)
	})
}

func TestDeliverReportRemovesReportWhenCompletionLoses(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("losing the completion CAS deletes the inserted report", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(1, requestsNS, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: string(models.StatusCancelled)},
			}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		repo := NewServiceRequestRepository(mt.Client)
		report := &models.Report{
			ServiceRequestID: id,
			FilePath:         "/uploads/reports/audit.pdf",
		}
		err := repo.DeliverReport(context.Background(), id, models.StatusInProgress, report)
		assert.ErrorIs(mt, err, models.ErrInvalidStateTransition)

		events := mt.GetAllStartedEvents()
		require.NotEmpty(mt, events)
		assert.Equal(mt, "delete", events[len(events)-1].CommandName)
	})
}
