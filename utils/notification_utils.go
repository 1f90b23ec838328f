// utils/notification_utils.go
package utils

import (
	"context"
	"log"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
)

// SaveNotification saves an in-app notification to the database
func SaveNotification(db *mongo.Client, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := config.GetCollection(db, "notifications").InsertOne(context.Background(), notification)
	return err
}

// SendPushNotification delivers an FCM push to a user's registered device.
// Best-effort: failures are logged, never surfaced to the triggering flow.
func SendPushNotification(fcmToken, title, body string) {
	if fcmToken == "" || config.FirebaseApp == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := config.FirebaseApp.Messaging(ctx)
		if err != nil {
			log.Printf("Failed to create FCM client: %v", err)
			return
		}

		msg := &messaging.Message{
			Token: fcmToken,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
		}

		if _, err := client.Send(ctx, msg); err != nil {
			log.Printf("Failed to send push notification: %v", err)
		}
	}()
}

// NotifyRequestUpdate records an in-app notification and pushes it to the
// client's device. Used by the lifecycle engine's side effects.
func NotifyRequestUpdate(db *mongo.Client, user *models.User, title, message string, data interface{}) {
	if err := SaveNotification(db, user.ID, title, message, "request_update", data); err != nil {
		log.Printf("Failed to save notification for %s: %v", user.ID.Hex(), err)
	}
	SendPushNotification(user.FCMToken, title, message)
}
