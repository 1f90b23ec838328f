package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cyphexlabs/cyphex_backend/config"
	"github.com/cyphexlabs/cyphex_backend/models"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Client) *UserRepository {
	return &UserRepository{
		collection: config.GetCollection(db, "users"),
	}
}

// FindByID loads one user by id.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads one user by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindStaffByID loads a user and requires a staff account. Used by
// assignment, where a non-staff target is reported as missing.
func (r *UserRepository) FindStaffByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "isStaff": true}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ListAdmins returns users holding any of the designated admin roles.
func (r *UserRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	filter := bson.M{"roles": bson.M{"$in": []string{
		models.RoleMainAdmin,
		models.RoleFullAccessAdmin,
		models.RolePartialAccessAdmin,
	}}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	admins := []models.User{}
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, err
	}
	for i := range admins {
		admins[i].Password = ""
	}
	return admins, nil
}

// Create inserts a new user account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.collection.InsertOne(ctx, user)
	return err
}

// UpdateName applies a confirmed profile-details mutation.
func (r *UserRepository) UpdateName(ctx context.Context, id primitive.ObjectID, firstName, lastName string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"firstName": firstName, "lastName": lastName, "updatedAt": time.Now()}},
	)
	return err
}

// UpdatePassword applies a confirmed password mutation (already hashed).
func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hashed string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": hashed, "updatedAt": time.Now()}},
	)
	return err
}

// CountActiveClients counts active non-staff accounts for the admin
// dashboard.
func (r *UserRepository) CountActiveClients(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"isStaff": false, "isActive": true})
}
