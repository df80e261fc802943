// AngelaMos | 2026
// repository_mongo.go

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civix-app/civix-backend/internal/core"
)

const usersCollection = "users"

type mongoRepository struct {
	users *mongo.Collection
}

// NewMongoRepository also creates the unique email index the credential
// store relies on for duplicate rejection.
func NewMongoRepository(
	ctx context.Context,
	db *mongo.Database,
) (Repository, error) {
	coll := db.Collection(usersCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create email index: %w", err)
	}

	return &mongoRepository{users: coll}, nil
}

func (r *mongoRepository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *mongoRepository) GetByID(
	ctx context.Context,
	id string,
) (*User, error) {
	var user User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *mongoRepository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	var user User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get user by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return &user, nil
}

func (r *mongoRepository) ExistsByEmail(
	ctx context.Context,
	email string,
) (bool, error) {
	count, err := r.users.CountDocuments(
		ctx,
		bson.M{"email": email},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return count > 0, nil
}

func (r *mongoRepository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return r.updateFields(ctx, id, bson.M{"password_hash": passwordHash})
}

func (r *mongoRepository) UpdateRole(
	ctx context.Context,
	id, role string,
	approved bool,
) error {
	return r.updateFields(ctx, id, bson.M{"role": role, "approved": approved})
}

func (r *mongoRepository) Approve(ctx context.Context, id string) error {
	return r.updateFields(ctx, id, bson.M{"approved": true})
}

func (r *mongoRepository) updateFields(
	ctx context.Context,
	id string,
	fields bson.M,
) error {
	fields["updated_at"] = time.Now().UTC()

	result, err := r.users.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": fields},
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}

	return nil
}

func (r *mongoRepository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	filter := bson.M{}

	if params.Search != "" {
		pattern := fmt.Sprintf(".*%s.*", escapeRegex(params.Search))
		filter["$or"] = bson.A{
			bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	if params.Role != "" {
		filter["role"] = params.Role
	}

	if params.Approved != nil {
		filter["approved"] = *params.Approved
	}

	total, err := r.users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(params.Offset())).
		SetLimit(int64(params.PageSize))

	cursor, err := r.users.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx) //nolint:errcheck // read-only cursor cleanup

	var users []User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	return users, int(total), nil
}

func escapeRegex(s string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, sp := range special {
			if r == sp {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}
