package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/threadworks/order-tracking/internal/core/domain"
)

const (
	collectionAdmins  = "admins"
	collectionWorkers = "workers"
)

// AccountRepository stores admins and workers in two collections. Every
// lookup that does not know the role walks the variants in domain.Roles order.
type AccountRepository struct {
	variants map[domain.Role]*mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{variants: map[domain.Role]*mongo.Collection{
		domain.RoleAdmin:  db.Collection(collectionAdmins),
		domain.RoleWorker: db.Collection(collectionWorkers),
	}}
}

type accountDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Name            string             `bson:"name"`
	Email           string             `bson:"email"`
	PasswordHash    string             `bson:"password"`
	Role            string             `bson:"role"`
	Phone           string             `bson:"phone,omitempty"`
	ProfileImageURL string             `bson:"profile_image_url,omitempty"`
	DOB             string             `bson:"dob,omitempty"`
	Address         string             `bson:"address,omitempty"`
	RefreshToken    string             `bson:"refresh_token,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (d *accountDoc) toDomain(role domain.Role) *domain.Account {
	return &domain.Account{
		ID:              d.ID.Hex(),
		Name:            d.Name,
		Email:           d.Email,
		PasswordHash:    d.PasswordHash,
		Role:            role,
		Phone:           d.Phone,
		ProfileImageURL: d.ProfileImageURL,
		DOB:             d.DOB,
		Address:         d.Address,
		RefreshToken:    d.RefreshToken,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

func (r *AccountRepository) collection(role domain.Role) (*mongo.Collection, error) {
	coll, ok := r.variants[role]
	if !ok {
		return nil, fmt.Errorf("unknown account role %q", role)
	}
	return coll, nil
}

// Create inserts the account into the collection for its role.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	coll, err := r.collection(account.Role)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDoc{
		Name:            account.Name,
		Email:           account.Email,
		PasswordHash:    account.PasswordHash,
		Role:            string(account.Role),
		Phone:           account.Phone,
		ProfileImageURL: account.ProfileImageURL,
		DOB:             account.DOB,
		Address:         account.Address,
		CreatedAt:       account.CreatedAt,
		UpdatedAt:       account.UpdatedAt,
	}

	res, err := coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert account: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toDomain(account.Role), nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByRefreshToken(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"refresh_token": token})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for _, role := range domain.Roles {
		var doc accountDoc
		err := r.variants[role].FindOne(ctx, filter).Decode(&doc)
		if err == nil {
			return doc.toDomain(role), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find %s account: %w", role, err)
		}
	}
	return nil, domain.ErrUserNotFound
}

// SetRefreshToken overwrites the stored refresh token.
func (r *AccountRepository) SetRefreshToken(ctx context.Context, role domain.Role, id, token string) error {
	res, err := r.updateRefreshToken(ctx, role, id, nil, token)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SwapRefreshToken is a compare-and-swap on the stored refresh token.
func (r *AccountRepository) SwapRefreshToken(ctx context.Context, role domain.Role, id, current, next string) error {
	res, err := r.updateRefreshToken(ctx, role, id, &current, next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: refresh token already rotated", domain.ErrInvalidToken)
	}
	return nil
}

func (r *AccountRepository) updateRefreshToken(ctx context.Context, role domain.Role, id string, expected *string, next string) (*mongo.UpdateResult, error) {
	coll, err := r.collection(role)
	if err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := coll.UpdateOne(ctx, refreshTokenFilter(oid, expected), setRefreshTokenUpdate(next, time.Now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("update refresh token: %w", err)
	}
	return res, nil
}

// refreshTokenFilter matches the account by id and, when expected is set,
// only while it still holds that exact refresh token.
func refreshTokenFilter(oid primitive.ObjectID, expected *string) bson.M {
	filter := bson.M{"_id": oid}
	if expected != nil {
		filter["refresh_token"] = *expected
	}
	return filter
}

func setRefreshTokenUpdate(next string, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"refresh_token": next,
		"updated_at":    now,
	}}
}

func clearRefreshTokenUpdate(now time.Time) bson.M {
	return bson.M{
		"$unset": bson.M{"refresh_token": ""},
		"$set":   bson.M{"updated_at": now},
	}
}

// ClearRefreshToken unsets token on the first account holding it.
func (r *AccountRepository) ClearRefreshToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"refresh_token": token}
	update := clearRefreshTokenUpdate(time.Now().UTC())
	opts := options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1})

	for _, role := range domain.Roles {
		var doc accountDoc
		err := r.variants[role].FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if err == nil {
			return doc.ID.Hex(), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("clear %s refresh token: %w", role, err)
		}
	}
	return "", nil
}

// EnsureIndexes creates the unique email index and the refresh token lookup
// index on both collections.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "refresh_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	for _, role := range domain.Roles {
		if _, err := r.variants[role].Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", role, err)
		}
	}
	return nil
}
