package dynamo

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/storefront-api/internal/domain"
)

const (
	emailIndex = "email-index"
	tokenIndex = "verification_token-index"
)

// UserRepo is the DynamoDB credential store. It owns every write to the users table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
	now       func() time.Time
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, now: time.Now}
}

// Create inserts a new user. Email uniqueness is checked by the caller via GetByEmail;
// the condition only guards against an id collision.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("user id already exists: %w", domain.ErrConflict)
		}
		return storeErr("put user", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, storeErr("get user", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// GetByEmail looks up a user by normalised email via the email-index GSI.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, emailIndex, "email", domain.NormalizeEmail(email))
}

// GetByToken looks up the user holding an outstanding token. GSI reads are
// eventually consistent, so a just-issued token may briefly be missing here.
func (r *UserRepo) GetByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return r.queryGSI(ctx, tokenIndex, fieldVerificationToken, token)
}

// Update applies a partial SET on an existing user.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return r.update(ctx, userID, updates, nil, "attribute_exists(user_id)", nil)
}

// SetToken writes token, expiry and purpose in a single write, replacing any
// outstanding token. Concurrent calls are last-write-wins.
func (r *UserRepo) SetToken(ctx context.Context, userID string, p domain.PendingToken) error {
	return r.Update(ctx, userID, map[string]interface{}{
		fieldVerificationToken:  p.Token,
		fieldVerificationExpiry: p.ExpiresAt.UTC(),
		fieldTokenPurpose:       string(p.Purpose),
	})
}

// ClearToken applies updates and removes the token fields in one write, but
// only while the record still holds expected. Losing that race reports
// ErrInvalidOrExpired.
func (r *UserRepo) ClearToken(ctx context.Context, userID, expected string, updates map[string]interface{}) error {
	err := r.update(ctx, userID, updates, tokenFields, "#tok = :expected", func(ue *updateExpr) {
		ue.Names["#tok"] = fieldVerificationToken
		ue.Values[":expected"] = &types.AttributeValueMemberS{Value: expected}
	})
	if err != nil && isConditionFailed(err) {
		return fmt.Errorf("token no longer outstanding: %w", domain.ErrInvalidOrExpired)
	}
	return err
}

// Delete removes the user record permanently.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("user_id", userID),
		ConditionExpression: aws.String("attribute_exists(user_id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("user not found: %w", domain.ErrNotFound)
		}
		return storeErr("delete user", err)
	}
	return nil
}

// ScanPage returns a page of users.
// cursor is a base64-encoded user_id used as ExclusiveStartKey.
// Returns the items, a next cursor (empty string when no more pages), and any error.
func (r *UserRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		userID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("user_id", userID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", storeErr("scan users", err)
	}
	users := []domain.User{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &users); err != nil {
		return nil, "", fmt.Errorf("unmarshal users: %w", err)
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["user_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return users, nextCursor, nil
}

func (r *UserRepo) update(ctx context.Context, userID string, updates map[string]interface{}, removes []string, cond string, extend func(*updateExpr)) error {
	set := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		set[k] = v
	}
	set[fieldUpdatedAt] = r.now().UTC()
	ue, err := buildUpdateExpr(set, removes...)
	if err != nil {
		return err
	}
	if extend != nil {
		extend(ue)
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	switch {
	case err == nil:
		return nil
	case !isConditionFailed(err):
		return storeErr("update user", err)
	case extend == nil:
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	default:
		return err
	}
}

func encodeCursor(userID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(userID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, storeErr("query "+index, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}
