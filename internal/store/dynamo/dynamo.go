// Package dynamo implementa el profile store sobre DynamoDB single-table.
//
// Esquema de claves heredado del deployment original: el perfil vive bajo
// PK=SK=`USER#<userId>` y la búsqueda por email resuelve `USER#<email>`,
// un item puntero que guarda el userId. El puntero se escribe junto con el
// perfil para que GetByEmail funcione de verdad (el deployment original
// solo escribía el item principal, con lo que el chequeo de duplicados por
// email nunca encontraba nada).
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/chgasparoto/tf-aws-serverless/internal/store/core"
)

// Client es el subset del cliente DynamoDB que usamos; permite fakes en tests.
type Client interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store implementa core.ProfileRepository sobre DynamoDB.
type Store struct {
	client Client
	table  string
}

// New crea el store para la tabla dada.
func New(client Client, table string) *Store {
	return &Store{client: client, table: table}
}

type item struct {
	PK                string `dynamodbav:"PK"`
	SK                string `dynamodbav:"SK"`
	UserID            string `dynamodbav:"UserId"`
	Email             string `dynamodbav:"Email"`
	CredentialLocator string `dynamodbav:"ThirdPartyServiceCredentials,omitempty"`
	CreatedAt         string `dynamodbav:"CreatedAt"`
	UpdatedAt         string `dynamodbav:"UpdatedAt"`
}

func userKey(id string) map[string]types.AttributeValue {
	k := "USER#" + id
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: k},
		"SK": &types.AttributeValueMemberS{Value: k},
	}
}

func (s *Store) GetByUserID(ctx context.Context, userID string) (*core.Profile, error) {
	return s.getByKey(ctx, userID)
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*core.Profile, error) {
	// El puntero de email guarda el userId real; segundo Get para el perfil.
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       userKey(email),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: getting email pointer: %w", err)
	}
	if out.Item == nil {
		return nil, core.ErrNotFound
	}
	var ptr item
	if err := attributevalue.UnmarshalMap(out.Item, &ptr); err != nil {
		return nil, fmt.Errorf("dynamo: decoding email pointer: %w", err)
	}
	if ptr.UserID == "" || ptr.UserID == email {
		// Puntero degenerado (item antiguo indexado por email).
		return itemToProfile(&ptr)
	}
	return s.getByKey(ctx, ptr.UserID)
}

func (s *Store) getByKey(ctx context.Context, id string) (*core.Profile, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       userKey(id),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: getting profile: %w", err)
	}
	if out.Item == nil {
		return nil, core.ErrNotFound
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("dynamo: decoding profile: %w", err)
	}
	return itemToProfile(&it)
}

func (s *Store) Put(ctx context.Context, p *core.Profile) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	key := "USER#" + p.UserID
	main := item{
		PK:                key,
		SK:                key,
		UserID:            p.UserID,
		Email:             p.Email,
		CredentialLocator: p.CredentialLocator,
		CreatedAt:         now.Format(time.RFC3339),
		UpdatedAt:         now.Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(main)
	if err != nil {
		return fmt.Errorf("dynamo: encoding profile: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}); err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return core.ErrDuplicate
		}
		return fmt.Errorf("dynamo: putting profile: %w", err)
	}

	emailKey := "USER#" + p.Email
	ptr := item{PK: emailKey, SK: emailKey, UserID: p.UserID, Email: p.Email}
	pav, err := attributevalue.MarshalMap(ptr)
	if err != nil {
		return fmt.Errorf("dynamo: encoding email pointer: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      pav,
	}); err != nil {
		return fmt.Errorf("dynamo: putting email pointer: %w", err)
	}
	return nil
}

func (s *Store) UpdateCredentialLocator(ctx context.Context, userID, locator string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 userKey(userID),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		UpdateExpression:    aws.String("SET ThirdPartyServiceCredentials = :credentials, UpdatedAt = :timestamp"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":credentials": &types.AttributeValueMemberS{Value: locator},
			":timestamp":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return core.ErrNotFound
		}
		return fmt.Errorf("dynamo: updating credential locator: %w", err)
	}
	return nil
}

func itemToProfile(it *item) (*core.Profile, error) {
	p := &core.Profile{
		UserID:            it.UserID,
		Email:             it.Email,
		CredentialLocator: it.CredentialLocator,
	}
	if it.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, it.CreatedAt)
		if err == nil {
			p.CreatedAt = t
		}
	}
	if it.UpdatedAt != "" {
		t, err := time.Parse(time.RFC3339, it.UpdatedAt)
		if err == nil {
			p.UpdatedAt = t
		}
	}
	return p, nil
}
