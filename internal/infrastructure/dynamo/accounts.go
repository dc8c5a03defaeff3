package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-api-ledger/internal/domain"
)

// AccountRepo owns the accounts table and writes ledger rows to the
// transactions table in the same DynamoDB transaction as every balance change.
type AccountRepo struct {
	client            *dynamodb.Client
	accountsTable     string
	transactionsTable string
}

func NewAccountRepo(client *dynamodb.Client, accountsTable, transactionsTable string) *AccountRepo {
	return &AccountRepo{client: client, accountsTable: accountsTable, transactionsTable: transactionsTable}
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.accountsTable),
		Key:            strKey(fieldAccountID, accountID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser returns every account owned by userID via the user_id-index GSI.
func (r *AccountRepo) ListByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.accountsTable),
		IndexName:                 aws.String(indexUserID),
		KeyConditionExpression:    aws.String("#uid = :uid"),
		ExpressionAttributeNames:  map[string]string{"#uid": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: userID}},
	})
	accounts := []domain.Account{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Account
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		accounts = append(accounts, batch...)
	}
	return accounts, nil
}

// Create inserts a new account. When opening is non-nil the opening ledger row
// is written atomically with it. An existing account_id is a conflict.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account, opening *domain.Transaction) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	put := &types.Put{
		TableName:                aws.String(r.accountsTable),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": fieldAccountID},
	}

	if opening == nil {
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                put.TableName,
			Item:                     put.Item,
			ConditionExpression:      put.ConditionExpression,
			ExpressionAttributeNames: put.ExpressionAttributeNames,
		})
		if isConditionFailed(err) {
			return fmt.Errorf("account %s: %w", a.AccountID, domain.ErrConflict)
		}
		return err
	}

	entry, err := r.ledgerPut(opening)
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{{Put: put}, {Put: entry}},
	})
	if failed := cancelledAt(err); len(failed) > 0 && failed[0] {
		return fmt.Errorf("account %s: %w", a.AccountID, domain.ErrConflict)
	}
	return err
}

// Post applies one ledger entry: the account balance moves from expected to
// entry.NewBalance and the entry is appended, both or neither.
//
// It fails with domain.ErrStaleBalance when the stored balance is no longer
// expected (or the account is gone) and with domain.ErrDuplicateEntry when a
// row already exists at the entry's timestamp.
func (r *AccountRepo) Post(ctx context.Context, expected int64, entry *domain.Transaction) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldBalance:   entry.NewBalance,
		fieldUpdatedAt: time.UnixMilli(entry.Timestamp).UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldAccountID
	ue.Names["#bal"] = fieldBalance
	ue.Values[":expected"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)}

	put, err := r.ledgerPut(entry)
	if err != nil {
		return err
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.accountsTable),
				Key:                       strKey(fieldAccountID, entry.AccountID),
				UpdateExpression:          aws.String(ue.Expr),
				ConditionExpression:       aws.String("attribute_exists(#pk) AND #bal = :expected"),
				ExpressionAttributeNames:  ue.Names,
				ExpressionAttributeValues: ue.Values,
			}},
			{Put: put},
		},
	})
	if err != nil {
		return fmt.Errorf("post %s@%d: %w", entry.AccountID, entry.Timestamp, classifyPostFailure(err))
	}
	return nil
}

func (r *AccountRepo) ledgerPut(entry *domain.Transaction) (*types.Put, error) {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	return &types.Put{
		TableName:                aws.String(r.transactionsTable),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#ts)"),
		ExpressionAttributeNames: map[string]string{"#ts": fieldTimestamp},
	}, nil
}

// classifyPostFailure maps a cancelled Post transaction to the sentinel of the
// item whose condition failed: 0 is the balance update, 1 the ledger row.
// Contention with a concurrent transaction reads as a stale balance so the
// caller restarts from a fresh read.
func classifyPostFailure(err error) error {
	failed := cancelledAt(err)
	switch {
	case len(failed) > 0 && failed[0]:
		return domain.ErrStaleBalance
	case len(failed) > 1 && failed[1]:
		return domain.ErrDuplicateEntry
	case isContention(err):
		return domain.ErrStaleBalance
	}
	return err
}
