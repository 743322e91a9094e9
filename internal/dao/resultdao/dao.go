// Package resultdao persists solve results in the environment's
// results table. The handler path only ever writes, matching the
// DynamoDBWritePolicy scoping on the deployed function.
package resultdao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
	"github.com/segmentio/ksuid"
)

// PK represents a DynamoDB partition key in format {objective}/{key}
// Example: ap/id
type PK string

// NewPK creates a new partition key from objective and key column
func NewPK(objective, key string) PK {
	return PK(fmt.Sprintf("%s/%s", objective, key))
}

// ParsePK parses a partition key into its objective and key components
func ParsePK(pk PK) (objective, key string, err error) {
	parts := strings.Split(string(pk), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid PK format: %s, expected {objective}/{key}", pk)
	}
	return parts[0], parts[1], nil
}

// String returns the string representation of the partition key
func (pk PK) String() string { return string(pk) }

// Record represents one solved plan in DynamoDB
type Record struct {
	PK        PK     `ddb:"hash" dynamodbav:"pk"`  // {objective}/{key}
	SK        string `ddb:"range" dynamodbav:"sk"` // KSUID
	Objective string `dynamodbav:"objective,omitempty"`
	Key       string `dynamodbav:"key,omitempty"`        // id or name
	Items     string `dynamodbav:"items,omitempty"`      // requested items, raw query form
	Quests    string `dynamodbav:"quests,omitempty"`     // requested quest filter, raw query form
	Result    string `dynamodbav:"result,omitempty"`     // formatted result, JSON
	CreatedAt int64  `dynamodbav:"created_at,omitempty"` // Unix epoch timestamp
}

// CreateInput contains the fields needed to record a solve
type CreateInput struct {
	Objective string
	Key       string
	Items     string
	Quests    string
	Result    string
}

// DAO provides data access operations for solve result records
type DAO struct {
	db    *ddb.DDB
	table *ddb.Table
}

// New creates a new DAO instance
func New(client *dynamodb.Client, tableName string) *DAO {
	db := ddb.New(client)
	table := db.MustTable(tableName, &Record{})
	return &DAO{
		db:    db,
		table: table,
	}
}

// Create writes a new result record keyed by a fresh KSUID
func (d *DAO) Create(ctx context.Context, input CreateInput) (Record, error) {
	record := Record{
		PK:        NewPK(input.Objective, input.Key),
		SK:        ksuid.New().String(),
		Objective: input.Objective,
		Key:       input.Key,
		Items:     input.Items,
		Quests:    input.Quests,
		Result:    input.Result,
		CreatedAt: time.Now().Unix(),
	}

	if err := d.table.Put(&record).RunWithContext(ctx); err != nil {
		return Record{}, fmt.Errorf("failed to create result record: %w", err)
	}
	return record, nil
}
