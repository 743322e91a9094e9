// Package deploydao records deploy pipeline runs in DynamoDB, one
// record per triggered run plus a "latest" magic record per
// environment for cheap status queries.
package deploydao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/savaki/ddb/v2"
)

const (
	latest = "latest"

	// StackBaseName is the stack component of every partition key.
	StackBaseName = "fgo-farming-solver"
)

// TableName derives the deploy-run table name for an environment.
func TableName(envName string) string {
	return fmt.Sprintf("fgo-farming-solver-deploys-%s", envName)
}

// PK represents a DynamoDB partition key in format {stack}/{env}
// Example: fgo-farming-solver/dev
type PK string

// NewPK creates a new partition key for an environment
func NewPK(envName string) PK {
	return PK(fmt.Sprintf("%s/%s", StackBaseName, envName))
}

// ParsePK parses a partition key into its stack and env components
func ParsePK(pk PK) (stack, envName string, err error) {
	parts := strings.Split(string(pk), "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid PK format: %s, expected {stack}/{env}", pk)
	}
	return parts[0], parts[1], nil
}

// String returns the string representation of the partition key
func (pk PK) String() string { return string(pk) }

// ID represents a deploy run ID in format {stack}/{env}:{ksuid}
type ID string

func (id ID) String() string { return string(id) }

// NewID constructs an ID from partition key and sort key
func NewID(pk PK, sk string) ID {
	return ID(fmt.Sprintf("%s:%s", pk, sk))
}

// ParseID parses a deploy run ID into its pk and sk components
func ParseID(id ID) (pk PK, sk string, err error) {
	parts := strings.Split(string(id), ":")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid deploy run ID format: %s, expected {stack}/{env}:{ksuid}", id)
	}
	return PK(parts[0]), parts[1], nil
}

// RunStatus represents the current status of a deploy run
type RunStatus string

const (
	RunStatusPending    RunStatus = "PENDING"
	RunStatusInProgress RunStatus = "IN_PROGRESS"
	RunStatusSuccess    RunStatus = "SUCCESS"
	RunStatusFailed     RunStatus = "FAILED"
)

// Record represents a deploy run record in DynamoDB
type Record struct {
	PK         PK        `ddb:"hash" dynamodbav:"pk"`  // {stack}/{env}
	SK         string    `ddb:"range" dynamodbav:"sk"` // KSUID
	ID         ID        `dynamodbav:"id,omitempty"`   // only set on latest entries
	Env        string    `dynamodbav:"env,omitempty"`
	Ref        string    `dynamodbav:"ref,omitempty"` // git ref that triggered the run
	Version    string    `dynamodbav:"version,omitempty"`
	StackName  string    `dynamodbav:"stack_name,omitempty"`
	Status     RunStatus `dynamodbav:"status,omitempty"`
	ErrorMsg   *string   `dynamodbav:"error_msg,omitempty"`
	CreatedAt  int64     `dynamodbav:"created_at,omitempty"`
	FinishedAt *int64    `dynamodbav:"finished_at,omitempty"`
	UpdatedAt  int64     `dynamodbav:"updated_at,omitempty"`
}

// GetID returns the full run ID in format {stack}/{env}:{ksuid}
func (r *Record) GetID() ID {
	if r.ID != "" {
		return r.ID
	}
	return NewID(r.PK, r.SK)
}

// CreateInput contains the fields needed to create a new deploy run record
type CreateInput struct {
	Env       string
	SK        string // KSUID sort key
	Ref       string
	Version   string
	StackName string
	Status    RunStatus // initial status, PENDING when empty
}

// UpdateInput contains the fields that can be updated on a deploy run record
type UpdateInput struct {
	PK       PK
	SK       string
	Status   *RunStatus
	ErrorMsg *string
}

// DAO provides data access operations for deploy run records
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

// Create creates a new deploy run record
func (d *DAO) Create(ctx context.Context, input CreateInput) (Record, error) {
	status := input.Status
	if status == "" {
		status = RunStatusPending
	}
	now := time.Now().Unix()

	record := Record{
		PK:        NewPK(input.Env),
		SK:        input.SK,
		Env:       input.Env,
		Ref:       input.Ref,
		Version:   input.Version,
		StackName: input.StackName,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := d.table.Put(&record).RunWithContext(ctx); err != nil {
		return Record{}, fmt.Errorf("failed to create deploy run record: %w", err)
	}
	return record, nil
}

// Find retrieves a deploy run record by ID
func (d *DAO) Find(ctx context.Context, id ID) (Record, error) {
	pk, sk, err := ParseID(id)
	if err != nil {
		return Record{}, err
	}

	var record Record
	err = d.table.Get(pk.String()).
		Range(sk).
		ConsistentRead(true).
		ScanWithContext(ctx, &record)
	if err != nil {
		return Record{}, fmt.Errorf("failed to find deploy run record: %w", err)
	}
	if record.PK == "" && record.SK == "" {
		return Record{}, fmt.Errorf("deploy run record not found: %s", id)
	}
	return record, nil
}

// UpdateStatus updates the status of a deploy run and refreshes the
// "latest" magic record (pk=latest/{env}, sk={stack}/{env}) in the
// same transaction.
func (d *DAO) UpdateStatus(ctx context.Context, input UpdateInput) error {
	if input.Status == nil {
		return fmt.Errorf("status is required")
	}

	now := time.Now().Unix()

	update := d.table.Update(input.PK).
		Range(input.SK).
		Set("#Status = ?", string(*input.Status)).
		Set("#UpdatedAt = ?", now)

	switch *input.Status {
	case RunStatusSuccess, RunStatusFailed:
		update = update.Set("#FinishedAt = ?", now)
	}

	if input.ErrorMsg != nil {
		update = update.Set("#ErrorMsg = ?", *input.ErrorMsg)
	}

	_, envName, err := ParsePK(input.PK)
	if err != nil {
		return fmt.Errorf("failed to parse PK: %w", err)
	}

	latestRecord := &Record{
		PK:        PK(fmt.Sprintf("%s/%s", latest, envName)),
		SK:        input.PK.String(),
		ID:        NewID(input.PK, input.SK),
		Env:       envName,
		Status:    *input.Status,
		UpdatedAt: now,
	}
	put := d.table.Put(latestRecord)

	if _, err := d.db.TransactWriteItemsWithContext(ctx, update, put); err != nil {
		return fmt.Errorf("failed to update deploy run status: %w", err)
	}
	return nil
}

// Query returns all deploy runs for an environment
func (d *DAO) Query(ctx context.Context, envName string) ([]Record, error) {
	var records []Record
	err := d.table.Query("#PK = ?", NewPK(envName).String()).
		FindAllWithContext(ctx, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to query deploy runs: %w", err)
	}
	return records, nil
}
