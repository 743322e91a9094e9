// Package dataset loads the drop-rate dataset (items, quests, drop
// rates) from the S3 bucket the function is wired to via BUCKET_NAME.
// The bucket holds three CSV objects with header rows: items.csv,
// quests.csv and drop_rates.csv.
package dataset

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

// Item is one row of items.csv.
type Item struct {
	ID       string
	Name     string
	Category string
}

// Quest is one row of quests.csv.
type Quest struct {
	ID      string
	Name    string
	Area    string
	Section string
	AP      int
}

// DropRate is one row of drop_rates.csv: the expected number of drops
// of an item per lap of a quest.
type DropRate struct {
	QuestID   string
	QuestName string
	ItemID    string
	ItemName  string
	Rate      float64
}

// Data is the full dataset for one solve.
type Data struct {
	Items     []Item
	Quests    []Quest
	DropRates []DropRate
}

// ObjectGetter is the slice of the S3 client the store needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store fetches dataset objects from a single bucket.
type Store struct {
	client ObjectGetter
	bucket string
}

func NewStore(client ObjectGetter, bucket string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
	}
}

// Fetch downloads and decodes all three dataset objects.
func (s *Store) Fetch(ctx context.Context) (*Data, error) {
	items, err := s.fetchCSV(ctx, "items.csv")
	if err != nil {
		return nil, err
	}
	quests, err := s.fetchCSV(ctx, "quests.csv")
	if err != nil {
		return nil, err
	}
	dropRates, err := s.fetchCSV(ctx, "drop_rates.csv")
	if err != nil {
		return nil, err
	}

	data := &Data{}
	if data.Items, err = decodeItems(items); err != nil {
		return nil, err
	}
	if data.Quests, err = decodeQuests(quests); err != nil {
		return nil, err
	}
	if data.DropRates, err = decodeDropRates(dropRates); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) fetchCSV(ctx context.Context, key string) (rows []map[string]string, err error) {
	logger := zerolog.Ctx(ctx)

	defer func(begin time.Time) {
		logger.Info().
			Interface("error", err).
			Str("bucket", s.bucket).
			Str("key", key).
			Int("rows", len(rows)).
			Dur("duration", time.Since(begin)).
			Msg("Fetched dataset object")
	}(time.Now())

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var apiErr smithy.APIError
		if stderrors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchKey" {
			return nil, fmt.Errorf("%w: s3://%s/%s", errors.ErrDatasetNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, s.bucket, err)
	}
	//goland:noinspection GoUnhandledErrorResult
	defer result.Body.Close()

	return decodeCSV(result.Body)
}

// decodeCSV reads a CSV document with a header row into one map per
// data row, keyed by column name.
func decodeCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[strings.TrimSpace(col)] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeItems(rows []map[string]string) ([]Item, error) {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, Item{
			ID:       row["id"],
			Name:     row["name"],
			Category: row["category"],
		})
	}
	return items, nil
}

func decodeQuests(rows []map[string]string) ([]Quest, error) {
	quests := make([]Quest, 0, len(rows))
	for i, row := range rows {
		ap, err := strconv.Atoi(row["ap"])
		if err != nil {
			return nil, fmt.Errorf("quests.csv row %d: invalid ap %q: %w", i+1, row["ap"], err)
		}
		quests = append(quests, Quest{
			ID:      row["id"],
			Name:    row["name"],
			Area:    row["area"],
			Section: row["section"],
			AP:      ap,
		})
	}
	return quests, nil
}

func decodeDropRates(rows []map[string]string) ([]DropRate, error) {
	dropRates := make([]DropRate, 0, len(rows))
	for i, row := range rows {
		rate, err := strconv.ParseFloat(row["drop_rate"], 64)
		if err != nil {
			return nil, fmt.Errorf("drop_rates.csv row %d: invalid drop_rate %q: %w", i+1, row["drop_rate"], err)
		}
		dropRates = append(dropRates, DropRate{
			QuestID:   row["quest_id"],
			QuestName: row["quest_name"],
			ItemID:    row["item_id"],
			ItemName:  row["item_name"],
			Rate:      rate,
		})
	}
	return dropRates, nil
}
