package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"wordwebs/internal/config"
	"wordwebs/internal/game"
	"wordwebs/internal/models"
)

// dateIndex is the GSI on the sessions table keyed by puzzle_date.
const dateIndex = "puzzle-date-index"

// dynamoAPI is the slice of the DynamoDB client this store uses,
// narrowed so tests can substitute a fake.
type dynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Dynamo implements Store on DynamoDB, one table per record family.
type Dynamo struct {
	client dynamoAPI
	prefix string
}

// OpenDynamo loads the default AWS config and returns a DynamoDB-backed
// store. Table names are derived from the configured prefix
// (e.g. wordwebs-daily-puzzles).
func OpenDynamo(ctx context.Context, cfg *config.Config) (*Dynamo, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Dynamo{
		client: dynamodb.NewFromConfig(awsCfg),
		prefix: cfg.TablePrefix,
	}, nil
}

func (d *Dynamo) table(name string) *string {
	return aws.String(d.prefix + "-" + name)
}

func (d *Dynamo) Puzzles() PuzzleStore   { return (*dynamoPuzzles)(d) }
func (d *Dynamo) Players() PlayerStore   { return (*dynamoPlayers)(d) }
func (d *Dynamo) Sessions() SessionStore { return (*dynamoSessions)(d) }
func (d *Dynamo) Archive() ArchiveStore  { return (*dynamoArchive)(d) }
func (d *Dynamo) Channels() ChannelStore { return (*dynamoChannels)(d) }
func (d *Dynamo) Themes() ThemeStore     { return (*dynamoThemes)(d) }

// Close is a no-op; the SDK client holds no connection state to release.
func (d *Dynamo) Close() error { return nil }

// getItem fetches and unmarshals a single item, mapping a missing item
// to ErrNotFound.
func (d *Dynamo) getItem(ctx context.Context, table string, key map[string]types.AttributeValue, out any) error {
	resp, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: d.table(table),
		Key:       key,
	})
	if err != nil {
		return fmt.Errorf("dynamo get %s: %w", table, err)
	}
	if resp.Item == nil {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(resp.Item, out); err != nil {
		return fmt.Errorf("unmarshal %s item: %w", table, err)
	}
	return nil
}

// putItem marshals and writes a single item.
func (d *Dynamo) putItem(ctx context.Context, table string, item any) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal %s item: %w", table, err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: d.table(table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamo put %s: %w", table, err)
	}
	return nil
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

type dynamoPuzzles Dynamo

func (d *dynamoPuzzles) GetByDate(ctx context.Context, date string) (*models.Puzzle, error) {
	var puzzle models.Puzzle
	if err := (*Dynamo)(d).getItem(ctx, "daily-puzzles", stringKey("puzzle_date", date), &puzzle); err != nil {
		return nil, err
	}
	return &puzzle, nil
}

func (d *dynamoPuzzles) Put(ctx context.Context, puzzle *models.Puzzle) error {
	return (*Dynamo)(d).putItem(ctx, "daily-puzzles", puzzle)
}

type dynamoPlayers Dynamo

func (d *dynamoPlayers) Get(ctx context.Context, discordID string) (*models.Player, error) {
	var player models.Player
	if err := (*Dynamo)(d).getItem(ctx, "players", stringKey("discord_id", discordID), &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (d *dynamoPlayers) Put(ctx context.Context, player *models.Player) error {
	return (*Dynamo)(d).putItem(ctx, "players", player)
}

func (d *dynamoPlayers) RecordResult(ctx context.Context, discordID string, won bool, completionTime *int) error {
	update := "ADD total_games :one SET last_played = :last"
	values := map[string]types.AttributeValue{
		":one":  &types.AttributeValueMemberN{Value: "1"},
		":last": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}

	if won {
		update = "ADD total_games :one, games_won :one SET last_played = :last"
		if completionTime != nil {
			// Lower best_time only when strictly smaller or unset.
			player, err := d.Get(ctx, discordID)
			if err != nil {
				return err
			}
			if player.BestTime == nil || *completionTime < *player.BestTime {
				update += ", best_time = :best"
				values[":best"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", *completionTime)}
			}
		}
	}

	_, err := (*Dynamo)(d).client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 (*Dynamo)(d).table("players"),
		Key:                       stringKey("discord_id", discordID),
		UpdateExpression:          aws.String(update),
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("dynamo update player %s: %w", discordID, err)
	}
	return nil
}

type dynamoSessions Dynamo

func (d *dynamoSessions) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	if err := (*Dynamo)(d).getItem(ctx, "game-sessions", stringKey("session_id", id), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (d *dynamoSessions) GetByPlayerDate(ctx context.Context, discordID, date string) (*models.Session, error) {
	in := &dynamodb.QueryInput{
		TableName:              (*Dynamo)(d).table("game-sessions"),
		IndexName:              aws.String(dateIndex),
		KeyConditionExpression: aws.String("puzzle_date = :date"),
		FilterExpression:       aws.String("discord_id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: date},
			":id":   &types.AttributeValueMemberS{Value: discordID},
		},
	}

	// The filter runs after the page is read, so a page can come back
	// empty while a match sits on a later one.
	for {
		resp, err := (*Dynamo)(d).client.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamo query sessions by player: %w", err)
		}
		if len(resp.Items) > 0 {
			var session models.Session
			if err := attributevalue.UnmarshalMap(resp.Items[0], &session); err != nil {
				return nil, fmt.Errorf("unmarshal session: %w", err)
			}
			return &session, nil
		}
		if resp.LastEvaluatedKey == nil {
			return nil, ErrNotFound
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func (d *dynamoSessions) Put(ctx context.Context, session *models.Session) error {
	return (*Dynamo)(d).putItem(ctx, "game-sessions", session)
}

func (d *dynamoSessions) Update(ctx context.Context, session *models.Session) error {
	expected := session.Revision
	session.Revision++
	session.UpdatedAt = time.Now().UTC()

	av, err := attributevalue.MarshalMap(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = (*Dynamo)(d).client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           (*Dynamo)(d).table("game-sessions"),
		Item:                av,
		ConditionExpression: aws.String("revision = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			session.Revision = expected
			return ErrRevisionMismatch
		}
		return fmt.Errorf("dynamo update session %s: %w", session.ID, err)
	}
	return nil
}

func (d *dynamoSessions) ListByDate(ctx context.Context, date string) ([]models.Session, error) {
	in := &dynamodb.QueryInput{
		TableName:              (*Dynamo)(d).table("game-sessions"),
		IndexName:              aws.String(dateIndex),
		KeyConditionExpression: aws.String("puzzle_date = :date"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: date},
		},
	}

	var sessions []models.Session
	for {
		resp, err := (*Dynamo)(d).client.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamo query sessions by date: %w", err)
		}
		var page []models.Session
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal sessions: %w", err)
		}
		sessions = append(sessions, page...)
		if resp.LastEvaluatedKey == nil {
			return sessions, nil
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

type dynamoArchive Dynamo

func (d *dynamoArchive) Contains(ctx context.Context, hash string) (bool, error) {
	var group models.ArchivedGroup
	err := (*Dynamo)(d).getItem(ctx, "historical-groups", stringKey("group_hash", hash), &group)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *dynamoArchive) PutGroups(ctx context.Context, groups []models.Group) error {
	now := time.Now().UTC()
	for _, group := range groups {
		archived := models.ArchivedGroup{
			Hash:       game.GroupHash(group.Words),
			Words:      group.Words,
			Category:   group.Category,
			Difficulty: group.Difficulty,
			CreatedAt:  now,
		}
		if err := (*Dynamo)(d).putItem(ctx, "historical-groups", &archived); err != nil {
			return err
		}
	}
	return nil
}

type dynamoChannels Dynamo

func (d *dynamoChannels) Put(ctx context.Context, channel *models.Channel) error {
	return (*Dynamo)(d).putItem(ctx, "channels", channel)
}

func (d *dynamoChannels) ListActive(ctx context.Context) ([]models.Channel, error) {
	in := &dynamodb.ScanInput{
		TableName:        (*Dynamo)(d).table("channels"),
		FilterExpression: aws.String("active = :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
	}

	var channels []models.Channel
	for {
		resp, err := (*Dynamo)(d).client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamo scan channels: %w", err)
		}
		var page []models.Channel
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal channels: %w", err)
		}
		channels = append(channels, page...)
		if resp.LastEvaluatedKey == nil {
			return channels, nil
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

type dynamoThemes Dynamo

func (d *dynamoThemes) Put(ctx context.Context, theme *models.Theme) error {
	return (*Dynamo)(d).putItem(ctx, "theme-suggestions", theme)
}

func (d *dynamoThemes) NextUnused(ctx context.Context) (*models.Theme, error) {
	in := &dynamodb.ScanInput{
		TableName:        (*Dynamo)(d).table("theme-suggestions"),
		FilterExpression: aws.String("used = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
	}

	// No Limit here: Scan's Limit caps items evaluated before the
	// filter, not matches, so pages are walked until one holds a match.
	for {
		resp, err := (*Dynamo)(d).client.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("dynamo scan themes: %w", err)
		}
		if len(resp.Items) > 0 {
			var theme models.Theme
			if err := attributevalue.UnmarshalMap(resp.Items[0], &theme); err != nil {
				return nil, fmt.Errorf("unmarshal theme: %w", err)
			}
			return &theme, nil
		}
		if resp.LastEvaluatedKey == nil {
			return nil, ErrNotFound
		}
		in.ExclusiveStartKey = resp.LastEvaluatedKey
	}
}

func (d *dynamoThemes) MarkUsed(ctx context.Context, id string) error {
	_, err := (*Dynamo)(d).client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        (*Dynamo)(d).table("theme-suggestions"),
		Key:              stringKey("theme_id", id),
		UpdateExpression: aws.String("SET used = :true"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamo mark theme used: %w", err)
	}
	return nil
}
