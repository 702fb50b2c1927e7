package connectiondao

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

// DAO provides access to the WebSocket connections table. Every call is a
// single read or write against DynamoDB; nothing is cached.
type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

// TableName is the connections table of an environment, e.g.
// "dev-udagram--ws-connections".
func TableName(env string) string {
	return env + "-udagram--ws-connections"
}

// New creates a new connections DAO.
func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, Connection{}),
		api:       api,
		tableName: tableName,
	}
}

func (d *DAO) TableName() string {
	return d.tableName
}

// Add stores a connection record, overwriting any record with the same ID.
func (d *DAO) Add(ctx context.Context, conn Connection) error {
	if err := d.table.Put(conn).RunWithContext(ctx); err != nil {
		return &RegistryError{Op: "add", ID: conn.ID, Err: err}
	}
	return nil
}

// Remove deletes a connection record. Removing an unknown ID is not an error.
func (d *DAO) Remove(ctx context.Context, connectionID string) error {
	if err := d.table.Delete(connectionID).RunWithContext(ctx); err != nil {
		return &RegistryError{Op: "remove", ID: connectionID, Err: err}
	}
	return nil
}

// ListAll returns every connection in the table, following scan pagination
// until the table is exhausted.
func (d *DAO) ListAll(ctx context.Context) ([]Connection, error) {
	var (
		conns     []Connection
		decodeErr error
	)
	input := &dynamodb.ScanInput{
		TableName:      aws.String(d.tableName),
		ConsistentRead: aws.Bool(true),
	}
	err := d.api.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var items []Connection
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); err != nil {
			decodeErr = err
			return false
		}
		conns = append(conns, items...)
		return true
	})
	if err != nil {
		return nil, &RegistryError{Op: "list", Err: err}
	}
	if decodeErr != nil {
		return nil, &RegistryError{Op: "list", Err: decodeErr}
	}
	return conns, nil
}
