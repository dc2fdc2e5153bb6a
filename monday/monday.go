package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/ricardocosta23/formularioguias/model"
)

// Sink is the destination side of the pipeline: the handful of Monday.com
// operations the service needs. Implementations report failure per call;
// callers decide whether a failure is terminal.
type Sink interface {
	CreateItem(ctx context.Context, boardID, itemName string) (string, error)
	CreateItemWithValues(ctx context.Context, boardID, itemName string, columnValues map[string]any) (string, error)
	UpdateItemColumn(ctx context.Context, boardID, itemID, columnID string, value string) error
	FetchColumnValue(ctx context.Context, itemID, columnID string) (model.ColumnValue, error)
}

const defaultEndpoint = "https://api.monday.com/v2"

// Client talks to the Monday.com GraphQL API.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		endpoint: defaultEndpoint,
		token:    token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientAt is NewClient against a non-default endpoint, for tests.
func NewClientAt(endpoint, token string) *Client {
	c := NewClient(token)
	c.endpoint = endpoint
	return c
}

func (c *Client) CreateItem(ctx context.Context, boardID, itemName string) (string, error) {
	var resp struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	err := c.call(ctx, `
		mutation ($board: ID!, $name: String!) {
			create_item (board_id: $board, item_name: $name) { id }
		}`,
		map[string]any{"board": boardID, "name": itemName},
		&resp,
	)
	if err != nil {
		return "", errors.Wrap(err, "create item")
	}
	return resp.CreateItem.ID, nil
}

// CreateItemWithValues creates an item and sets all its column values in one
// round trip. This is the submission delivery path: no partially written
// items on failure.
func (c *Client) CreateItemWithValues(ctx context.Context, boardID, itemName string, columnValues map[string]any) (string, error) {
	valuesJson, err := json.Marshal(columnValues)
	if err != nil {
		return "", errors.Wrap(err, "marshal column values")
	}

	var resp struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	err = c.call(ctx, `
		mutation ($board: ID!, $name: String!, $values: JSON!) {
			create_item (board_id: $board, item_name: $name, column_values: $values) { id }
		}`,
		map[string]any{"board": boardID, "name": itemName, "values": string(valuesJson)},
		&resp,
	)
	if err != nil {
		return "", errors.Wrap(err, "create item with values")
	}
	return resp.CreateItem.ID, nil
}

func (c *Client) UpdateItemColumn(ctx context.Context, boardID, itemID, columnID string, value string) error {
	var resp struct {
		ChangeSimpleColumnValue struct {
			ID string `json:"id"`
		} `json:"change_simple_column_value"`
	}
	err := c.call(ctx, `
		mutation ($board: ID!, $item: ID!, $column: String!, $value: String!) {
			change_simple_column_value (board_id: $board, item_id: $item, column_id: $column, value: $value) { id }
		}`,
		map[string]any{"board": boardID, "item": itemID, "column": columnID, "value": value},
		&resp,
	)
	return errors.Wrap(err, "update item column")
}

// FetchColumnValue reads the display text of one column of one item. A failed
// call yields a fetch-failed value rather than an error: the caller stores
// the tri-state and moves on.
func (c *Client) FetchColumnValue(ctx context.Context, itemID, columnID string) (model.ColumnValue, error) {
	var resp struct {
		Items []struct {
			ColumnValues []struct {
				Text string `json:"text"`
			} `json:"column_values"`
		} `json:"items"`
	}
	err := c.call(ctx, `
		query ($item: [ID!], $columns: [String!]) {
			items (ids: $item) {
				column_values (ids: $columns) { text }
			}
		}`,
		map[string]any{"item": []string{itemID}, "columns": []string{columnID}},
		&resp,
	)
	if err != nil {
		return model.ColumnValue{Status: model.ValueFetchFailed}, errors.Wrap(err, "fetch column value")
	}
	if len(resp.Items) == 0 || len(resp.Items[0].ColumnValues) == 0 {
		return model.ColumnValue{Status: model.ValueFetchFailed}, nil
	}
	return model.FetchedValue(resp.Items[0].ColumnValues[0].Text), nil
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) call(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return errors.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "http call")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("monday api returned status %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if len(envelope.Errors) > 0 {
		return errors.Errorf("monday api: %s", envelope.Errors[0].Message)
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return errors.Wrap(err, "decode response data")
		}
	}
	return nil
}
