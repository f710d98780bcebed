package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Query describes a row select. Zero value selects every column of every row.
type Query struct {
	Columns string
	Filters []Filter
	Order   string
	Desc    bool
	// Single requests exactly one row; no match yields ErrNoRows.
	Single bool
}

// Filter is a column comparison such as name=eq.Food.
type Filter struct {
	Column string
	Op     string
	Value  string
}

// Eq returns an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Op: "eq", Value: value}
}

func (q Query) encode() string {
	params := url.Values{}
	cols := q.Columns
	if cols == "" {
		cols = "*"
	}
	params.Set("select", cols)
	for _, f := range q.Filters {
		params.Add(f.Column, f.Op+"."+f.Value)
	}
	if q.Order != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		params.Set("order", q.Order+"."+dir)
	}
	return params.Encode()
}

// singleObjectMedia asks the row endpoint for one object instead of an array.
const singleObjectMedia = "application/vnd.pgrst.object+json"

// noRowsCode is the row endpoint's error code for a single select without a match.
const noRowsCode = "PGRST116"

// Select reads rows from table into out (a slice pointer, or a struct pointer
// when q.Single is set).
func (c *Client) Select(ctx context.Context, table string, q Query, out any) error {
	var headers http.Header
	if q.Single {
		headers = http.Header{"Accept": {singleObjectMedia}}
	}
	path := "/rest/v1/" + url.PathEscape(table) + "?" + q.encode()
	err := c.doRequest(ctx, http.MethodGet, path, nil, headers, out)
	if err != nil {
		var httpErr *HTTPError
		if q.Single && errors.As(err, &httpErr) && (httpErr.Code == noRowsCode || httpErr.StatusCode == http.StatusNotAcceptable) {
			return fmt.Errorf("client.Select %s: %w", table, ErrNoRows)
		}
		return fmt.Errorf("client.Select %s: %w", table, err)
	}
	return nil
}

// Insert writes rows into table. When out is non-nil the inserted rows are
// returned into it.
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	headers := http.Header{"Prefer": {"return=minimal"}}
	if out != nil {
		headers.Set("Prefer", "return=representation")
	}
	if err := c.doRequest(ctx, http.MethodPost, "/rest/v1/"+url.PathEscape(table), rows, headers, out); err != nil {
		return fmt.Errorf("client.Insert %s: %w", table, err)
	}
	return nil
}
