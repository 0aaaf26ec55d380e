package supabase

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Filter is one PostgREST query condition, e.g. user_id=eq.<uuid>.
type Filter struct {
	Column string
	Cond   string
}

func Eq(column, value string) Filter {
	return Filter{Column: column, Cond: "eq." + value}
}

func EqInt(column string, value int) Filter {
	return Filter{Column: column, Cond: "eq." + strconv.Itoa(value)}
}

// In matches rows whose column is in the given id set.
func In(column string, ids []int) Filter {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return Filter{Column: column, Cond: "in.(" + strings.Join(parts, ",") + ")"}
}

func applyFilters(query url.Values, filters []Filter) {
	for _, f := range filters {
		query.Set(f.Column, f.Cond)
	}
}

// QueryCount returns the exact number of rows matching the filters without
// transferring any of them. The count travels in the Content-Range header
// of a HEAD response.
func (c *Client) QueryCount(ctx context.Context, token, table string, filters []Filter) (int, error) {
	query := url.Values{}
	query.Set("select", "id")
	applyFilters(query, filters)

	prefer := map[string]string{"Prefer": "count=exact"}

	headers, err := c.do(ctx, "count_"+table, "HEAD", "/rest/v1/"+table, query, prefer, token, nil, nil)
	if err != nil {
		return 0, err
	}

	return parseContentRangeCount(headers.Get("Content-Range"))
}

// parseContentRangeCount extracts the total from a Content-Range value
// such as "0-4/123" or "*/0".
func parseContentRangeCount(contentRange string) (int, error) {
	idx := strings.LastIndex(contentRange, "/")
	if idx < 0 {
		return 0, fmt.Errorf("count missing from Content-Range %q", contentRange)
	}

	total := contentRange[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("backend did not compute an exact count")
	}

	count, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("invalid count in Content-Range %q: %w", contentRange, err)
	}

	return count, nil
}

// QueryRows fetches the selected columns of every row matching the
// filters, ordered by the given PostgREST order expression, and decodes
// them into out.
func (c *Client) QueryRows(ctx context.Context, token, table, columns string, filters []Filter, order string, out interface{}) error {
	query := url.Values{}
	query.Set("select", columns)
	applyFilters(query, filters)
	if order != "" {
		query.Set("order", order)
	}

	_, err := c.do(ctx, "select_"+table, "GET", "/rest/v1/"+table, query, nil, token, nil, out)
	return err
}

// Replacement steps reported by OpError.
const (
	StepDelete = "delete"
	StepInsert = "insert"
)

// OpError reports which sub-step of a multi-step mutation failed, so the
// caller can tell the user what state the data was left in.
type OpError struct {
	Step string
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// ReplaceAssociations replaces every row matching key with the given rows.
// The delete is strictly sequenced before the insert; issuing them
// concurrently would race re-inserted ids against rows not yet removed and
// trip duplicate-key constraints. Failures carry the sub-step that failed.
func (c *Client) ReplaceAssociations(ctx context.Context, token, table string, key Filter, rows interface{}) error {
	query := url.Values{}
	applyFilters(query, []Filter{key})

	if _, err := c.do(ctx, "delete_"+table, "DELETE", "/rest/v1/"+table, query, nil, token, nil, nil); err != nil {
		return &OpError{Step: StepDelete, Err: err}
	}

	if rows == nil || reflect.ValueOf(rows).Len() == 0 {
		return nil
	}

	prefer := map[string]string{"Prefer": "return=minimal"}
	if _, err := c.do(ctx, "insert_"+table, "POST", "/rest/v1/"+table, nil, prefer, token, rows, nil); err != nil {
		return &OpError{Step: StepInsert, Err: err}
	}

	return nil
}

// UpsertFields updates the row matching keys with only the non-empty
// fields. Fields left empty are never written, so existing values survive
// a partial edit. With nothing to write no request is made at all.
func (c *Client) UpsertFields(ctx context.Context, token, table string, keys []Filter, fields map[string]string) error {
	payload := make(map[string]string)
	for column, value := range fields {
		if value != "" {
			payload[column] = value
		}
	}
	if len(payload) == 0 {
		return nil
	}

	query := url.Values{}
	applyFilters(query, keys)

	prefer := map[string]string{"Prefer": "return=minimal"}
	_, err := c.do(ctx, "update_"+table, "PATCH", "/rest/v1/"+table, query, prefer, token, payload, nil)
	return err
}
