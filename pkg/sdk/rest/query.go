package rest

import (
	"net/url"
	"strconv"
)

// Query builds query parameters from optional filters. Absent values
// (empty strings, nil pointers) are omitted instead of being sent empty.
type Query struct {
	values url.Values
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Set sets key to value unless value is empty.
func (q *Query) Set(key, value string) *Query {
	if value != "" {
		q.values.Set(key, value)
	}
	return q
}

// Add appends every non-empty value under key.
func (q *Query) Add(key string, values ...string) *Query {
	for _, v := range values {
		if v != "" {
			q.values.Add(key, v)
		}
	}
	return q
}

// SetBool sets key when v is non-nil.
func (q *Query) SetBool(key string, v *bool) *Query {
	if v != nil {
		q.values.Set(key, strconv.FormatBool(*v))
	}
	return q
}

// SetInt sets key when v is positive.
func (q *Query) SetInt(key string, v int) *Query {
	if v > 0 {
		q.values.Set(key, strconv.Itoa(v))
	}
	return q
}

// Values returns the collected parameters, nil when empty.
func (q *Query) Values() url.Values {
	if len(q.values) == 0 {
		return nil
	}
	return q.values
}
