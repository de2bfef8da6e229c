package loadproxy

import (
	"errors"
)

// QueryRequest is an inbound request to execute a query on behalf of a virtual user.
// VuID is a pointer so that a missing id can be told apart from the valid id 0.
type QueryRequest struct {
	Query string
	VuID  *WorkerID
}

// NewQueryRequest builds a QueryRequest with a present vuID.
func NewQueryRequest(query string, vuID WorkerID) QueryRequest {
	return QueryRequest{Query: query, VuID: &vuID}
}

// Validate checks that both the query and the vuID are present.
// The query text is passed to the warehouse as is; only an empty string counts as missing.
func (r QueryRequest) Validate() error {
	if r.Query == "" || r.VuID == nil {
		return errors.Join(ErrBadRequest, errors.New("both 'query' and 'vuID' fields are required"))
	}

	return nil
}

// WorkerID returns the vuID, or 0 if it is missing. Call Validate first.
func (r QueryRequest) WorkerID() WorkerID {
	if r.VuID == nil {
		return 0
	}

	return *r.VuID
}
