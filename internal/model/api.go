package model

// Envelope is the JSON body of every REST response: {success, data, error}.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
}

// BulkUpdateRequest is the body of PUT /inventory/bulk/update.
type BulkUpdateRequest struct {
	Items []Item `json:"items"`
}
