package model

// Page mirrors the backend's page-number pagination envelope.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p Page[T]) HasNext() bool { return p.Next != nil && *p.Next != "" }
