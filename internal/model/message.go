package model

import "time"

// Message represents a contact message accepted and persisted by the store.
type Message struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Message          string    `json:"message"`
	SubmitterAddress string    `json:"submitterAddress"`
	ReceivedAt       time.Time `json:"receivedAt"`
}

// MessageInput carries the caller-supplied fields of a submission.
// ID and ReceivedAt are never part of the input; the store assigns them.
type MessageInput struct {
	Name             string
	Email            string
	Message          string
	SubmitterAddress string
}
