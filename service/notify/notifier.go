// Package notify defines the chat transport used to reach approvers and
// requesters. The approval workflow depends only on Notifier; notify/slack
// provides the production implementation.
package notify

import (
	"context"
	"errors"
)

// UnsetApproverTag is used when the requester's approver cannot be resolved.
const UnsetApproverTag = "(Manager not set)"

// ErrNoApprover is returned by ResolveApproverTag when no approver is configured.
var ErrNoApprover = errors.New("notify: approver not set")

// Action styles
const (
	StylePrimary = "primary"
	StyleDanger  = "danger"
)

// MessageRef identifies a posted message so that it can be edited later.
type MessageRef struct {
	Channel   string `json:"channel,omitempty" yaml:"channel,omitempty"`
	Timestamp string `json:"message_ts,omitempty" yaml:"message_ts,omitempty"`
}

// IsZero returns true when the reference is empty
func (r MessageRef) IsZero() bool { return r.Channel == "" && r.Timestamp == "" }

// Field is a labelled value rendered in a message
type Field struct {
	Label string
	Value string
}

// Action is an interactive control carried by a message; Value is round-tripped
// back to the decision trigger.
type Action struct {
	ID    string
	Label string
	Value string
	Style string
}

// Content is a transport neutral message body
type Content struct {
	// Text is the summary; used as the notification fallback text.
	Text    string
	Fields  []Field
	Actions []Action
}

// Notifier represents the chat transport
type Notifier interface {
	// PostMessage posts content to target (a channel) and returns its reference.
	PostMessage(ctx context.Context, target string, content *Content) (MessageRef, error)
	// EditMessage replaces a previously posted message.
	EditMessage(ctx context.Context, ref MessageRef, content *Content) error
	// PostEphemeral shows text to a single user.
	PostEphemeral(ctx context.Context, userID, text string) error
	// ResolveApproverTag returns the mention of the user's approver.
	ResolveApproverTag(ctx context.Context, userID string) (string, error)
	// Mention returns the transport specific mention of a user.
	Mention(userID string) string
}
