package approval

import (
	"time"

	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/dao/pending"
	"github.com/viant/exclusor/service/notify"
)

// Event is published on the service queue after every state change
type Event struct {
	Topic     string            `json:"topic"`
	ClusterID cluster.ID        `json:"clusterId"`
	Request   *pending.Request  `json:"request,omitempty"`
	Decision  *DecisionResult   `json:"decision,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// Event topics
const (
	TopicRequestCreated  = "request.created"
	TopicDecisionCreated = "decision.created"
)

// Action ids carried by the approver message controls
const (
	ActionApprove = "accept_cluster"
	ActionDeny    = "deny_cluster"
)

// Kind represents decision kind
type Kind string

const (
	KindApprove Kind = "approve"
	KindDeny    Kind = "deny"
)

// KindOf maps an action id to a decision kind
func KindOf(actionID string) (Kind, bool) {
	switch actionID {
	case ActionApprove:
		return KindApprove, true
	case ActionDeny:
		return KindDeny, true
	}
	return "", false
}

// Outcome represents the result of an operation
type Outcome string

const (
	OutcomeSubmitted        Outcome = "submitted"
	OutcomeInvalid          Outcome = "invalid"
	OutcomeNotFound         Outcome = "not_found"
	OutcomeAlreadyExcluded  Outcome = "already_excluded"
	OutcomeAlreadyPending   Outcome = "already_pending"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeApplied          Outcome = "applied"
	OutcomeNoSuchRequest    Outcome = "no_such_request"
)

// Submission is a request to exclude a cluster
type Submission struct {
	Raw           string `json:"raw"`
	Reason        string `json:"reason"`
	RequesterID   string `json:"requesterId"`
	RequesterName string `json:"requesterName,omitempty"`
}

// SubmissionResult is the outcome of Submit; Message is addressed to the requester
type SubmissionResult struct {
	Outcome   Outcome           `json:"outcome"`
	ClusterID cluster.ID        `json:"clusterId,omitempty"`
	Message   string            `json:"message"`
	Ref       notify.MessageRef `json:"ref,omitempty"`
}

// Decision is an approver's one-shot verdict on a pending request. Ref is the
// approver message the decision was taken on, when known.
type Decision struct {
	ClusterID cluster.ID        `json:"clusterId"`
	Kind      Kind              `json:"kind"`
	DeciderID string            `json:"deciderId"`
	Ref       notify.MessageRef `json:"ref,omitempty"`
}

// DecisionResult is the outcome of Decide
type DecisionResult struct {
	Outcome     Outcome    `json:"outcome"`
	ClusterID   cluster.ID `json:"clusterId"`
	Kind        Kind       `json:"kind,omitempty"`
	RequesterID string     `json:"requesterId,omitempty"`
	DeciderID   string     `json:"deciderId,omitempty"`
	Message     string     `json:"message,omitempty"`
}
