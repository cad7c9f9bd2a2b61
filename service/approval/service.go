package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/exclusor/internal/clock"
	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/dao"
	"github.com/viant/exclusor/service/dao/pending"
	"github.com/viant/exclusor/service/exclusion"
	"github.com/viant/exclusor/service/messaging"
	qmem "github.com/viant/exclusor/service/messaging/memory"
	"github.com/viant/exclusor/service/metrics"
	"github.com/viant/exclusor/service/notify"
	"github.com/viant/exclusor/service/validator"
	"github.com/viant/exclusor/tracing"
	"go.uber.org/zap"
)

// DefaultCallTimeout bounds a single collaborator call
const DefaultCallTimeout = 10 * time.Second

// Service defines the approval service interface.
type Service interface {
	Submit(ctx context.Context, submission *Submission) (*SubmissionResult, error)
	Decide(ctx context.Context, decision *Decision) (*DecisionResult, error)
	ListPending(ctx context.Context) ([]*pending.Request, error)
	Queue() messaging.Queue[Event]
}

// ExclusionList is the exclusion list used by the service
type ExclusionList interface {
	Contains(ctx context.Context, id cluster.ID) (bool, error)
	Add(ctx context.Context, id cluster.ID) error
}

type service struct {
	exclusions  ExclusionList
	pending     pending.Store
	validator   validator.Validator
	notifier    notify.Notifier
	channel     string
	naming      cluster.Naming
	regions     []string
	callTimeout time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
	events      messaging.Queue[Event]
	locks       keyLock
}

// Submit validates the request and routes it to the approver
func (s *service) Submit(ctx context.Context, submission *Submission) (result *SubmissionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Submit", "INTERNAL")
	defer func() {
		tracing.EndSpan(span, err)
		if err != nil {
			s.metrics.Submission("error")
		} else {
			s.metrics.Submission(string(result.Outcome))
		}
	}()
	if submission == nil {
		return &SubmissionResult{Outcome: OutcomeInvalid, Message: UsageHint}, nil
	}
	raw := strings.TrimSpace(submission.Raw)
	reason := strings.TrimSpace(submission.Reason)
	if raw == "" || reason == "" {
		return &SubmissionResult{Outcome: OutcomeInvalid, Message: UsageHint}, nil
	}
	logger := s.logger.With(zap.String("requester", submission.RequesterID), zap.String("input", raw))

	externalName := s.naming.ExternalName(raw)
	if !s.exists(ctx, logger, externalName) {
		return &SubmissionResult{Outcome: OutcomeNotFound, Message: notFoundMessage(raw, s.regions)}, nil
	}
	id := s.naming.Normalize(raw)
	span.WithAttributes(map[string]string{"cluster.id": string(id)})
	logger = logger.With(zap.String("cluster", string(id)))

	unlock := s.locks.Lock(string(id))
	defer unlock()

	excluded, err := s.exclusions.Contains(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check exclusion list for %s: %w", id, err)
	}
	if excluded {
		return &SubmissionResult{Outcome: OutcomeAlreadyExcluded, ClusterID: id, Message: alreadyExcludedMessage(id)}, nil
	}
	existing, err := s.pending.Load(ctx, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load pending request %s: %w", id, err)
	}
	if existing != nil {
		return &SubmissionResult{Outcome: OutcomeAlreadyPending, ClusterID: id, Message: alreadyPendingMessage(id)}, nil
	}

	approverTag := s.approverTag(ctx, logger, submission.RequesterID)
	requester := s.notifier.Mention(submission.RequesterID)
	callCtx, cancel := s.callContext(ctx)
	ref, err := s.notifier.PostMessage(callCtx, s.channel, approvalContent(id, requester, reason, approverTag))
	cancel()
	if err != nil {
		logger.Warn("failed to post approval request", zap.Error(err))
		return &SubmissionResult{Outcome: OutcomeTransportFailure, ClusterID: id, Message: failedToSend}, nil
	}

	request := &pending.Request{
		ClusterID:     id,
		RequesterID:   submission.RequesterID,
		RequesterName: submission.RequesterName,
		MessageRef:    ref,
		Reason:        reason,
		ApproverTag:   approverTag,
		CreatedAt:     clock.Now().UTC(),
	}
	if err = s.pending.Create(ctx, request); err != nil {
		if errors.Is(err, dao.ErrAlreadyExists) {
			s.retract(ctx, logger, ref, alreadyPendingMessage(id))
			return &SubmissionResult{Outcome: OutcomeAlreadyPending, ClusterID: id, Message: alreadyPendingMessage(id)}, nil
		}
		s.retract(ctx, logger, ref, fmt.Sprintf(":warning: Request to exclude %s could not be recorded.", id))
		return nil, fmt.Errorf("failed to record pending request %s: %w", id, err)
	}
	logger.Info("approval requested", zap.String("channel", ref.Channel), zap.String("ts", ref.Timestamp))
	s.publish(&Event{Topic: TopicRequestCreated, ClusterID: id, Request: request})
	return &SubmissionResult{Outcome: OutcomeSubmitted, ClusterID: id, Message: submittedMessage(id), Ref: ref}, nil
}

// Decide applies a decision to the pending request; only the first decision
// on a request has an effect.
func (s *service) Decide(ctx context.Context, decision *Decision) (result *DecisionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.Decide", "INTERNAL")
	defer func() {
		tracing.EndSpan(span, err)
		kind := ""
		if decision != nil {
			kind = string(decision.Kind)
		}
		if err != nil {
			s.metrics.Decision(kind, "error")
		} else {
			s.metrics.Decision(kind, string(result.Outcome))
		}
	}()
	if decision == nil || strings.TrimSpace(string(decision.ClusterID)) == "" {
		return &DecisionResult{Outcome: OutcomeNoSuchRequest}, nil
	}
	id := decision.ClusterID
	if decision.Kind != KindApprove && decision.Kind != KindDeny {
		return &DecisionResult{Outcome: OutcomeInvalid, ClusterID: id, Message: fmt.Sprintf("unsupported decision %q", decision.Kind)}, nil
	}
	span.WithAttributes(map[string]string{"cluster.id": string(id), "decision.kind": string(decision.Kind)})
	logger := s.logger.With(zap.String("cluster", string(id)), zap.String("decision", string(decision.Kind)), zap.String("decider", decision.DeciderID))

	unlock := s.locks.Lock(string(id))
	defer unlock()

	request, err := s.pending.Load(ctx, string(id))
	if err != nil {
		return nil, fmt.Errorf("failed to load pending request %s: %w", id, err)
	}
	if request == nil {
		logger.Info("decision ignored, no pending request")
		return &DecisionResult{Outcome: OutcomeNoSuchRequest, ClusterID: id, Kind: decision.Kind}, nil
	}

	if decision.Kind == KindApprove {
		if err = s.exclusions.Add(ctx, id); err != nil {
			if !errors.Is(err, exclusion.ErrSync) {
				return nil, fmt.Errorf("failed to exclude %s: %w", id, err)
			}
			logger.Warn("exclusion list replication failed", zap.Error(err))
			err = nil
		}
	}

	decider := s.notifier.Mention(decision.DeciderID)
	ref := decision.Ref
	if ref.IsZero() {
		ref = request.MessageRef
	}
	summary := outcomeMessage(id, decision.Kind, decider)
	if !ref.IsZero() {
		callCtx, cancel := s.callContext(ctx)
		if editErr := s.notifier.EditMessage(callCtx, ref, &notify.Content{Text: summary}); editErr != nil {
			logger.Warn("failed to update approval message", zap.Error(editErr))
		}
		cancel()
	}
	callCtx, cancel := s.callContext(ctx)
	if notifyErr := s.notifier.PostEphemeral(callCtx, request.RequesterID, requesterMessage(id, decision.Kind, decider)); notifyErr != nil {
		logger.Warn("failed to notify requester", zap.String("requester", request.RequesterID), zap.Error(notifyErr))
	}
	cancel()

	if err = s.pending.Delete(ctx, string(id)); err != nil {
		return nil, fmt.Errorf("failed to remove pending request %s: %w", id, err)
	}
	result = &DecisionResult{
		Outcome:     OutcomeApplied,
		ClusterID:   id,
		Kind:        decision.Kind,
		RequesterID: request.RequesterID,
		DeciderID:   decision.DeciderID,
		Message:     summary,
	}
	logger.Info("decision applied", zap.String("requester", request.RequesterID))
	s.publish(&Event{Topic: TopicDecisionCreated, ClusterID: id, Decision: result})
	return result, nil
}

// ListPending returns pending requests
func (s *service) ListPending(ctx context.Context) ([]*pending.Request, error) {
	return s.pending.List(ctx)
}

// Queue returns the event queue
func (s *service) Queue() messaging.Queue[Event] { return s.events }

func (s *service) exists(ctx context.Context, logger *zap.Logger, externalName string) bool {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	ok, err := s.validator.Exists(callCtx, externalName)
	if err != nil {
		logger.Warn("cluster validation failed", zap.String("name", externalName), zap.Error(err))
		return false
	}
	return ok
}

func (s *service) approverTag(ctx context.Context, logger *zap.Logger, userID string) string {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	tag, err := s.notifier.ResolveApproverTag(callCtx, userID)
	if err != nil || tag == "" {
		if err != nil && !errors.Is(err, notify.ErrNoApprover) {
			logger.Warn("failed to resolve approver", zap.Error(err))
		}
		return notify.UnsetApproverTag
	}
	return tag
}

// retract replaces an approval message that has no pending request behind it
func (s *service) retract(ctx context.Context, logger *zap.Logger, ref notify.MessageRef, text string) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	if err := s.notifier.EditMessage(callCtx, ref, &notify.Content{Text: text}); err != nil {
		logger.Warn("failed to retract approval message", zap.Error(err))
	}
}

func (s *service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.callTimeout)
}

func (s *service) publish(event *Event) {
	event.CreatedAt = clock.Now().UTC()
	var err error
	if offerer, ok := s.events.(messaging.Offerer[Event]); ok {
		err = offerer.TryPublish(event)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		err = s.events.Publish(ctx, event)
		cancel()
	}
	if err != nil {
		s.logger.Debug("event dropped", zap.String("topic", event.Topic), zap.Error(err))
	}
}

// New creates an approval service
func New(options ...Option) (Service, error) {
	ret := &service{
		naming:      cluster.DefaultNaming,
		regions:     validator.DefaultRegions,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range options {
		opt(ret)
	}
	switch {
	case ret.exclusions == nil:
		return nil, fmt.Errorf("exclusion list is required")
	case ret.pending == nil:
		return nil, fmt.Errorf("pending store is required")
	case ret.validator == nil:
		return nil, fmt.Errorf("validator is required")
	case ret.notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	case ret.channel == "":
		return nil, fmt.Errorf("approver channel is required")
	}
	ret.naming.Init()
	if err := ret.naming.Validate(); err != nil {
		return nil, fmt.Errorf("invalid naming: %w", err)
	}
	if ret.callTimeout <= 0 {
		ret.callTimeout = DefaultCallTimeout
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	if ret.events == nil {
		ret.events = qmem.NewQueue[Event](qmem.DefaultConfig())
	}
	return ret, nil
}
