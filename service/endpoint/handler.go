package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
	"github.com/viant/exclusor/internal/logger"
	"github.com/viant/exclusor/model/cluster"
	"github.com/viant/exclusor/service/approval"
	"github.com/viant/exclusor/service/notify"
	"github.com/viant/exclusor/service/processor"
	"go.uber.org/zap"
)

const reasonMarker = "reason:"

const (
	genericFailure = "Failed to process your request, please try again later."
	unavailable    = "Service is shutting down, please try again later."
	busy           = "Too many requests in progress, please try again shortly."
)

// ParseCommand splits slash command text at the first reason marker
func ParseCommand(text string) (raw, reason string, ok bool) {
	idx := strings.Index(text, reasonMarker)
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+len(reasonMarker):]), true
}

func (s *Service) exclude(w http.ResponseWriter, r *http.Request) {
	command, err := slack.SlashCommandParse(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid command")
		return
	}
	raw, reason, ok := ParseCommand(command.Text)
	if !ok {
		writeText(w, http.StatusOK, approval.UsageHint)
		return
	}
	submission := &approval.Submission{Raw: raw, Reason: reason, RequesterID: command.UserID, RequesterName: command.UserName}
	log := logger.From(r.Context()).With(zap.String("requester", command.UserID), zap.String("input", raw))

	var result *approval.SubmissionResult
	job := &processor.Job{
		Kind: KindSubmit,
		Run: func(ctx context.Context) error {
			var err error
			result, err = s.approval.Submit(logger.ToContext(ctx, log), submission)
			return err
		},
		Late: func(ctx context.Context, err error) {
			if nErr := s.notifier.PostEphemeral(ctx, submission.RequesterID, submissionText(result, err)); nErr != nil {
				log.Warn("failed to deliver late submission outcome", zap.Error(nErr))
			}
		},
	}
	wait, err := s.processor.Schedule(r.Context(), job)
	if err != nil {
		log.Error("failed to schedule submission", zap.Error(err))
		writeText(w, http.StatusServiceUnavailable, scheduleFailure(err))
		return
	}
	waitCtx, cancel := context.WithTimeout(r.Context(), s.responseTimeout)
	defer cancel()
	done, err := wait(waitCtx)
	if !done {
		writeText(w, http.StatusOK, fmt.Sprintf(":hourglass_flowing_sand: Processing request to exclude %s, you will be notified shortly.", raw))
		return
	}
	writeText(w, http.StatusOK, submissionText(result, err))
}

func scheduleFailure(err error) string {
	if errors.Is(err, processor.ErrQueueFull) {
		return busy
	}
	return unavailable
}

func submissionText(result *approval.SubmissionResult, err error) string {
	if err != nil || result == nil {
		return genericFailure
	}
	return result.Message
}

func (s *Service) interactive(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "invalid form")
		return
	}
	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &callback); err != nil {
		writeText(w, http.StatusBadRequest, "invalid payload")
		return
	}
	decision, ok := DecisionFrom(&callback)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	log := logger.From(r.Context()).With(zap.String("cluster", string(decision.ClusterID)), zap.String("decider", decision.DeciderID))
	report := func(ctx context.Context, err error) {
		if err == nil {
			return
		}
		text := fmt.Sprintf("Failed to apply decision for %s, please try again.", decision.ClusterID)
		if nErr := s.notifier.PostEphemeral(ctx, decision.DeciderID, text); nErr != nil {
			log.Warn("failed to report decision failure", zap.Error(nErr))
		}
	}
	job := &processor.Job{
		Kind: KindDecide,
		Run: func(ctx context.Context) error {
			_, err := s.approval.Decide(logger.ToContext(ctx, log), decision)
			return err
		},
		Late: report,
	}
	wait, err := s.processor.Schedule(r.Context(), job)
	if err != nil {
		log.Error("failed to schedule decision", zap.Error(err))
		writeText(w, http.StatusServiceUnavailable, scheduleFailure(err))
		return
	}
	waitCtx, cancel := context.WithTimeout(r.Context(), s.responseTimeout)
	defer cancel()
	if done, err := wait(waitCtx); done && err != nil {
		report(context.WithoutCancel(r.Context()), err)
	}
	w.WriteHeader(http.StatusOK)
}

// ResetDone is the body answered by a successful POST /admin/reset
const ResetDone = "exclusion list cleared"

func (s *Service) resetNow(w http.ResponseWriter, r *http.Request) {
	if err := s.reset(r.Context()); err != nil {
		logger.From(r.Context()).Error("failed to reset exclusion list", zap.Error(err))
		writeText(w, http.StatusInternalServerError, "reset failed")
		return
	}
	writeText(w, http.StatusOK, ResetDone)
}

// DecisionFrom maps an interaction callback to a decision
func DecisionFrom(callback *slack.InteractionCallback) (*approval.Decision, bool) {
	if len(callback.ActionCallback.BlockActions) == 0 {
		return nil, false
	}
	action := callback.ActionCallback.BlockActions[0]
	if action == nil {
		return nil, false
	}
	kind, ok := approval.KindOf(action.ActionID)
	if !ok || strings.TrimSpace(action.Value) == "" {
		return nil, false
	}
	ref := notify.MessageRef{Channel: callback.Container.ChannelID, Timestamp: callback.Container.MessageTs}
	if ref.Channel == "" {
		ref.Channel = callback.Channel.ID
	}
	if ref.Timestamp == "" {
		ref.Timestamp = callback.Message.Timestamp
	}
	return &approval.Decision{
		ClusterID: cluster.ID(action.Value),
		Kind:      kind,
		DeciderID: callback.User.ID,
		Ref:       ref,
	}, true
}
