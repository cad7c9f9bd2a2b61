package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/exclusor/service/notify"
)

func TestApproverID(t *testing.T) {
	var testCases = []struct {
		description string
		fields      map[string]slack.UserProfileCustomField
		expect      string
		expectOK    bool
	}{
		{description: "no fields"},
		{description: "no user id", fields: map[string]slack.UserProfileCustomField{"Xf1": {Value: "engineering"}}},
		{
			description: "first user id by field id",
			fields: map[string]slack.UserProfileCustomField{
				"Xf3": {Value: "U333"},
				"Xf1": {Value: "team"},
				"Xf2": {Value: " U222 "},
			},
			expect:   "U222",
			expectOK: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, ok := ApproverID(tc.fields)
			assert.Equal(t, tc.expectOK, ok)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestBlocks(t *testing.T) {
	content := &notify.Content{
		Text:   "Exclusion request for team1-infra",
		Fields: []notify.Field{{Label: "Requester", Value: "<@U1>"}, {Label: "Cluster", Value: "team1-infra"}},
		Actions: []notify.Action{
			{ID: "accept_cluster", Label: "✅ Accept", Value: "team1-infra", Style: notify.StylePrimary},
			{ID: "deny_cluster", Label: "❌ Deny", Value: "team1-infra", Style: notify.StyleDanger},
		},
	}
	blocks := Blocks(content)
	require.Len(t, blocks, 2)
	section, ok := blocks[0].(*slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*Requester:* <@U1>\n*Cluster:* team1-infra", section.Text.Text)

	actions, ok := blocks[1].(*slack.ActionBlock)
	require.True(t, ok)
	require.Len(t, actions.Elements.ElementSet, 2)
	accept := actions.Elements.ElementSet[0].(*slack.ButtonBlockElement)
	assert.Equal(t, "accept_cluster", accept.ActionID)
	assert.Equal(t, "team1-infra", accept.Value)
	assert.Equal(t, slack.StylePrimary, accept.Style)
	deny := actions.Elements.ElementSet[1].(*slack.ButtonBlockElement)
	assert.Equal(t, slack.StyleDanger, deny.Style)

	assert.Empty(t, Blocks(&notify.Content{Text: "done"}))
}

type fakeSlack struct {
	mu       sync.Mutex
	requests map[string][]map[string]string
	profile  string
	fail     bool
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := map[string]string{}
	for k := range r.Form {
		form[k] = r.Form.Get(k)
	}
	method := r.URL.Path[1:]
	f.mu.Lock()
	f.requests[method] = append(f.requests[method], form)
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "channel_not_found"})
		return
	}
	switch method {
	case "chat.postMessage":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "channel": form["channel"], "ts": "1700000000.000100"})
	case "chat.update":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "channel": form["channel"], "ts": form["ts"], "text": form["text"]})
	case "chat.postEphemeral":
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "message_ts": "1700000000.000200"})
	case "users.profile.get":
		_, _ = w.Write([]byte(f.profile))
	default:
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": "unknown_method"})
	}
}

func newNotifier(t *testing.T, fake *fakeSlack) *Notifier {
	t.Helper()
	fake.requests = map[string][]map[string]string{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	notifier, err := NewWithConfig(&Config{BotToken: "xoxb-test", APIURL: server.URL})
	require.NoError(t, err)
	return notifier
}

func TestNotifier_PostAndEdit(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSlack{}
	notifier := newNotifier(t, fake)

	ref, err := notifier.PostMessage(ctx, "C1", &notify.Content{Text: "summary", Fields: []notify.Field{{Label: "Cluster", Value: "a-infra"}}})
	require.NoError(t, err)
	assert.Equal(t, notify.MessageRef{Channel: "C1", Timestamp: "1700000000.000100"}, ref)

	require.NoError(t, notifier.EditMessage(ctx, ref, &notify.Content{Text: "approved"}))
	require.Len(t, fake.requests["chat.update"], 1)
	update := fake.requests["chat.update"][0]
	assert.Equal(t, "approved", update["text"])
	assert.Equal(t, "[]", update["blocks"])

	require.NoError(t, notifier.PostEphemeral(ctx, "U1", "hello"))
	require.Len(t, fake.requests["chat.postEphemeral"], 1)
	assert.Equal(t, "U1", fake.requests["chat.postEphemeral"][0]["channel"])
	assert.Equal(t, "U1", fake.requests["chat.postEphemeral"][0]["user"])

	assert.Error(t, notifier.EditMessage(ctx, notify.MessageRef{}, &notify.Content{}))
}

func TestNotifier_PostFailure(t *testing.T) {
	notifier := newNotifier(t, &fakeSlack{fail: true})
	_, err := notifier.PostMessage(context.Background(), "C1", &notify.Content{Text: "x"})
	assert.Error(t, err)
}

func TestNotifier_ResolveApproverTag(t *testing.T) {
	var testCases = []struct {
		description string
		profile     string
		expect      string
		expectErr   error
	}{
		{
			description: "manager field",
			profile:     `{"ok":true,"profile":{"fields":{"Xf01":{"value":"platform","alt":""},"Xf02":{"value":"U0MANAGER","alt":""}}}}`,
			expect:      "<@U0MANAGER>",
		},
		{
			description: "no manager",
			profile:     `{"ok":true,"profile":{"fields":{"Xf01":{"value":"platform","alt":""}}}}`,
			expectErr:   notify.ErrNoApprover,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			notifier := newNotifier(t, &fakeSlack{profile: tc.profile})
			actual, err := notifier.ResolveApproverTag(context.Background(), "U1")
			if tc.expectErr != nil {
				assert.True(t, errors.Is(err, tc.expectErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestNew_EmptyToken(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
