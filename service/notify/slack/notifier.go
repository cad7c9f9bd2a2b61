// Package slack implements notify.Notifier with the Slack Web API.
package slack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/slack-go/slack"
	"github.com/viant/exclusor/service/notify"
)

// Notifier posts approval requests and outcomes to Slack
type Notifier struct {
	client *slack.Client
}

var _ notify.Notifier = (*Notifier)(nil)

// PostMessage posts content to channel
func (n *Notifier) PostMessage(ctx context.Context, channel string, content *notify.Content) (notify.MessageRef, error) {
	if channel == "" {
		return notify.MessageRef{}, fmt.Errorf("channel was empty")
	}
	channelID, ts, err := n.client.PostMessageContext(ctx, channel, MessageOptions(content)...)
	if err != nil {
		return notify.MessageRef{}, fmt.Errorf("failed to post message to %s: %w", channel, err)
	}
	return notify.MessageRef{Channel: channelID, Timestamp: ts}, nil
}

// EditMessage replaces the message at ref
func (n *Notifier) EditMessage(ctx context.Context, ref notify.MessageRef, content *notify.Content) error {
	if ref.IsZero() {
		return fmt.Errorf("message reference was empty")
	}
	if _, _, _, err := n.client.UpdateMessageContext(ctx, ref.Channel, ref.Timestamp, MessageOptions(content)...); err != nil {
		return fmt.Errorf("failed to update message %s/%s: %w", ref.Channel, ref.Timestamp, err)
	}
	return nil
}

// PostEphemeral shows text to userID in their direct channel
func (n *Notifier) PostEphemeral(ctx context.Context, userID, text string) error {
	if _, err := n.client.PostEphemeralContext(ctx, userID, userID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to notify %s: %w", userID, err)
	}
	return nil
}

// ResolveApproverTag returns the mention of the first custom profile field
// holding a user id
func (n *Notifier) ResolveApproverTag(ctx context.Context, userID string) (string, error) {
	profile, err := n.client.GetUserProfileContext(ctx, &slack.GetUserProfileParameters{UserID: userID})
	if err != nil {
		return "", fmt.Errorf("failed to get profile of %s: %w", userID, err)
	}
	approver, ok := ApproverID(profile.Fields.ToMap())
	if !ok {
		return "", notify.ErrNoApprover
	}
	return n.Mention(approver), nil
}

// Mention returns Slack user mention
func (n *Notifier) Mention(userID string) string {
	return "<@" + userID + ">"
}

// ApproverID returns the first custom field value that looks like a user id;
// fields are visited in id order
func ApproverID(fields map[string]slack.UserProfileCustomField) (string, bool) {
	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		value := strings.TrimSpace(fields[id].Value)
		if strings.HasPrefix(value, "U") {
			return value, true
		}
	}
	return "", false
}

// MessageOptions renders content as Block Kit; a content without fields and
// actions clears any existing blocks
func MessageOptions(content *notify.Content) []slack.MsgOption {
	if content == nil {
		content = &notify.Content{}
	}
	return []slack.MsgOption{
		slack.MsgOptionText(content.Text, false),
		slack.MsgOptionBlocks(Blocks(content)...),
	}
}

// Blocks renders content blocks
func Blocks(content *notify.Content) []slack.Block {
	blocks := []slack.Block{}
	if len(content.Fields) == 0 && len(content.Actions) == 0 {
		return blocks
	}
	text := content.Text
	if len(content.Fields) > 0 {
		lines := make([]string, 0, len(content.Fields))
		for _, field := range content.Fields {
			lines = append(lines, fmt.Sprintf("*%s:* %s", field.Label, field.Value))
		}
		text = strings.Join(lines, "\n")
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil))
	if len(content.Actions) > 0 {
		elements := make([]slack.BlockElement, 0, len(content.Actions))
		for _, action := range content.Actions {
			button := slack.NewButtonBlockElement(action.ID, action.Value, slack.NewTextBlockObject(slack.PlainTextType, action.Label, true, false))
			switch action.Style {
			case notify.StylePrimary:
				button = button.WithStyle(slack.StylePrimary)
			case notify.StyleDanger:
				button = button.WithStyle(slack.StyleDanger)
			}
			elements = append(elements, button)
		}
		blocks = append(blocks, slack.NewActionBlock("", elements...))
	}
	return blocks
}

// New creates a Slack notifier
func New(token string, options ...slack.Option) (*Notifier, error) {
	if token == "" {
		return nil, fmt.Errorf("slack bot token was empty")
	}
	return &Notifier{client: slack.New(token, options...)}, nil
}

// NewWithConfig creates a notifier from config
func NewWithConfig(config *Config) (*Notifier, error) {
	var options []slack.Option
	if config.APIURL != "" {
		apiURL := config.APIURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		options = append(options, slack.OptionAPIURL(apiURL))
	}
	return New(config.BotToken, options...)
}
