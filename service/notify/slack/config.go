package slack

// Config represents Slack transport configuration
type Config struct {
	BotToken      string `json:"botToken,omitempty" yaml:"botToken,omitempty"`
	SigningSecret string `json:"signingSecret,omitempty" yaml:"signingSecret,omitempty"`
	// ChannelID is where approval requests are posted
	ChannelID string `json:"channelId,omitempty" yaml:"channelId,omitempty"`
	// APIURL overrides the Slack Web API base URL
	APIURL string `json:"apiURL,omitempty" yaml:"apiURL,omitempty"`
	// BotTokenURL and SigningSecretURL locate scy encrypted secrets used when the plain values are empty
	BotTokenURL      string `json:"botTokenURL,omitempty" yaml:"botTokenURL,omitempty"`
	SigningSecretURL string `json:"signingSecretURL,omitempty" yaml:"signingSecretURL,omitempty"`
	SecretKey        string `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
}
