package config

import "os"

// RealtimeConfig holds PubNub credentials for ticket status broadcasts.
// Broadcasting is disabled when either key is empty.
type RealtimeConfig struct {
	PublishKey   string
	SubscribeKey string
	Channel      string
	UUID         string
}

func LoadRealtimeConfig() RealtimeConfig {
	return RealtimeConfig{
		PublishKey:   os.Getenv("PUBNUB_PUBLISH_KEY"),
		SubscribeKey: os.Getenv("PUBNUB_SUBSCRIBE_KEY"),
		Channel:      envStr("PUBNUB_CHANNEL", "ticket-status"),
		UUID:         envStr("PUBNUB_UUID", "ticket-lifecycle"),
	}
}

// Enabled reports whether both keys are configured.
func (c RealtimeConfig) Enabled() bool {
	return c.PublishKey != "" && c.SubscribeKey != ""
}
