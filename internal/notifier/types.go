package notifier

import (
	"time"

	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
)

// Config controls channel delivery and subscriber fan-out.
type Config struct {
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
	FanoutWorkers int
	PreviewRunes  int
}

func (c Config) withDefaults() Config {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 3
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 10 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.FanoutWorkers <= 0 {
		c.FanoutWorkers = 4
	}
	if c.PreviewRunes <= 0 {
		c.PreviewRunes = 500
	}
	return c
}

// Delivery is one channel post.
//
// Text is the HTML rendering. Plain is the text scanned for entity names and
// quoted to subscribers; it defaults to Text. When Photo is set the image is
// sent first and Text is used only if the image cannot be delivered.
type Delivery struct {
	Kind       string
	Text       string
	Plain      string
	Photo      *kit.Photo
	SkipFanout bool
}

type Result struct {
	ChannelRef  kit.MessageRef
	AsPhoto     bool
	Subscribers int
	Notified    int
	Failed      int
}

// DeliveryEvent is the payload of notifier events on the bus.
type DeliveryEvent struct {
	Kind       string    `json:"kind"`
	ChatID     int64     `json:"chat_id"`
	Entity     string    `json:"entity,omitempty"`
	Attempts   int       `json:"attempts"`
	Subscribed int       `json:"subscribed,omitempty"`
	At         time.Time `json:"at"`
	Error      string    `json:"error,omitempty"`
}
