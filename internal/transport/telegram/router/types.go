package router

import (
	"context"
	"time"

	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessOwnerOnly
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Command struct {
	Name        string
	Aliases     []string
	Description string
	Access      Access
	// Hidden commands are routed but not listed in the platform command menu.
	Hidden  bool
	Timeout time.Duration
	Handle  HandlerFunc
}

type CallbackHandlerFunc func(ctx context.Context, req *Request, payload string) error

// CallbackRoute handles inline-button data of the form "<prefix>:<action>[:<payload>]".
type CallbackRoute struct {
	Prefix  string
	Action  string
	Access  Access
	Timeout time.Duration
	Handle  CallbackHandlerFunc
}

type Request struct {
	Update    kit.Update
	Chat      kit.ChatTarget
	FromID    int64
	FromName  string
	MessageID int // callback source message (0 for commands)
	Command   string
	Args      []string
	Payload   string
	ReqID     string
	IsOwner   bool

	Adapter kit.Adapter
	Logger  logx.Logger
}

// IsCallback reports whether the request came from an inline button.
func (r *Request) IsCallback() bool { return r.Update.Kind == kit.UpdateCallback }
