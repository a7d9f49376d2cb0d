package paywall

import (
	"sync"

	"go.uber.org/zap"

	types "github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/types"
)

// State describes what the client should present. Context carries
// free-form hints for the presentation layer (feature name, source
// screen, required tier).
type State struct {
	Visible bool              `json:"visible"`
	Type    types.PaywallType `json:"type,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}

// Container holds the paywall state per user. Only one paywall is ever
// presented at a time; opening a second one replaces the first.
type Container struct {
	log *zap.SugaredLogger

	mu     sync.Mutex
	states map[string]State
}

func NewContainer(log *zap.SugaredLogger) *Container {
	return &Container{
		log:    log,
		states: make(map[string]State),
	}
}

// Open presents a paywall of the given type, replacing any paywall
// already showing for the user.
func (c *Container) Open(userID string, pt types.PaywallType, context map[string]string) {
	ctx := make(map[string]string, len(context))
	for k, v := range context {
		ctx[k] = v
	}

	c.mu.Lock()
	c.states[userID] = State{Visible: true, Type: pt, Context: ctx}
	c.mu.Unlock()

	c.log.Debugf("paywall %s opened for user %s", pt, userID)
}

// Close dismisses the paywall and clears its type and context, so a
// stale reason can never leak into the next presentation.
func (c *Container) Close(userID string) {
	c.mu.Lock()
	delete(c.states, userID)
	c.mu.Unlock()
}

// Current returns a copy of the user's paywall state. The zero State
// (not visible, no type, no context) means nothing is showing.
func (c *Container) Current(userID string) State {
	c.mu.Lock()
	st, ok := c.states[userID]
	c.mu.Unlock()
	if !ok {
		return State{}
	}

	ctx := make(map[string]string, len(st.Context))
	for k, v := range st.Context {
		ctx[k] = v
	}
	st.Context = ctx
	return st
}
