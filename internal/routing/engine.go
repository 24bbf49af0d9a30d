package routing

import (
	"context"
	"errors"

	"brandbuzz/internal/telephony"
)

// Engine decides what to do with an inbound call. It is the interface the
// webhook handler depends on, so TwiML code stays free of business rules.
type Engine interface {
	RouteInboundCall(ctx context.Context, req telephony.InboundCallRequest) (telephony.InboundCallResult, error)
}

// NewNoopEngine returns an engine that always sends callers to voicemail.
// Used when voice routing is not configured.
func NewNoopEngine() Engine { return noopEngine{} }

type noopEngine struct{}

func (noopEngine) RouteInboundCall(ctx context.Context, req telephony.InboundCallRequest) (telephony.InboundCallResult, error) {
	if req.UserID == "" {
		return telephony.InboundCallResult{}, errors.New("routing: user_id required")
	}
	return telephony.InboundCallResult{UserID: req.UserID, CallSid: req.CallSid, Action: telephony.InboundCallActionVoicemail}, nil
}

// NewEngineAdapter adapts the Decision-based RoutingEngine into Engine.
func NewEngineAdapter(engine *RoutingEngine, opts AdapterOptions) Engine {
	return engineAdapter{engine: engine, opts: opts}
}

type AdapterOptions struct {
	// CallerID is presented on bridged calls. Empty keeps the original caller.
	CallerID string

	// Greeting is spoken before voicemail recording starts.
	Greeting string
}

type engineAdapter struct {
	engine *RoutingEngine
	opts   AdapterOptions
}

func (a engineAdapter) RouteInboundCall(ctx context.Context, req telephony.InboundCallRequest) (telephony.InboundCallResult, error) {
	if a.engine == nil {
		return telephony.InboundCallResult{}, errors.New("routing: engine is nil")
	}

	d, err := a.engine.Route(ctx, RouteInput{UserID: req.UserID, Inbound: req})
	if err != nil {
		return telephony.InboundCallResult{}, err
	}

	res := telephony.InboundCallResult{UserID: d.UserID, CallSid: req.CallSid}
	switch d.Action {
	case ActionReject:
		res.Action = telephony.InboundCallActionReject
	case ActionHangup:
		res.Action = telephony.InboundCallActionHangup
	case ActionConnect:
		res.Action = telephony.InboundCallActionConnect
		res.ConnectTo = d.ConnectTo
		res.CallerID = a.opts.CallerID
	case ActionVoicemail:
		res.Action = telephony.InboundCallActionVoicemail
		res.Greeting = a.opts.Greeting
	default:
		return telephony.InboundCallResult{}, errors.New("routing: unknown decision action")
	}

	return res, nil
}
