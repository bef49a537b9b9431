package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"
)

const subscribeLogPrefix = "rpc:subscribe"

// Subscribe answers requests on subject with router. Each request runs under
// requestTimeout, shortened by a smaller client deadline when one is given.
func Subscribe(ctx context.Context, nc *comms.Conn, subject string, router *Router, requestTimeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		req, err := DecodeRequest(msg.Data)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", subscribeLogPrefix, err))
			respond(msg, errorResponse("", "INVALID_REQUEST", "Failed to decode request", false))
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		if req.Ctx != nil && (req.Ctx.DeadlineMs > 0 || req.Ctx.TimeoutMs > 0) {
			ms := req.Ctx.DeadlineMs
			if ms <= 0 {
				ms = req.Ctx.TimeoutMs
			}
			if ms > 0 && time.Duration(ms)*time.Millisecond < requestTimeout {
				cancel()
				reqCtx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
			}
		}
		defer cancel()

		respond(msg, router.Handle(reqCtx, req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", subscribeLogPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", subscribeLogPrefix, subject))
	return sub, nil
}

func respond(msg *comms.Msg, resp *Response) {
	data, err := EncodeResponse(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", subscribeLogPrefix, err))
		return
	}
	if err := msg.Respond(data); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to respond: %v", subscribeLogPrefix, err))
	}
}
