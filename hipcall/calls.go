package hipcall

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func (c *core) getCall(ctx context.Context, h doer, callID, date string) (*CallDetailResponse, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, fmt.Errorf("%w: call ID is required", ErrInvalidInput)
	}
	if strings.TrimSpace(date) == "" {
		return nil, fmt.Errorf("%w: call date is required", ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("date", date)

	var resp CallDetailResponse
	if err := c.do(ctx, h, "get call", http.MethodGet, c.CallDetailURL(callID), params, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *core) getCalls(ctx context.Context, h doer, opts []ListOption) (*CallListResponse, error) {
	params := c.listParams(c.opts.callSort, opts)

	var resp CallListResponse
	if err := c.do(ctx, h, "get calls", http.MethodGet, c.CallListURL(), params, nil, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("count", len(resp.Data)).
		Int("total", resp.Meta.Count).
		Msg("Retrieved calls from Hipcall")

	return &resp, nil
}

func (c *core) callAndBridge(ctx context.Context, h doer, userID int, calleeNumber string, opts []BridgeOption) (*CallAndBridgeResponse, error) {
	body := &callAndBridgeRequest{
		CalleeNumber:  calleeNumber,
		RingUserFirst: true,
	}
	for _, opt := range opts {
		opt(body)
	}

	var resp CallAndBridgeResponse
	if err := c.do(ctx, h, "call and bridge", http.MethodPost, c.CallAndBridgeURL(userID), nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
