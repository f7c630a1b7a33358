package kuasap

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var queryIdRegex = regexp.MustCompile(`^[a-z]{2}[0-9a-z_]+$`)

// ValidateQueryId checks that qid is well formed and that its two letter
// category is one the client is allowed to query.
func (c *Client) ValidateQueryId(qid string) error {
	if !queryIdRegex.MatchString(qid) {
		return fmt.Errorf("%w: %q", ErrInvalidQueryId, qid)
	}
	_, ok := c.categories[qid[:2]]
	if !ok {
		return fmt.Errorf("%w: category %q is not allowed", ErrInvalidQueryId, qid[:2])
	}
	return nil
}

// FunctionTokens performs the priming request for a function id and returns
// every hidden field the portal expects to be echoed back.
func (c *Client) FunctionTokens(ctx context.Context, fncid string) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "client:FunctionTokens")
	defer span.End()

	span.SetAttributes(attribute.String("fncid", fncid))

	body, err := c.Post(ctx, functionPath, map[string]string{"fncid": fncid})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch function tokens")
		return nil, err
	}

	fields, err := c.parser.ParseInputs(ctx, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse function tokens")
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, err.Error())
	}
	if len(fields) == 0 {
		span.SetStatus(codes.Error, "no inputs in priming response")
		return nil, fmt.Errorf("%w: no inputs in response to %s", ErrMalformedResponse, fncid)
	}
	return fields, nil
}

// Query fetches the function tokens for qid, overlays args on top of them
// and posts the result to the query page, returning the raw body.
func (c *Client) Query(ctx context.Context, qid string, args map[string]string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Query")
	defer span.End()

	span.SetAttributes(attribute.String("qid", qid))

	err := c.ValidateQueryId(qid)
	if err != nil {
		span.SetStatus(codes.Error, "invalid query id")
		return nil, err
	}

	c.exchange.Lock()
	defer c.exchange.Unlock()

	payload, err := c.FunctionTokens(ctx, strings.ToUpper(qid))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch function tokens")
		return nil, err
	}
	for k, v := range args {
		payload[k] = v
	}

	body, err := c.Post(ctx, fmt.Sprintf("/%s_pro/%s.jsp", qid[:2], qid), payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make query")
		return nil, err
	}
	return body, nil
}
