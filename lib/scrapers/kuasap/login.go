package kuasap

import (
	"bytes"
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const LoginSuccessMarker = "f_index.html"

// LoginSuccessFunc decides from the login response body whether the
// credentials were accepted.
type LoginSuccessFunc func(body []byte) bool

func ContainsMarker(marker string) LoginSuccessFunc {
	m := []byte(marker)
	return func(body []byte) bool {
		return bytes.Contains(body, m)
	}
}

// Login submits the login form. Rejected credentials return false with a nil
// error, only transport failures are errors.
func (c *Client) Login(ctx context.Context, username, password string) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	body, err := c.Post(ctx, loginPath, map[string]string{
		"uid": username,
		"pwd": password,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return false, err
	}

	ok := c.success(body)
	span.SetAttributes(attribute.Bool("success", ok))
	return ok, nil
}
