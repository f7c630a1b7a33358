package kuasap

import (
	"context"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"kuasap-backend/lib/htmlutil"
	"kuasap-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl = "http://140.127.113.227/kuas"
	DefaultTimeout = 15 * time.Second

	loginPath    = "/perchk.jsp"
	functionPath = "/fnc.jsp"
)

var DefaultCategories = []string{"ag"}

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Timeout bounds every request, it defaults to DefaultTimeout.
	Timeout time.Duration
	// Limiter is shared by every client talking to the same portal.
	Limiter *rate.Limiter
	// Categories are the allowed query id prefixes, defaults to DefaultCategories.
	Categories []string
	// LoginSuccess defaults to ContainsMarker(LoginSuccessMarker).
	LoginSuccess LoginSuccessFunc
	// Parser defaults to htmlutil.TokenizerInputParser.
	Parser           htmlutil.InputParser
	CloudflareBypass bool
	UserAgent        string
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if len(o.Categories) == 0 {
		o.Categories = DefaultCategories
	}
	if o.LoginSuccess == nil {
		o.LoginSuccess = ContainsMarker(LoginSuccessMarker)
	}
	if o.Parser == nil {
		o.Parser = htmlutil.TokenizerInputParser{}
	}
	if o.UserAgent == "" {
		o.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	}
	return o
}

// Client is one cookie-bearing session with the portal.
type Client struct {
	ID        string
	CreatedAt time.Time

	http       *resty.Client
	parser     htmlutil.InputParser
	success    LoginSuccessFunc
	categories map[string]struct{}
	lastUsed   atomic.Int64

	// held across a priming request and the query that consumes its tokens
	exchange sync.Mutex
}

// NewClient creates a client with an empty cookie jar, it does not make
// any requests.
func NewClient(opts ClientOptions) (*Client, error) {
	opts = opts.withDefaults()

	_, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetCookieJar(jar)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", opts.UserAgent)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	if opts.Limiter != nil {
		limiter := opts.Limiter
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	categories := make(map[string]struct{}, len(opts.Categories))
	for _, c := range opts.Categories {
		categories[c] = struct{}{}
	}

	now := time.Now()
	c := &Client{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		http:       client,
		parser:     opts.Parser,
		success:    opts.LoginSuccess,
		categories: categories,
	}
	c.lastUsed.Store(now.UnixNano())
	return c, nil
}

// LastUsed is the time of the last successful response or Touch.
func (c *Client) LastUsed() time.Time {
	return time.Unix(0, c.lastUsed.Load())
}

// Touch marks the client as used without making a request.
func (c *Client) Touch() {
	c.lastUsed.Store(time.Now().UnixNano())
}

// Post sends a form encoded POST and returns the raw response body.
// Cookies set by the response are kept for later requests.
func (c *Client) Post(ctx context.Context, path string, form map[string]string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:Post")
	defer span.End()

	span.SetAttributes(attribute.String("path", path))

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make request")
		return nil, &TransportError{Op: "post", Url: path, Err: err}
	}
	if res.StatusCode() >= 400 {
		span.SetStatus(codes.Error, "unexpected response status")
		return nil, &TransportError{Op: "post", Url: path, Status: res.StatusCode()}
	}

	c.Touch()
	return res.Body(), nil
}
