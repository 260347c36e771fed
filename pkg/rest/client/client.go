// Package client posts webhook deliveries to an Inbound server.
package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/inbucket/inbound/pkg/rest/model"
)

// DefaultFormField is the form field the provider delivers events in.
const DefaultFormField = "mandrill_events"

const inboundPath = "/api/mandrill/inbound"

// Client delivers inbound event payloads the way the provider does.
type Client struct {
	restClient
	formField string
}

// Options holds the optional settings for a Client.
type Options struct {
	transport http.RoundTripper
	timeout   time.Duration
	formField string
}

// Option configures a Client.
type Option func(*Options)

// WithTransport sets the transport used for requests.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *Options) {
		o.transport = transport
	}
}

// WithTimeout sets the overall request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.timeout = timeout
	}
}

// WithFormField overrides the form field holding the event payload.
func WithFormField(name string) Option {
	return func(o *Options) {
		o.formField = name
	}
}

// New creates a new client given the base URL of an Inbound server, ex: "http://localhost:9000"
func New(baseURL string, opts ...Option) (*Client, error) {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	o := &Options{
		timeout:   30 * time.Second,
		formField: DefaultFormField,
	}
	for _, opt := range opts {
		opt(o)
	}
	c := &Client{
		restClient: restClient{
			client: &http.Client{
				Transport: o.transport,
				Timeout:   o.timeout,
			},
			baseURL: parsedURL,
		},
		formField: o.formField,
	}
	return c, nil
}

// Probe performs the URL validation request the provider sends before enabling a webhook.
func (c *Client) Probe(ctx context.Context) error {
	return c.doJSON(ctx, "HEAD", inboundPath, "", nil, nil)
}

// PostEvents delivers a JSON event array, form encoded, and returns the server's batch result.
func (c *Client) PostEvents(ctx context.Context, payload []byte) (*model.JSONBatchResultV1, error) {
	form := url.Values{c.formField: {string(payload)}}
	result := &model.JSONBatchResultV1{}
	err := c.doJSON(ctx, "POST", inboundPath, "application/x-www-form-urlencoded",
		[]byte(form.Encode()), result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
