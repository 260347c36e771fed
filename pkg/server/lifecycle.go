// Package server wires the configured services together.
package server

import (
	"context"

	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/extension"
	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/msghub"
	"github.com/inbucket/inbound/pkg/policy"
	"github.com/inbucket/inbound/pkg/rest"
	"github.com/inbucket/inbound/pkg/server/web"
	"github.com/inbucket/inbound/pkg/stringutil"
	"github.com/inbucket/inbound/pkg/tempstore"
	"github.com/inbucket/inbound/pkg/tempstore/file"
)

// Services holds the configured and started services.
type Services struct {
	Extensions *extension.Host
	MsgHub     *msghub.Hub
	Normalizer *mandrill.Normalizer
	Store      tempstore.Store
	WebServer  *web.Server
	// RetentionScanner is nil unless attachments are stored in files.
	RetentionScanner *file.RetentionScanner
}

// NewNormalizer builds the event normalizer described by conf, writing attachments to store.
func NewNormalizer(conf config.Webhook, store tempstore.Store, ext *extension.Host) *mandrill.Normalizer {
	results := append([]string(nil), conf.AcceptSPF...)
	stringutil.SliceToLower(results)
	return &mandrill.Normalizer{
		SPF:           mandrill.SPFPolicy{Results: results},
		Attachments:   &mandrill.Materializer{Store: store},
		Domains:       policy.NewDomains(conf),
		RequireSender: conf.RequireSender,
		SanitizeHTML:  conf.SanitizeHTML,
		Extensions:    ext,
	}
}

// Prod wires up the production Inbound environment, handing normalized messages to h.  A nil h
// logs each message.
func Prod(
	rootCtx context.Context,
	shutdownChan chan bool,
	conf *config.Root,
	h message.Handler,
) (*Services, error) {
	// Configure attachment storage.
	store, err := tempstore.FromConfig(conf.Storage)
	if err != nil {
		return nil, err
	}
	if h == nil {
		h = message.LogHandler{}
	}
	var retentionScanner *file.RetentionScanner
	if conf.Storage.Type == "file" {
		retentionScanner = file.NewRetentionScanner(conf.Storage, shutdownChan)
		retentionScanner.Start()
	}

	extHost := extension.NewHost()
	msgHub := msghub.New(conf.Web.MonitorHistory, extHost)
	go msgHub.Start(rootCtx)
	normalizer := NewNormalizer(conf.Webhook, store, extHost)

	// Configure routes and start HTTP server.
	prefix := stringutil.MakePathPrefixer(conf.Web.BasePath)
	rest.SetupRoutes(web.Router.PathPrefix(prefix("/api/")).Subrouter())
	webServer := web.NewServer(conf, shutdownChan, normalizer, h, extHost, msgHub)
	go webServer.Start(rootCtx)

	return &Services{
		Extensions:       extHost,
		MsgHub:           msgHub,
		Normalizer:       normalizer,
		Store:            store,
		WebServer:        webServer,
		RetentionScanner: retentionScanner,
	}, nil
}
