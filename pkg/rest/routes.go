package rest

import (
	"github.com/gorilla/mux"
	"github.com/inbucket/inbound/pkg/server/web"
)

// SetupRoutes populates the routes for the REST interface
func SetupRoutes(r *mux.Router) {
	// Provider webhook
	r.Path("/mandrill/inbound").Handler(
		web.Handler(InboundProbeV1)).Name("InboundProbeV1").Methods("HEAD", "GET")
	r.Path("/mandrill/inbound").Handler(
		web.Handler(InboundPostV1)).Name("InboundPostV1").Methods("POST")

	// Monitor
	r.Path("/v1/monitor/messages").Handler(
		web.Handler(MonitorAllMessagesV1)).Name("MonitorAllMessagesV1").Methods("GET")
	r.Path("/v1/monitor/messages/{address}").Handler(
		web.Handler(MonitorAddressMessagesV1)).Name("MonitorAddressMessagesV1").Methods("GET")
}
