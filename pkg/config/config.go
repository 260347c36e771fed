package config

import (
	"log"
	"os"
	"text/tabwriter"

	"github.com/kelseyhightower/envconfig"
)

const (
	prefix      = "inbound"
	tableFormat = `Inbound is configured via the environment. The following environment
variables can be used:

KEY	DEFAULT	REQUIRED	DESCRIPTION
{{range .}}{{usage_key .}}	{{usage_default .}}	{{usage_required .}}	{{usage_description .}}
{{end}}`
)

var (
	// Version of this build, set by main
	Version = ""

	// BuildDate for this build, set by main
	BuildDate = ""
)

// Root wraps all other configurations.
type Root struct {
	LogLevel string `required:"true" default:"info" desc:"debug, info, warn, or error"`
	Web      Web
	Webhook  Webhook
	Storage  Storage
}

// Web contains the HTTP server configuration.
type Web struct {
	Addr           string `required:"true" default:"0.0.0.0:9000" desc:"Web server IP4 host:port"`
	BasePath       string `default:"" desc:"Base path prefix for URLs"`
	MonitorHistory int    `required:"true" default:"30" desc:"Monitor remembered messages"`
	MaxBodyBytes   int64  `required:"true" default:"26214400" desc:"Maximum webhook request size"`
}

// Webhook contains the inbound event normalization configuration.
type Webhook struct {
	FormField     string   `required:"true" default:"mandrill_events" desc:"Form field holding the event JSON"`
	AcceptSPF     []string `required:"true" default:"pass,neutral" desc:"SPF results accepted"`
	RequireSender bool     `default:"false" desc:"Fail messages without a sender address?"`
	SanitizeHTML  bool     `default:"false" desc:"Sanitize HTML bodies before handing off?"`
	DefaultAccept bool     `default:"true" desc:"Accept all receiving domains?"`
	AcceptDomains []string `desc:"Domains to accept mail for"`
	RejectDomains []string `desc:"Domains to reject mail for"`
}

// Storage contains the attachment temporary storage configuration.
type Storage struct {
	Type             string `required:"true" default:"file" desc:"Attachment store type: file, memory"`
	TempDir          string `default:"" desc:"Directory for attachment files, empty for an inbound dir in system temp"`
	RetentionMinutes int    `default:"60" desc:"Remove abandoned attachment files after, 0 disables"`
}

// Process loads and parses configuration from the environment.
func Process() (*Root, error) {
	c := &Root{}
	err := envconfig.Process(prefix, c)
	return c, err
}

// Usage prints out the envconfig usage to Stderr.
func Usage() {
	tabs := tabwriter.NewWriter(os.Stderr, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(prefix, &Root{}, tabs, tableFormat); err != nil {
		log.Fatalf("Unable to parse env config: %v", err)
	}
	tabs.Flush()
}
