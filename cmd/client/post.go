package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/google/subcommands"
	"github.com/inbucket/inbound/pkg/rest/client"
)

type postCmd struct {
	field string
	probe bool
}

func (*postCmd) Name() string {
	return "post"
}

func (*postCmd) Synopsis() string {
	return "deliver a webhook payload to the server"
}

func (*postCmd) Usage() string {
	return `post [flags] <file|->:
	post a webhook event array to the server and print its batch result
`
}

func (p *postCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.field, "field", client.DefaultFormField, "form field holding the events")
	f.BoolVar(&p.probe, "probe", false, "send the URL validation request first")
}

func (p *postCmd) Execute(
	ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := f.Arg(0)
	if name == "" {
		return usage("payload file required")
	}
	payload, err := readPayload(name)
	if err != nil {
		return fatal("Couldn't read payload", err)
	}

	// Setup rest client
	c, err := client.New(baseURL(), client.WithFormField(p.field))
	if err != nil {
		return fatal("Couldn't build client", err)
	}
	if p.probe {
		if err := c.Probe(ctx); err != nil {
			return fatal("Probe failed", err)
		}
	}
	result, err := c.PostEvents(ctx, payload)
	if err != nil {
		return fatal("REST call failed", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fatal("Couldn't write JSON", err)
	}
	return subcommands.ExitSuccess
}
