package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/stringutil"
	"github.com/inbucket/inbound/pkg/tempstore/mem"
)

type normalizeCmd struct {
	spf           string
	requireSender bool
	sanitize      bool
	// match criteria
	from    regexFlag
	subject regexFlag
	to      regexFlag
}

func (*normalizeCmd) Name() string {
	return "normalize"
}

func (*normalizeCmd) Synopsis() string {
	return "normalize a webhook payload locally"
}

func (*normalizeCmd) Usage() string {
	return `normalize [flags] <file|->:
	print the normalized messages of a webhook event array as JSON
	exit status will be 1 if no messages were produced, otherwise 0
`
}

func (n *normalizeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&n.spf, "spf", strings.Join(mandrill.DefaultSPFResults, ","),
		"comma separated SPF results to accept")
	f.BoolVar(&n.requireSender, "require-sender", false, "fail messages without a sender")
	f.BoolVar(&n.sanitize, "sanitize", false, "sanitize HTML bodies")
	f.Var(&n.from, "from", "From address matching regexp")
	f.Var(&n.subject, "subject", "Subject matching regexp")
	f.Var(&n.to, "to", "To matching regexp (must match 1+ to address)")
}

func (n *normalizeCmd) Execute(
	_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	name := f.Arg(0)
	if name == "" {
		return usage("payload file required")
	}
	payload, err := readPayload(name)
	if err != nil {
		return fatal("Couldn't read payload", err)
	}

	results := strings.Split(n.spf, ",")
	stringutil.SliceToLower(results)
	normalizer := &mandrill.Normalizer{
		SPF:           mandrill.SPFPolicy{Results: results},
		Attachments:   &mandrill.Materializer{Store: mem.NewStore()},
		RequireSender: n.requireSender,
		SanitizeHTML:  n.sanitize,
	}
	batch, err := normalizer.Normalize(payload)
	if err != nil {
		return fatal("Couldn't normalize payload", err)
	}
	defer func() {
		_ = batch.Close()
	}()
	for _, fail := range batch.Failures {
		fmt.Fprintf(os.Stderr, "Skipping failed event: %v\n", fail)
	}

	matches := make([]*message.Message, 0, len(batch.Messages))
	for _, msg := range batch.Messages {
		if n.match(msg) {
			matches = append(matches, msg)
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(matches); err != nil {
		return fatal("Couldn't write JSON", err)
	}
	if len(matches) == 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// match returns true if msg satisfies every configured criterion.
func (n *normalizeCmd) match(msg *message.Message) bool {
	if n.from.Defined() && !n.from.MatchString(msg.From) {
		return false
	}
	if n.subject.Defined() && !n.subject.MatchString(msg.Subject) {
		return false
	}
	if n.to.Defined() {
		for _, to := range msg.To {
			if n.to.MatchString(to) {
				return true
			}
		}
		return false
	}
	return true
}
