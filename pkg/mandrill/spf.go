package mandrill

import (
	"github.com/inbucket/inbound/pkg/stringutil"
)

// DefaultSPFResults are the SPF results accepted when a policy does not list its own.
var DefaultSPFResults = []string{"pass", "neutral"}

// SPFPolicy decides which events pass sender authentication.  Events failing the policy are
// dropped silently; they are not errors.
type SPFPolicy struct {
	// Results lists the accepted SPF results; empty means DefaultSPFResults.
	Results []string
}

// Accept returns true if the event carries an SPF result the policy accepts.  Events without an
// SPF result are never accepted.
func (p SPFPolicy) Accept(ev *Event) bool {
	if ev.SPF == nil {
		return false
	}
	results := p.Results
	if len(results) == 0 {
		results = DefaultSPFResults
	}
	return stringutil.SliceContains(results, ev.SPF.Result)
}

// spfResult returns the event's SPF result, or "" if it has none.
func (e *Event) spfResult() string {
	if e.SPF == nil {
		return ""
	}
	return e.SPF.Result
}
