package ai

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"

	"equitydesk/pkg/errors"
)

// CallError marks a failure of the model call itself, as opposed to a tool
// or data failure. Workflows let these abort the run so the model cascade
// can react.
type CallError struct {
	Agent string
	Model string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s call to model %s failed: %v", e.Agent, e.Model, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// IsCallError reports whether err came from a model call
func IsCallError(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr)
}

// Switch reasons reported to metrics and progress events
const (
	ReasonRateLimit = "rate_limit"
	ReasonPolicy    = "policy"
)

var rateLimitMarkers = []string{
	"ratelimiterror",
	"rate limit",
	"temporarily rate-limited",
	`"code":429`,
	" code:429",
}

var policyMarkers = []string{
	"no endpoints found matching your data policy",
	"free model publication",
	"configure: https://openrouter.ai/settings/privacy",
}

// IsRateLimit reports whether the provider throttled the call
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.ErrRateLimitExceeded) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return containsAny(err.Error(), rateLimitMarkers)
}

// IsPolicyRejection reports whether the router refused a free model for the account's data policy
func IsPolicyRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errors.ErrModelPolicyRejected) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && containsAny(apiErr.Message, policyMarkers) {
		return true
	}
	return containsAny(err.Error(), policyMarkers)
}

// IsSwitchable reports whether another model may succeed where this one failed
func IsSwitchable(err error) bool {
	return IsRateLimit(err) || IsPolicyRejection(err)
}

// SwitchReason names why a model is being abandoned, or "" when it should not be
func SwitchReason(err error) string {
	switch {
	case IsPolicyRejection(err):
		return ReasonPolicy
	case IsRateLimit(err):
		return ReasonRateLimit
	default:
		return ""
	}
}

func containsAny(message string, markers []string) bool {
	lowered := strings.ToLower(message)
	for _, m := range markers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

// classify maps provider errors onto the routing sentinels, keeping the original message
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case IsPolicyRejection(err):
		return errors.Join(errors.ErrModelPolicyRejected, err)
	case IsRateLimit(err):
		return errors.Join(errors.ErrRateLimitExceeded, err)
	default:
		return errors.Join(errors.ErrExternal, err)
	}
}
