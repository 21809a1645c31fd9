package retry

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// Kind is the closed set of failure classes the policy distinguishes.
type Kind int

const (
	// KindPermanent failures are surfaced immediately.
	KindPermanent Kind = iota
	// KindTransientQuota failures signal rate or quota exhaustion and are
	// retried with backoff.
	KindTransientQuota
	// KindCancelled failures come from the caller's context.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransientQuota:
		return "transient_quota"
	case KindCancelled:
		return "cancelled"
	default:
		return "permanent"
	}
}

// StatusError is implemented by errors carrying an upstream HTTP status and,
// optionally, the provider's canonical status string (e.g. RESOURCE_EXHAUSTED).
type StatusError interface {
	error
	HTTPStatus() int
	StatusText() string
}

// quotaMessage matches quota signals in untyped errors. 429 must stand alone
// so request ids or byte counts that merely contain the digits do not count.
var quotaMessage = regexp.MustCompile(`(?i)\b429\b|resource[_ ]exhausted|quota|rate[- ]limit|too many requests`)

// Classify maps err to a Kind. It is the only place that inspects error
// shapes for quota signals. A typed StatusError is judged on its status
// alone; only untyped errors fall back to the message.
func Classify(err error) Kind {
	if err == nil {
		return KindPermanent
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCancelled
	}
	var statusErr StatusError
	if errors.As(err, &statusErr) {
		if statusErr.HTTPStatus() == http.StatusTooManyRequests ||
			strings.EqualFold(strings.TrimSpace(statusErr.StatusText()), "RESOURCE_EXHAUSTED") {
			return KindTransientQuota
		}
		return KindPermanent
	}
	if quotaMessage.MatchString(err.Error()) {
		return KindTransientQuota
	}
	return KindPermanent
}
