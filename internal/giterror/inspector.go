package giterror

import (
	"errors"
	"strings"
)

// Kind is the category of an upstream failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimit
	KindAuth
	KindComplexity
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindAuth:
		return "auth"
	case KindComplexity:
		return "complexity"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Inspector reports which kinds an error belongs to.
type Inspector interface {
	// IsAuthError reports a rejected or missing token.
	IsAuthError(err error) bool

	// IsRateLimitError reports a primary or secondary rate limit.
	IsRateLimitError(err error) bool

	// IsComplexityError reports a search query GitHub refused to run.
	IsComplexityError(err error) bool

	// IsNetworkError reports a connectivity failure or a transient gateway
	// failure in front of the API.
	IsNetworkError(err error) bool
}

// Classify returns the kind of err. Rate limits are checked before auth
// because GitHub answers secondary limits with 403.
func Classify(inspector Inspector, err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case inspector.IsRateLimitError(err):
		return KindRateLimit
	case inspector.IsAuthError(err):
		return KindAuth
	case inspector.IsComplexityError(err):
		return KindComplexity
	case inspector.IsNetworkError(err):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// messagePatterns are lower-case fragments of the messages GitHub, the
// GraphQL client and net/http produce for each kind. GraphQL reports primary
// limits as RATE_LIMITED inside a 200 response.
var messagePatterns = map[Kind][]string{
	KindRateLimit: {
		"rate limit",
		"rate_limited",
		"429",
		"secondary rate",
	},
	KindAuth: {
		"401",
		"403",
		"unauthorized",
		"forbidden",
		"bad credentials",
		"authentication",
	},
	KindComplexity: {
		"complexity",
		"max_node_limit_exceeded",
		"exceeds maximum",
	},
	KindNetwork: {
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"temporary failure",
		"dial tcp",
		"tls handshake",
		"network is unreachable",
		"502 bad gateway",
		"503 service unavailable",
		"504 gateway timeout",
	},
}

// MessageInspector classifies errors by their message text.
type MessageInspector struct{}

// NewInspector returns the message based inspector.
func NewInspector() Inspector {
	return MessageInspector{}
}

func (MessageInspector) IsAuthError(err error) bool       { return matchMessage(err, KindAuth) }
func (MessageInspector) IsRateLimitError(err error) bool  { return matchMessage(err, KindRateLimit) }
func (MessageInspector) IsComplexityError(err error) bool { return matchMessage(err, KindComplexity) }
func (MessageInspector) IsNetworkError(err error) bool    { return matchMessage(err, KindNetwork) }

func matchMessage(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range messagePatterns[kind] {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// ErrorChainInspector asks typed errors in the chain first, such as the
// transport's RateLimitError, and falls back to a base inspector.
type ErrorChainInspector struct {
	base Inspector
}

// NewErrorChainInspector wraps base with chain inspection.
func NewErrorChainInspector(base Inspector) Inspector {
	return &ErrorChainInspector{base: base}
}

func (e *ErrorChainInspector) IsAuthError(err error) bool {
	var typed interface{ IsAuthError() bool }
	if errors.As(err, &typed) && typed.IsAuthError() {
		return true
	}
	return e.base.IsAuthError(err)
}

func (e *ErrorChainInspector) IsRateLimitError(err error) bool {
	var typed interface{ IsRateLimitError() bool }
	if errors.As(err, &typed) && typed.IsRateLimitError() {
		return true
	}
	return e.base.IsRateLimitError(err)
}

func (e *ErrorChainInspector) IsComplexityError(err error) bool {
	var typed interface{ IsComplexityError() bool }
	if errors.As(err, &typed) && typed.IsComplexityError() {
		return true
	}
	return e.base.IsComplexityError(err)
}

func (e *ErrorChainInspector) IsNetworkError(err error) bool {
	var typed interface{ IsNetworkError() bool }
	if errors.As(err, &typed) && typed.IsNetworkError() {
		return true
	}
	return e.base.IsNetworkError(err)
}
