package command

import (
	"fmt"
)

// ErrorKind classifies why a command text could not be parsed
type ErrorKind int

const (
	UnknownCommand ErrorKind = iota + 1
	AmbiguousCommand
	AmbiguousSubscriptionType
	AmbiguousTicker
	TickerMissing
	InvalidStepArguments
	InvalidNumber
	InvalidStep
	InvalidArguments
)

var kindNames = map[ErrorKind]string{
	UnknownCommand:            "unknown command",
	AmbiguousCommand:          "more than one command",
	AmbiguousSubscriptionType: "more than one subscription type",
	AmbiguousTicker:           "more than one ticker",
	TickerMissing:             "ticker missing",
	InvalidStepArguments:      "step needs exactly three prices",
	InvalidNumber:             "invalid number",
	InvalidStep:               "invalid step",
	InvalidArguments:          "invalid arguments",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// ParseError is returned by Parse. Token holds the offending token, if any.
type ParseError struct {
	Kind  ErrorKind
	Token string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return "parse error: " + e.Kind.String()
	}
	return fmt.Sprintf("parse error: %s: %q", e.Kind, e.Token)
}

// Is matches any ParseError of the same kind, so errors.Is(err, ErrTickerMissing)
// works regardless of the token.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

var (
	ErrUnknownCommand            = &ParseError{Kind: UnknownCommand}
	ErrAmbiguousCommand          = &ParseError{Kind: AmbiguousCommand}
	ErrAmbiguousSubscriptionType = &ParseError{Kind: AmbiguousSubscriptionType}
	ErrAmbiguousTicker           = &ParseError{Kind: AmbiguousTicker}
	ErrTickerMissing             = &ParseError{Kind: TickerMissing}
	ErrInvalidStepArguments      = &ParseError{Kind: InvalidStepArguments}
	ErrInvalidNumber             = &ParseError{Kind: InvalidNumber}
	ErrInvalidStep               = &ParseError{Kind: InvalidStep}
	ErrInvalidArguments          = &ParseError{Kind: InvalidArguments}
)

func newParseError(kind ErrorKind, token string) *ParseError {
	return &ParseError{Kind: kind, Token: token}
}
