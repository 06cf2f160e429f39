package command

import (
	"strings"
	"unicode"

	"github.com/StudioSol/set"
	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/core"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenCommand
	tokenSubscriptionType
	tokenNumber
)

type token struct {
	text  string
	kind  tokenKind
	value decimal.Decimal
}

// tokens is the classified form of a command text. Command keywords keep
// every occurrence; ordered holds each distinct token once in first-seen order.
// badNumber is the first token that looked numeric but did not parse.
type tokens struct {
	commands  []Type
	types     []core.SubscriptionType
	ordered   []token
	badNumber string
}

var (
	commandKeywords = keywordSet(Types)
	typeKeywords    = keywordSet(core.SubscriptionTypes)
)

func keywordSet[T ~string](values []T) *set.LinkedHashSetString {
	keywords := set.NewLinkedHashSetString()
	for _, v := range values {
		keywords.Add(string(v))
	}
	return keywords
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// classify assigns every token to exactly one partition in a single pass
func classify(text string) tokens {
	var result tokens
	seen := set.NewLinkedHashSetString()

	for _, field := range strings.Fields(strings.ToUpper(text)) {
		switch {
		case commandKeywords.InArray(field):
			result.commands = append(result.commands, Type(field))
			continue
		case typeKeywords.InArray(field):
			if !seen.InArray(field) {
				seen.Add(field)
				result.types = append(result.types, core.SubscriptionType(field))
				result.ordered = append(result.ordered, token{text: field, kind: tokenSubscriptionType})
			}
			continue
		}

		if hasLetter(field) {
			if seen.InArray(field) {
				continue
			}
			seen.Add(field)
			result.ordered = append(result.ordered, token{text: field, kind: tokenWord})
			continue
		}

		value, err := decimal.NewFromString(field)
		if err != nil {
			if result.badNumber == "" {
				result.badNumber = field
			}
			continue
		}

		key := "#" + value.String()
		if seen.InArray(key) {
			continue
		}
		seen.Add(key)
		result.ordered = append(result.ordered, token{text: field, kind: tokenNumber, value: value})
	}

	return result
}

// checkNumbers fails for commands that read the price list
func (t tokens) checkNumbers() error {
	if t.badNumber != "" {
		return newParseError(InvalidNumber, t.badNumber)
	}
	return nil
}

func (t tokens) command() (Type, error) {
	switch len(t.commands) {
	case 0:
		return "", ErrUnknownCommand
	case 1:
		return t.commands[0], nil
	default:
		return "", newParseError(AmbiguousCommand, string(t.commands[1]))
	}
}

func (t tokens) subscriptionType() (core.SubscriptionType, error) {
	switch len(t.types) {
	case 0:
		return core.DefaultSubscriptionType, nil
	case 1:
		return t.types[0], nil
	default:
		return "", newParseError(AmbiguousSubscriptionType, string(t.types[1]))
	}
}

// ticker returns the single remaining word. Subscription type keywords are
// only words for commands that do not take a type.
func (t tokens) ticker(typeIsWord bool) (string, error) {
	var candidates []string
	for _, tok := range t.ordered {
		if tok.kind == tokenWord || (typeIsWord && tok.kind == tokenSubscriptionType) {
			candidates = append(candidates, tok.text)
		}
	}

	switch len(candidates) {
	case 0:
		return "", ErrTickerMissing
	case 1:
		return candidates[0], nil
	default:
		return "", newParseError(AmbiguousTicker, candidates[1])
	}
}

// prices returns the distinct numbers in first-seen order
func (t tokens) prices() []decimal.Decimal {
	var prices []decimal.Decimal
	for _, tok := range t.ordered {
		if tok.kind == tokenNumber {
			prices = append(prices, tok.value)
		}
	}
	return prices
}

// Parse turns free text into a command payload. It is a pure function of its
// input.
func Parse(text string) (Payload, error) {
	toks := classify(text)

	cmd, err := toks.command()
	if err != nil {
		return nil, err
	}

	var payload Payload
	switch cmd {
	case TypeAdd:
		payload, err = parseAdd(toks)
	case TypeStep:
		payload, err = parseStep(toks)
	case TypePrice:
		payload, err = parsePrice(toks)
	case TypeDelete:
		payload, err = parseDelete(toks)
	case TypeDeleteAll:
		payload = DeleteAll{}
	case TypeMy:
		payload = My{}
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(payload); err != nil {
		return nil, newParseError(InvalidArguments, err.Error())
	}
	return payload, nil
}

func parseAdd(toks tokens) (Payload, error) {
	if err := toks.checkNumbers(); err != nil {
		return nil, err
	}

	subType, err := toks.subscriptionType()
	if err != nil {
		return nil, err
	}

	ticker, err := toks.ticker(false)
	if err != nil {
		return nil, err
	}

	return Add{Ticker: ticker, Type: subType, Prices: toks.prices()}, nil
}

func parseStep(toks tokens) (Payload, error) {
	if err := toks.checkNumbers(); err != nil {
		return nil, err
	}

	subType, err := toks.subscriptionType()
	if err != nil {
		return nil, err
	}

	numbers := toks.prices()
	if len(numbers) != 3 {
		return nil, ErrInvalidStepArguments
	}

	ticker, err := toks.ticker(false)
	if err != nil {
		return nil, err
	}

	from, to, step := numbers[0], numbers[1], numbers[2]
	if !step.IsPositive() {
		return nil, newParseError(InvalidStep, step.String())
	}
	if from.GreaterThan(to) {
		return nil, newParseError(InvalidStep, from.String())
	}
	if _, err := Ladder(from, to, step); err != nil {
		return nil, newParseError(InvalidStep, step.String())
	}

	return Step{Ticker: ticker, Type: subType, From: from, To: to, Step: step}, nil
}

func parsePrice(toks tokens) (Payload, error) {
	ticker, err := toks.ticker(true)
	if err != nil {
		return nil, err
	}
	return Price{Ticker: ticker}, nil
}

func parseDelete(toks tokens) (Payload, error) {
	if err := toks.checkNumbers(); err != nil {
		return nil, err
	}

	ticker, err := toks.ticker(true)
	if err != nil {
		return nil, err
	}

	prices := toks.prices()
	if len(prices) == 0 {
		return Delete{Ticker: ticker, All: true}, nil
	}
	return Delete{Ticker: ticker, Prices: prices}, nil
}
