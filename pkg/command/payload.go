package command

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/raykavin/pricealert/pkg/core"
)

// Type is a command keyword
type Type string

const (
	TypeAdd       Type = "ADD"
	TypeStep      Type = "STEP"
	TypePrice     Type = "PRICE"
	TypeDelete    Type = "DELETE"
	TypeDeleteAll Type = "DELETE_ALL"
	TypeMy        Type = "MY"
)

// Types lists every command keyword
var Types = []Type{TypeAdd, TypeStep, TypePrice, TypeDelete, TypeDeleteAll, TypeMy}

// Payload is the structured form of a parsed command. The set of payloads is
// closed: Add, Step, Price, Delete, DeleteAll and My.
type Payload interface {
	Command() Type
}

// Add subscribes to one or more price levels
type Add struct {
	Ticker string                `validate:"required,uppercase,max=32"`
	Type   core.SubscriptionType `validate:"oneof=ALWAYS ONETIME CROSSING"`
	Prices []decimal.Decimal
}

// Step subscribes to every level of the ladder From, From+Step, ..., To
type Step struct {
	Ticker string                `validate:"required,uppercase,max=32"`
	Type   core.SubscriptionType `validate:"oneof=ALWAYS ONETIME CROSSING"`
	From   decimal.Decimal
	To     decimal.Decimal
	Step   decimal.Decimal `validate:"gt=0"`
}

// Price asks for the last known price of an instrument
type Price struct {
	Ticker string `validate:"required,uppercase,max=32"`
}

// Delete removes subscriptions of one instrument. All is set when no price
// was given, in which case every subscription of the instrument is removed.
type Delete struct {
	Ticker string `validate:"required,uppercase,max=32"`
	Prices []decimal.Decimal
	All    bool
}

// DeleteAll removes every subscription of the user
type DeleteAll struct{}

// My lists the active subscriptions of the user
type My struct{}

func (Add) Command() Type       { return TypeAdd }
func (Step) Command() Type      { return TypeStep }
func (Price) Command() Type     { return TypePrice }
func (Delete) Command() Type    { return TypeDelete }
func (DeleteAll) Command() Type { return TypeDeleteAll }
func (My) Command() Type        { return TypeMy }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks the field constraints of a payload
func Validate(p Payload) error {
	switch p.(type) {
	case DeleteAll, My:
		return nil
	}
	return validate.Struct(p)
}
