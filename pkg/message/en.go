package message

import (
	"fmt"
	"strings"
)

var en = Texts{
	WelcomeNew:    func() string { return "Welcome" },
	WelcomeBack:   func() string { return "Welcome back" },
	LocaleChanged: func() string { return "Language changed" },
	Help: func() string {
		return `Command examples:

*ADD CROSSING GAZP 100 105*
add subscription for GAZP at prices 100 and 105, notifications will come when crossing adjacent levels

*STEP ALWAYS GAZP 100 200 5*
add a subscription for GAZP from 100 to 200 with a step of 5, notifications will come each time

*DELETE GAZP 100*
remove a subscription for GAZP at a price of 100

*DELETE GAZP*
remove all subscriptions for GAZP

*DELETE_ALL*
remove all my subscriptions

*PRICE GAZP*
get the current price for GAZP

*MY*
list of my subscriptions

*/lang ru*
change the language

*/help*
get command help`
	},
	ParseError: func(owner string) string {
		return fmt.Sprintf("Error. Contact the [bot owner](https://t.me/%s)", owner)
	},
	InstrumentNotFound: func() string {
		return "Instrument not found. Possibly it's not in the system yet. " +
			"Try creating a subscription for it - then we will try to find it."
	},
	PriceNotFound: func(ticker string) string {
		return fmt.Sprintf("The price of %s is not known yet", ticker)
	},
	Added: func(prices []string) string {
		return "OK: " + strings.Join(prices, ", ")
	},
	Duplicates: func(prices []string) string {
		return "ERROR: " + strings.Join(prices, ", ")
	},
	NoPrices: func() string { return "No price levels given" },
	Deleted: func(count int) string {
		return fmt.Sprintf("Removed %d subscriptions", count)
	},
	Price: func(ticker, price string) string {
		return fmt.Sprintf("Price %s = %s", ticker, price)
	},
	NoSubscriptions: func() string { return "You have no active subscriptions" },
	Notification: func(ticker, current, level, arrow string) string {
		return fmt.Sprintf("The price of %s is %s\n%s Subscription triggered at %s", ticker, current, arrow, level)
	},
}
