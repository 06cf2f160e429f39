package message

import (
	"fmt"
	"strings"
)

var ru = Texts{
	WelcomeNew:    func() string { return "Добро пожаловать" },
	WelcomeBack:   func() string { return "С возвращением" },
	LocaleChanged: func() string { return "Язык изменен" },
	Help: func() string {
		return `Примеры команд:

*ADD CROSSING GAZP 100 105*
добавить подписку на GAZP на цены 100 и 105, уведомления будут приходить при пересечении соседних уровней

*STEP ALWAYS GAZP 100 200 5*
добавить подписку на GAZP от 100 до 200 с шагом 5, уведомления будут приходить каждый раз

*DELETE GAZP 100*
удалить подписку на GAZP на цену 100

*DELETE GAZP*
удалить все подписки на GAZP

*DELETE_ALL*
удалить все мои подписки

*PRICE GAZP*
получить текущую цену GAZP

*MY*
список моих подписок

*/lang en*
сменить язык

*/help*
получить справку о командах`
	},
	ParseError: func(owner string) string {
		return fmt.Sprintf("Ошибка. Свяжитесь с [владельцем бота](https://t.me/%s)", owner)
	},
	InstrumentNotFound: func() string {
		return "Инструмент не найден. Возможно, его еще нет в системе. " +
			"Попробуйте создать подписку на него - тогда мы попытаемся его найти."
	},
	PriceNotFound: func(ticker string) string {
		return fmt.Sprintf("Цена %s пока неизвестна", ticker)
	},
	Added: func(prices []string) string {
		return "Успешно добавлено: " + strings.Join(prices, ", ")
	},
	Duplicates: func(prices []string) string {
		return "Ошибка (уже существовали): " + strings.Join(prices, ", ")
	},
	NoPrices: func() string { return "Не указаны уровни цен" },
	Deleted: func(count int) string {
		return fmt.Sprintf("Удалено %d подписок", count)
	},
	Price: func(ticker, price string) string {
		return fmt.Sprintf("Цена %s = %s", ticker, price)
	},
	NoSubscriptions: func() string { return "У вас нет активных подписок" },
	Notification: func(ticker, current, level, arrow string) string {
		return fmt.Sprintf("Цена на %s составляет %s\n%s Сработала подписка на %s", ticker, current, arrow, level)
	},
}
