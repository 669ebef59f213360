// Package iocli абстрагирует терминальный ввод-вывод команд клиента,
// чтобы команды можно было тестировать без реального терминала.
package iocli

//go:generate moq -out io_mock.go . IO

// IO - терминальный ввод-вывод команды
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)

	// ReadInput читает строку (без завершающего перевода строки)
	ReadInput(prompt string) (string, error)

	// ReadPassword читает секрет без эха в терминал
	ReadPassword(prompt string) (string, error)
}
