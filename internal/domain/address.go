package domain

import "github.com/mr-tron/base58"

// pubKeyLen — длина публичного ключа леджера в байтах.
const pubKeyLen = 32

// ValidRecipient проверяет, что адрес декодируется в публичный ключ
// нужной длины. Некорректный адрес блокирует переводы до исправления.
func ValidRecipient(address string) bool {
	raw, err := base58.Decode(address)
	if err != nil {
		return false
	}
	return len(raw) == pubKeyLen
}
