// Package crypt реализует обратимое XOR-преобразование платёжных данных
// с кодированием результата в base64.
//
// Это обфускация, а не криптографическая защита: преобразование обратимо
// любым, кто знает ключ, и не обеспечивает ни конфиденциальности, ни
// целостности. Ключ обязателен к замене вне демо-окружения.
package crypt

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrEmptyKey возвращается при попытке шифрования или расшифровки с пустым ключом.
var ErrEmptyKey = errors.New("encryption key is empty")

// Encrypt преобразует открытый текст XOR-ом с циклически повторяемым ключом
// и возвращает результат в base64.
func Encrypt(plaintext, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	data := []byte(plaintext)
	keyBytes := []byte(key)

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ keyBytes[i%len(keyBytes)]
	}

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt раскодирует base64 и обращает XOR-преобразование. Ошибка
// возвращается при пустом ключе или некорректном base64; повреждение
// шифротекста внутри корректного base64 обнаружить невозможно.
func Decrypt(ciphertext, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	keyBytes := []byte(key)

	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ keyBytes[i%len(keyBytes)]
	}

	return string(out), nil
}
