package core

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Confirmation tokens back the two-phase delete protocol: a delete request
// returns a token scoped to its target, and only a follow-up call presenting
// that token performs the deletion. Tokens are HMAC-signed and short-lived;
// no per-target state is kept server-side.

var (
	confirmSalt = []byte("nm2tech.classroom.core.confirm")
	NowFunc     = time.Now // mockable

	// errors
	ErrInvalidConfirmToken = errors.New("invalid confirmation token")
	ErrConfirmTokenExpired = errors.New("confirmation token expired")
)

// MakeConfirmToken generates a confirmation token for the given scope.
// The scope identifies the delete target, eg. "newsletters:<id>" or
// "newsletters:*" for a bulk delete.
func MakeConfirmToken(scope string) (string, error) {
	return makeConfirmTokenWithTimestamp(scope, NowFunc().Unix())
}

// VerifyConfirmToken checks that token was issued for scope and has not
// expired or been tampered with.
func VerifyConfirmToken(scope, token string) error {
	if token == "" {
		return ErrInvalidConfirmToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return ErrInvalidConfirmToken
	}

	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(parts[0])
	if err != nil {
		return ErrInvalidConfirmToken
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return ErrInvalidConfirmToken
	}

	// check that token has not been tampered with
	newToken, err := makeConfirmTokenWithTimestamp(scope, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return ErrInvalidConfirmToken
	}

	// check that the timestamp is within limit
	if NowFunc().Sub(time.Unix(ts, 0)) > Conf.ConfirmTokenTimeout {
		return ErrConfirmTokenExpired
	}
	return nil
}

func makeConfirmTokenWithTimestamp(scope string, ts int64) (string, error) {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.FormatInt(ts, 10)))
	sig, err := signConfirm(hashConfirmValue(scope, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsB32, sig), nil
}

func signConfirm(val []byte) (string, error) {
	key := sha256.Sum256(append(confirmSalt, Conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func hashConfirmValue(scope string, ts int64) []byte {
	var val bytes.Buffer
	val.WriteString(scope)
	val.WriteString(strconv.FormatInt(ts, 10))
	return val.Bytes()
}
