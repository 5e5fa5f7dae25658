package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Ошибки проверки initData.
var (
	ErrInvalidInitData = errors.New("invalid init data signature")
	ErrExpiredInitData = errors.New("init data is too old")
)

// WebAppUser — пользователь из поля user initData мини-приложения.
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// InitData — проверенные данные авторизации мини-приложения.
type InitData struct {
	User     WebAppUser
	AuthDate time.Time
}

// VerifyInitData проверяет подпись initData по алгоритму Telegram WebApp:
// secret = HMAC-SHA256(botToken, "WebAppData"),
// hash = hex(HMAC-SHA256(data_check_string, secret)).
// maxAge ограничивает возраст auth_date; 0 отключает проверку.
func VerifyInitData(initData, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	const op = "telegram.VerifyInitData"

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInitData)
	}
	values.Del("hash")

	pairs := make([]string, 0, len(values))
	for key := range values {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	expectedHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedHash), []byte(gotHash)) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInitData)
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, fmt.Errorf("%s: %w", op, ErrExpiredInitData)
	}

	var user WebAppUser
	if raw := values.Get("user"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidInitData)
	}

	return &InitData{User: user, AuthDate: authDate}, nil
}
