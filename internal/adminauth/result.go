package adminauth

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnrecognizedResult — ответ логина не удалось разобрать ни как тегированный,
// ни как нетегированный Result.
var ErrUnrecognizedResult = errors.New("unrecognized auth result shape")

// AuthResult — каноничный результат логина: либо непустой токен, либо текст
// ошибки. Ровно одно из полей заполнено.
type AuthResult struct {
	Token string
	Err   string
}

// DecodeAuthResult нормализует ответ логина. Бэкенд исторически отдаёт две
// формы: тегированную {"kind":"ok","ok":token} / {"kind":"err","err":msg}
// и нетегированную {"ok":token} / {"err":msg}. Разбор происходит здесь,
// на границе, дальше бизнес-логика видит только AuthResult.
func DecodeAuthResult(raw []byte) (AuthResult, error) {
	var probe struct {
		Kind *string `json:"kind"`
		Ok   *string `json:"ok"`
		Err  *string `json:"err"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return AuthResult{}, fmt.Errorf("%w: %v", ErrUnrecognizedResult, err)
	}

	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	if probe.Kind != nil {
		switch *probe.Kind {
		case "ok":
			return AuthResult{Token: str(probe.Ok)}, nil
		case "err":
			return AuthResult{Err: str(probe.Err)}, nil
		default:
			return AuthResult{}, fmt.Errorf("%w: kind=%q", ErrUnrecognizedResult, *probe.Kind)
		}
	}

	// Нетегированный вариант: наличие err важнее наличия ok.
	if probe.Err != nil {
		return AuthResult{Err: str(probe.Err)}, nil
	}
	if probe.Ok != nil {
		return AuthResult{Token: str(probe.Ok)}, nil
	}
	return AuthResult{}, ErrUnrecognizedResult
}
