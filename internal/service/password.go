package service

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/jstarsky/app-marvel-backend/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// Политика паролей собрана из независимых валидаторов, применяемых по
// порядку с накоплением всех нарушений (collect-all): клиент получает
// полный список проблем за один запрос.

//go:embed common_passwords.txt
var commonPasswordsRaw string

var commonPasswords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(commonPasswordsRaw, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}()

// passwordValidator — одна проверка политики.
// Возвращает стабильный машиночитаемый код нарушения или "".
type passwordValidator interface {
	validate(password, username string) string
}

type minLengthValidator struct{ min int }

func (v minLengthValidator) validate(password, _ string) string {
	if len([]rune(password)) < v.min {
		return "password_too_short"
	}

	return ""
}

type maxLengthValidator struct{ max int }

func (v maxLengthValidator) validate(password, _ string) string {
	if v.max > 0 && len([]rune(password)) > v.max {
		return "password_too_long"
	}

	return ""
}

// similarityValidator отклоняет пароли, слишком похожие на имя пользователя:
// взаимное вхождение подстрокой либо LCS-коэффициент сходства >= threshold.
type similarityValidator struct{ threshold float64 }

func (v similarityValidator) validate(password, username string) string {
	if username == "" {
		return ""
	}

	pw := strings.ToLower(password)
	un := strings.ToLower(username)

	if strings.Contains(pw, un) || strings.Contains(un, pw) {
		return "password_too_similar"
	}

	if lcsRatio(pw, un) >= v.threshold {
		return "password_too_similar"
	}

	return ""
}

type commonPasswordValidator struct{}

func (commonPasswordValidator) validate(password, _ string) string {
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return "password_too_common"
	}

	return ""
}

type numericValidator struct{}

func (numericValidator) validate(password, _ string) string {
	if password == "" {
		return ""
	}

	for _, r := range password {
		if !unicode.IsDigit(r) {
			return ""
		}
	}

	return "password_entirely_numeric"
}

// newPasswordPolicy собирает цепочку валидаторов из конфигурации.
func newPasswordPolicy(cfg config.PasswordConfig) []passwordValidator {
	return []passwordValidator{
		minLengthValidator{min: cfg.MinLength},
		maxLengthValidator{max: cfg.MaxLength},
		similarityValidator{threshold: 0.7},
		commonPasswordValidator{},
		numericValidator{},
	}
}

// validateNewPassword прогоняет пароль через всю цепочку и возвращает
// коды всех нарушений.
func (s *Service) validateNewPassword(password, username string) []string {
	var codes []string
	for _, v := range s.validators {
		if code := v.validate(password, username); code != "" {
			codes = append(codes, code)
		}
	}

	return codes
}

// lcsRatio — коэффициент сходства двух строк: 2*LCS/(len(a)+len(b)).
// Приближение difflib-ratio, достаточное для проверки "похож на логин".
func lcsRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.password.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
