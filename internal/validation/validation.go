// validation — проверка форм до отправки запроса в CMS (ошибки вида «валидация»).
// Правила описаны тегами validate на моделях форм; здесь — валидатор,
// кастомные правила и перевод ошибок в сообщения UI.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid — форма не прошла валидацию; детали — в *FieldErrors.
var ErrInvalid = errors.New("validation failed")

// FieldErrors — сообщения по полям формы (ключ — json-имя поля).
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Is(target error) bool { return target == ErrInvalid }

// AsFields — извлечь FieldErrors из цепочки ошибок.
func AsFields(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}

	return nil, false
}

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validate потокобезопасен и кэширует разбор тегов по типам.
// min/max для строк validator считает в рунах.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// notblank — не пусто после TrimSpace.
	must(v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}))
	// username — [a-zA-Z0-9_]+.
	must(v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// messages — текст для пары "поле.тег"; для неописанных пар — общий текст.
type messages map[string]string

// check прогоняет форму через валидатор. На каждое поле — первое нарушенное
// правило (validator останавливается на нём сам).
func check(form any, msgs messages) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate %T: %w", form, err)
	}

	fe := make(FieldErrors, len(ves))
	for _, e := range ves {
		msg, ok := msgs[e.Field()+"."+e.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", e.Field())
		}
		fe[e.Field()] = msg
	}

	return fe
}
