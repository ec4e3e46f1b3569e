package validation

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/practicelog/internal/pkg/helpers"
)

// Binding tags registered by Register
const (
	TagMediaURL     = "mediaurl"
	TagCalendarDate = "calendardate"
	TagMemberName   = "membername"
)

// Validation rule limits
var (
	// Name validation max length, counted in characters
	NameMaxLength = 100

	// Relative media URLs must live under the upload prefix
	UploadPathPrefix = "/uploads/"
)

// StringValidation checks one string value
type StringValidation struct {
	Value    string
	MaxLen   int
	Required bool
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMaxLength sets maximum length in characters
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	value := strings.TrimSpace(v.Value)
	if value == "" {
		return !v.Required
	}
	if v.MaxLen > 0 && utf8.RuneCountInString(value) > v.MaxLen {
		return false
	}
	return true
}

// IsMemberName reports whether s can name a member
func IsMemberName(s string) bool {
	return NewStringValidation(s).WithMaxLength(NameMaxLength).Validate()
}

// IsMediaURL accepts absolute http(s) URLs and upload paths
func IsMediaURL(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, UploadPathPrefix) && len(s) > len(UploadPathPrefix) {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsCalendarDate accepts YYYY-MM-DD or RFC 3339 timestamps
func IsCalendarDate(s string) bool {
	_, ok := helpers.ParseDate(s)
	return ok
}

// Register adds the custom tags to v
func Register(v *validator.Validate) error {
	rules := map[string]func(string) bool{
		TagMediaURL:     IsMediaURL,
		TagCalendarDate: IsCalendarDate,
		TagMemberName:   IsMemberName,
	}
	for tag, check := range rules {
		check := check
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterBindingRules installs the custom tags on gin's default validator
func RegisterBindingRules() error {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding validator is not go-playground/validator")
			return
		}
		registerErr = Register(engine)
	})
	return registerErr
}
