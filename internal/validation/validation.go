// Package validation checks operation inputs and reports the first violated rule.
package validation

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// Platforms accepted for social links.
var Platforms = []string{
	"instagram", "tiktok", "youtube", "x", "twitter", "facebook", "linkedin",
	"github", "twitch", "spotify", "soundcloud", "pinterest", "snapchat",
	"discord", "telegram", "whatsapp", "threads", "email", "website",
}

// Validator wraps a configured validator.Validate.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(strings.ToLower(fl.Field().String()))
	})
	_ = v.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		for _, known := range Platforms {
			if p == known {
				return true
			}
		}
		return false
	})
	_ = v.RegisterValidation("link_url", func(fl validator.FieldLevel) bool {
		return isLinkURL(fl.Field().String())
	})
	// optional_* accept "" so a patch can clear the field.
	_ = v.RegisterValidation("optional_url", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || isHTTPURL(s)
	})
	_ = v.RegisterValidation("optional_uuid", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || uuid.Validate(s) == nil
	})
	return &Validator{v: v}
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

func isLinkURL(s string) bool {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return len(s) > strings.Index(s, ":")+1
	}
	return isHTTPURL(s)
}

// Struct validates s and returns the first violation as a user-facing message.
// It returns "" when s is valid.
func (val *Validator) Struct(s any) string {
	if err := val.v.Struct(s); err != nil {
		return First(err)
	}
	return ""
}

// First turns a validator error into the message for its first failed field.
func First(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid input."
	}
	fe := verrs[0]
	field := label(fe.Field())
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return field + " is required."
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must contain at least " + param + " items."
		}
		return field + " must be at least " + param + " characters."
	case "max":
		if fe.Kind() == reflect.Slice {
			return field + " must contain at most " + param + " items."
		}
		return field + " must be at most " + param + " characters."
	case "email":
		return "Please enter a valid email address."
	case "http_url", "url", "link_url", "optional_url":
		return field + " must be a valid URL."
	case "uuid", "uuid4", "optional_uuid":
		return field + " is not a valid ID."
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(param, " ", ", ") + "."
	case "username":
		return "Username must be 3-30 characters of letters, numbers, underscores or dots."
	case "platform":
		return "Unsupported social platform."
	case "hexcolor":
		return field + " must be a hex color."
	case "fqdn":
		return "Please enter a valid domain name."
	case "unique":
		return field + " must not contain duplicates."
	default:
		return field + " is invalid."
	}
}

var acronyms = map[string]string{"url": "URL", "id": "ID", "ids": "IDs"}

// label turns a json field name like "avatar_url" into "Avatar URL".
func label(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if a, ok := acronyms[w]; ok {
			words[i] = a
		} else if i == 0 && w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizeURL trims s and prepends https:// when no scheme is present, so
// bare domains typed by users validate and persist as absolute URLs.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	if schemePrefix.MatchString(s) || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
		return s
	}
	return "https://" + s
}

// NormalizeURLPtr applies NormalizeURL to an optional field in place.
func NormalizeURLPtr(s *string) {
	if s != nil {
		*s = NormalizeURL(*s)
	}
}
