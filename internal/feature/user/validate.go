package user

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"saas-api/internal/core/credential"
)

var messages = map[string]string{
	"tenant_id.uuid":    "tenant_id must be a valid UUID",
	"tenant_id.exists":  "the referenced organization does not exist",
	"role.in":           "role must be one of SUPER_ADMIN, ORG_ADMIN, MEMBER",
	"name.required":     "name is required",
	"name.max":          "name may not be greater than 150 characters",
	"email.required":    "email is required",
	"email.email":       "email must be a valid email address",
	"email.max":         "email may not be greater than 180 characters",
	"email.unique":      "email has already been taken",
	"password.required": "password is required",
	"password.min":      "password must be at least 6 characters",
	"password.max":      "password may not be greater than 72 characters",
	"tenant_id.string":  "tenant_id must be a string",
	"role.string":       "role must be a string",
	"name.string":       "name must be a string",
	"email.string":      "email must be a string",
	"password.string":   "password must be a string",
}

type rejection map[string][]Violation

func (r rejection) add(field, rule string) {
	msg, ok := messages[field+"."+rule]
	if !ok {
		msg = field + " is invalid"
	}
	r[field] = append(r[field], Violation{Rule: rule, Message: msg})
}

func (r rejection) has(field string) bool { return len(r[field]) > 0 }

func (r rejection) err() error {
	if len(r) == 0 {
		return nil
	}
	return &ValidationRejected{Violations: r}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误里的字段名用 json tag
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkSyntax 跑所有不依赖存储的规则，结果全部收集
func (r *Registry) checkSyntax(in *CreateUserInput, rej rejection) {
	if err := r.validate.Struct(in); err != nil {
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			rej.add("input", "invalid")
			return
		}
		for _, fe := range ves {
			rej.add(fe.Field(), fe.Tag())
		}
	}

	if in.Role != nil {
		if _, ok := parseRole(*in.Role); !ok {
			rej.add("role", "in")
		}
	}

	switch err := credential.CheckSecret(in.Password); {
	case errors.Is(err, credential.ErrSecretEmpty):
		rej.add("password", "required")
	case errors.Is(err, credential.ErrSecretTooShort):
		rej.add("password", "min")
	case errors.Is(err, credential.ErrSecretTooLong):
		rej.add("password", "max")
	}

	// 类型错误的字段只报 string，零值触发的其它规则作废
	for _, f := range in.notString {
		delete(rej, f)
		rej.add(f, "string")
	}
}
