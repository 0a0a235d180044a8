// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package endpoint

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sparkkit/spark/errorkit"
)

var (
	tagValidator     *validator.Validate
	tagValidatorOnce sync.Once

	reUsername = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	reSlug     = regexp.MustCompile(`^[a-z0-9-]+$`)
)

func initTagValidator() {
	tagValidatorOnce.Do(func() {
		tagValidator = validator.New(validator.WithRequiredStructEnabled())

		// Report field errors under their JSON name, not the Go field name.
		tagValidator.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "-" {
				return ""
			}
			if idx := strings.Index(name, ","); idx != -1 {
				name = name[:idx]
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		_ = tagValidator.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return reUsername.MatchString(fl.Field().String())
		})
		_ = tagValidator.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return reSlug.MatchString(fl.Field().String())
		})
		_ = tagValidator.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) >= 8
		})
	})
}

// Validate runs go-playground/validator struct-tag rules (`validate:"..."`)
// against req and returns an *errorkit.Error carrying a field -> messages
// map on failure (spec §4.4 "the framework runs field-level validation").
func Validate(req any) error {
	initTagValidator()

	err := tagValidator.Struct(req)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if ok := errorsAsInvalid(err, &invalid); ok {
		return errorkit.NewInternalServerError(err)
	}

	fields := map[string][]string{}
	for _, fe := range err.(validator.ValidationErrors) {
		fields[fe.Field()] = append(fields[fe.Field()], validationMessage(fe))
	}
	return errorkit.NewValidationError(fields)
}

func errorsAsInvalid(err error, target **validator.InvalidValidationError) bool {
	if ive, ok := err.(*validator.InvalidValidationError); ok {
		*target = ive
		return true
	}
	return false
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "username":
		return "must be 3-20 alphanumeric characters or underscores"
	case "slug":
		return "must be a lowercase, hyphenated slug"
	case "strong_password":
		return "must be at least 8 characters"
	default:
		return "failed validation: " + fe.Tag()
	}
}
