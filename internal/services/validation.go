package services

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/yungbote/saarthak-backend/internal/domain/contact"
	"github.com/yungbote/saarthak-backend/internal/platform/apierr"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// inputValidator reports fields by their JSON names and knows the
// election_type rule.
func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("election_type", func(fl validator.FieldLevel) bool {
			_, err := contact.ParseElectionType(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// fieldMessages maps "field.tag" to the message shown to the user. Unlisted
// failures fall back to "field.*" and then to a generic message.
type fieldMessages map[string]string

func validateInput(in any, msgs fieldMessages) error {
	err := inputValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := apierr.FieldErrors{}
	for _, fe := range verrs {
		name := fe.Field()
		if _, seen := fields[name]; seen {
			continue
		}
		msg, ok := msgs[name+"."+fe.Tag()]
		if !ok {
			msg, ok = msgs[name+".*"]
		}
		if !ok {
			msg = "Invalid " + strings.ReplaceAll(name, "_", " ")
		}
		fields[name] = msg
	}
	return apierr.Validation(fields)
}
