package wizard

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wareflow/wareflow-backend/internal/export/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateHeader checks the fields required to leave the Info step. The
// destination field required depends on the export type; WASTE needs none.
func ValidateHeader(h domain.ExportHeader) error {
	fields := map[string]string{}

	if err := validate.Struct(h); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fe.Field()] = headerMessage(fe)
		}
	}

	if h.Type == domain.ExportTypeWarehouse && h.WarehouseIDTo != "" && h.WarehouseIDTo == h.WarehouseIDFrom {
		fields["warehouse_id_to"] = "must differ from the source warehouse"
	}

	if len(fields) > 0 {
		return &domain.HeaderError{Fields: fields}
	}
	return nil
}

func headerMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for this export type"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
