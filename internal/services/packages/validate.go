package packages

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/BearBump/ParcelPortal/internal/apperr"
	"github.com/BearBump/ParcelPortal/internal/models"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("lifecycle", func(fl validator.FieldLevel) bool {
		_, ok := models.CanonicalStatus(fl.Field().String())
		return ok
	})
	return v
}

// checkStruct turns validator failures into an *apperr.ValidationError
// naming the offending json fields in declaration order.
func checkStruct(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate input")
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return &apperr.ValidationError{Fields: fields}
}

func trimCreate(in models.PackageCreateInput) models.PackageCreateInput {
	in.SenderName = strings.TrimSpace(in.SenderName)
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.RecipientAddress = strings.TrimSpace(in.RecipientAddress)
	in.CurrentLocation = strings.TrimSpace(in.CurrentLocation)
	in.Destination = strings.TrimSpace(in.Destination)
	in.EstimatedDelivery = strings.TrimSpace(in.EstimatedDelivery)
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.Status = strings.TrimSpace(in.Status)
	in.RecipientEmail = trimOptional(in.RecipientEmail)
	in.RecipientPhone = trimOptional(in.RecipientPhone)
	in.Weight = trimOptional(in.Weight)
	in.Dimensions = trimOptional(in.Dimensions)
	return in
}

func trimUpdate(upd models.PackageUpdate) models.PackageUpdate {
	upd.Status = trimSupplied(upd.Status)
	upd.CurrentLocation = trimSupplied(upd.CurrentLocation)
	upd.EstimatedDelivery = trimSupplied(upd.EstimatedDelivery)
	return upd
}

// trimOptional drops values that are blank after trimming.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// trimSupplied keeps blank values so validation can reject them.
func trimSupplied(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
