package wizard

import (
	"math"
	"reflect"
	"strings"
	"unicode/utf8"
)

// MinDescriptionLength - минимальная длина описания в символах.
const MinDescriptionLength = 100

// ValidationErrors - поле -> сообщение. Пустой набор означает, что шаг валиден.
type ValidationErrors map[string]string

func (v ValidationErrors) Valid() bool { return len(v) == 0 }

func (v ValidationErrors) clone() ValidationErrors {
	if len(v) == 0 {
		return ValidationErrors{}
	}
	out := make(ValidationErrors, len(v))
	for k, msg := range v {
		out[k] = msg
	}
	return out
}

// ValidateStep проверяет черновик по правилам шага. Чистая функция.
func ValidateStep(d Draft, step Step) ValidationErrors {
	errs := ValidationErrors{}
	if !step.Valid() {
		return errs
	}
	if validate := stepTable[step-1].validate; validate != nil {
		validate(d, errs)
	}
	return errs
}

func validateBasicInfo(d Draft, errs ValidationErrors) {
	requireText(d, errs, FieldName, "Tool name is required")
	requireText(d, errs, FieldTagline, "Tagline is required")
	requireText(d, errs, FieldWebsite, "Website URL is required")
	requireText(d, errs, FieldCategory, "Category is required")
	requireText(d, errs, FieldDescription, "Description is required")
	// Длина считается по необрезанному тексту и перекрывает сообщение об отсутствии.
	if utf8.RuneCountInString(d.String(FieldDescription)) < MinDescriptionLength {
		errs[FieldDescription] = "Description must be at least 100 characters"
	}
	requireText(d, errs, FieldLogo, "Logo is required")
}

func validateFeatures(d Draft, errs ValidationErrors) {
	if listLen(d[FieldFeatures]) == 0 {
		errs[FieldFeatures] = "Please select at least one feature"
	}
}

func validatePricing(d Draft, errs ValidationErrors) {
	requireText(d, errs, FieldPricingModel, "Please select a pricing model")
	if strings.TrimSpace(d.String(FieldPricingModel)) != PricingModelFree && listLen(d[FieldPricingTiers]) == 0 {
		errs[FieldPricingTiers] = "Please configure at least one pricing tier"
	}
}

func validateScreenshots(d Draft, errs ValidationErrors) {
	if listLen(d[FieldScreenshots]) == 0 {
		errs[FieldScreenshots] = "Please upload at least one screenshot"
	}
}

func validateContact(d Draft, errs ValidationErrors) {
	requireText(d, errs, FieldContactName, "Contact name is required")
	requireText(d, errs, FieldContactEmail, "Contact email is required")
	if agreed, _ := d[FieldAgreeToTerms].(bool); !agreed {
		errs[FieldAgreeToTerms] = "You must agree to the terms"
	}
}

func requireText(d Draft, errs ValidationErrors, field, msg string) {
	if isBlank(d[field]) {
		errs[field] = msg
	}
}

// isBlank считает пустыми nil, строку из пробелов, false и нулевые числа.
func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case bool:
		return !t
	case float64:
		return t == 0 || math.IsNaN(t)
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32:
		return rv.IsZero()
	}
	return false
}

func listLen(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len()
	}
	return 0
}
