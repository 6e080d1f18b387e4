// Package forms parses and validates the modality forms before they are sent to the API.
package forms

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/danceschool/portal/internal/ui/types"
	"github.com/danceschool/portal/internal/utils"
	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed modality.schema.json
var modalitySchemaJSON []byte

const modalitySchemaURL = "modality.schema.json"

// schema errors are reported in English, the form labels are English
var errorPrinter = message.NewPrinter(language.English)

var modalitySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(modalitySchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("modality schema is not valid JSON: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(modalitySchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add modality schema: %w", err)
	}

	schema, err := c.Compile(modalitySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON Schema format: %w", err)
	}
	return schema, nil
})

// FieldError is a problem with one form field
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors lists every problem found in a form
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		if fe.Field == "" {
			parts = append(parts, fe.Message)
			continue
		}
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// ParseModalityForm reads a submitted modality form.
// The slug is generated from the name when the form does not supply one.
func ParseModalityForm(r *http.Request) (types.ModalityRequest, error) {
	if err := r.ParseForm(); err != nil {
		return types.ModalityRequest{}, fmt.Errorf("could not read form: %w", err)
	}

	var errs ValidationErrors

	req := types.ModalityRequest{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Slug:        strings.TrimSpace(r.PostFormValue("slug")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Level:       r.PostFormValue("level"),
	}

	if req.Slug == "" && req.Name != "" {
		slug, err := utils.GenerateSlug(req.Name)
		if err != nil {
			errs = append(errs, FieldError{Field: "name", Message: "must contain letters or digits"})
		}
		req.Slug = slug
	}

	// accept both "180.50" and "180,50"
	fee := strings.Replace(strings.TrimSpace(r.PostFormValue("monthly_fee")), ",", ".", 1)
	// ParseFloat accepts "NaN" and "Inf", neither can be sent as JSON
	if v, err := strconv.ParseFloat(fee, 64); err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs = append(errs, FieldError{Field: "monthly_fee", Message: "must be a number"})
	} else {
		req.MonthlyFee = v
	}

	if v, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("capacity"))); err != nil {
		errs = append(errs, FieldError{Field: "capacity", Message: "must be a whole number"})
	} else {
		req.Capacity = v
	}

	if id := strings.TrimSpace(r.PostFormValue("instructor_id")); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			errs = append(errs, FieldError{Field: "instructor_id", Message: "must be a valid UUID"})
		} else {
			req.InstructorID = parsed.String()
		}
	}

	if len(errs) > 0 {
		return req, errs
	}

	return req, ValidateModality(req)
}

// ValidateModality checks a modality request against the embedded JSON schema.
// It returns ValidationErrors when the request does not conform.
func ValidateModality(req types.ModalityRequest) error {
	schema, err := modalitySchema()
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal modality: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to unmarshal modality: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return fieldErrors(ve)
}

// fieldErrors flattens the leaf causes of a validation error, one entry per field
func fieldErrors(ve *jsonschema.ValidationError) ValidationErrors {
	seen := map[string]bool{}
	var errs ValidationErrors

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) > 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		field := strings.Join(e.InstanceLocation, "/")
		if seen[field] {
			return
		}
		seen[field] = true
		errs = append(errs, FieldError{Field: field, Message: e.ErrorKind.LocalizedString(errorPrinter)})
	}
	walk(ve)

	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}
