package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var ErrValidationFailed = errors.New("validation failed")

// Rule is one row of a rule table: the constraints of a field and the
// messages shown when they fail.
type Rule struct {
	Constraints string
	Message     string
	Messages    map[string]string
}

type TypeRules struct {
	Sample any
	Fields map[string]Rule
}

// Refinement is a cross-field check run on a whole struct.
type Refinement struct {
	Sample any
	Check  validator.StructLevelFunc
}

type Table struct {
	Name        string
	Types       []TypeRules
	Refinements []Refinement
}

// FieldErrors maps a json field path such as "address.zip" to one message.
type FieldErrors map[string]string

func (errs FieldErrors) Error() string {
	paths := errs.Paths()
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, fmt.Sprintf("%s: %s", path, errs[path]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (errs FieldErrors) Unwrap() error {
	return ErrValidationFailed
}

func (errs FieldErrors) Paths() []string {
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (errs FieldErrors) Has(path string) bool {
	_, ok := errs[path]
	return ok
}

// Engine interprets rule tables with one shared validator instance.
type Engine struct {
	validate *validator.Validate
	rules    map[reflect.Type]map[string]Rule
}

func NewEngine(tables ...Table) (*Engine, error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	if err := registerCustomValidators(validate); err != nil {
		return nil, err
	}

	engine := &Engine{
		validate: validate,
		rules:    make(map[reflect.Type]map[string]Rule),
	}
	for _, table := range tables {
		if err := engine.register(table); err != nil {
			return nil, fmt.Errorf("register %s rules: %w", table.Name, err)
		}
	}
	return engine, nil
}

var (
	defaultEngine     *Engine
	defaultEngineErr  error
	defaultEngineOnce sync.Once
)

// Default returns the engine loaded with every wizard and auth table.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine, defaultEngineErr = NewEngine(AllTables()...)
	})
	if defaultEngineErr != nil {
		panic(defaultEngineErr)
	}
	return defaultEngine
}

func (engine *Engine) register(table Table) error {
	for _, typeRules := range table.Types {
		sampleType := indirectType(reflect.TypeOf(typeRules.Sample))
		if sampleType == nil || sampleType.Kind() != reflect.Struct {
			return fmt.Errorf("rule sample %T is not a struct", typeRules.Sample)
		}

		constraints := make(map[string]string, len(typeRules.Fields))
		for fieldName, rule := range typeRules.Fields {
			if _, ok := sampleType.FieldByName(fieldName); !ok {
				return fmt.Errorf("%s has no field %s", sampleType.Name(), fieldName)
			}
			if strings.TrimSpace(rule.Constraints) != "" {
				constraints[fieldName] = rule.Constraints
			}
		}
		if len(constraints) > 0 {
			engine.validate.RegisterStructValidationMapRules(constraints, reflect.New(sampleType).Elem().Interface())
		}

		merged := engine.rules[sampleType]
		if merged == nil {
			merged = make(map[string]Rule, len(typeRules.Fields))
		}
		for fieldName, rule := range typeRules.Fields {
			merged[fieldName] = rule
		}
		engine.rules[sampleType] = merged
	}

	for _, refinement := range table.Refinements {
		engine.validate.RegisterStructValidation(refinement.Check, refinement.Sample)
	}
	return nil
}

// Validate runs the registered rules for the value's type and returns nil
// when every field passes.
func (engine *Engine) Validate(value any) FieldErrors {
	if value == nil {
		return nil
	}
	err := engine.validate.Struct(value)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return FieldErrors{"": err.Error()}
	}

	rootType := indirectType(reflect.TypeOf(value))
	result := make(FieldErrors, len(validationErrors))
	for _, fieldErr := range validationErrors {
		path := fieldPath(fieldErr.Namespace())
		if _, exists := result[path]; exists {
			continue
		}
		result[path] = engine.message(rootType, fieldErr)
	}
	return result
}

func (engine *Engine) message(rootType reflect.Type, fieldErr validator.FieldError) string {
	parentType := owningType(rootType, fieldErr.StructNamespace())
	if parentType != nil {
		if rule, ok := engine.rules[parentType][fieldErr.StructField()]; ok {
			if message, ok := rule.Messages[fieldErr.Tag()]; ok {
				return message
			}
			if rule.Message != "" {
				return rule.Message
			}
		}
	}
	return defaultMessage(fieldErr.Tag(), fieldErr.Param())
}

// owningType walks a struct namespace like "Draft.Items[2].Name" down to
// the struct type that declares the last field.
func owningType(rootType reflect.Type, structNamespace string) reflect.Type {
	segments := strings.Split(structNamespace, ".")
	if len(segments) < 2 {
		return rootType
	}

	current := rootType
	for _, segment := range segments[1 : len(segments)-1] {
		if current == nil || current.Kind() != reflect.Struct {
			return nil
		}
		name, _, _ := strings.Cut(segment, "[")
		field, ok := current.FieldByName(name)
		if !ok {
			return nil
		}
		current = elementType(field.Type)
	}
	return current
}

func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	rest = strings.ReplaceAll(rest, "[", ".")
	return strings.ReplaceAll(rest, "]", "")
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func indirectType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}

func elementType(typ reflect.Type) reflect.Type {
	typ = indirectType(typ)
	for typ != nil && (typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array) {
		typ = indirectType(typ.Elem())
	}
	return typ
}

func defaultMessage(tag string, param string) string {
	switch tag {
	case "required", "required_when_enabled":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("Must be at most %s characters", param)
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", param)
	case "email":
		return "Invalid email address"
	case "oneof":
		return "Choose one of the listed options"
	case "eqfield":
		return "Values do not match"
	case "numeric":
		return "Only digits are allowed"
	case zipTag:
		return "ZIP code must be 5 digits"
	case phoneTag:
		return "Enter a valid phone number"
	case websiteTag:
		return "Enter a valid website address"
	default:
		return "Invalid value"
	}
}
