package api

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/validation"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
)

func newTemplateFuncMap() template.FuncMap {
	return template.FuncMap{
		"t":            templateTranslate,
		"formatTime":   formatTemplateTime,
		"fieldError":   templateFieldError,
		"hasError":     templateHasError,
		"stepLabel":    templateStepLabel,
		"toJSON":       templateToJSON,
		"dict":         templateDict,
		"add":          func(a int, b int) int { return a + b },
		"isSelected":   func(current string, option string) bool { return strings.EqualFold(current, option) },
		"noticeClass":  templateNoticeClass,
		"optionLabel":  templateOptionLabel,
		"isActiveStep": func(item wizard.ProgressItem) bool { return item.Status == wizard.StepCurrent },
	}
}

func templateTranslate(messages map[string]string, key string) string {
	return translateMessage(messages, key)
}

func formatTemplateTime(value *time.Time, layout string) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.Format(layout)
}

func templateFieldError(errs validation.FieldErrors, path string) string {
	if errs == nil {
		return ""
	}
	return errs[path]
}

func templateHasError(errs validation.FieldErrors, path string) bool {
	return errs.Has(path)
}

func templateStepLabel(messages map[string]string, step wizard.StepDefinition) string {
	label := translateMessage(messages, step.LabelKey)
	if label == step.LabelKey {
		return step.Label
	}
	return label
}

// templateOptionLabel resolves "<group>.<value>" and falls back to the raw value.
func templateOptionLabel(messages map[string]string, group string, value string) string {
	key := group + "." + value
	label := translateMessage(messages, key)
	if label == key {
		return value
	}
	return label
}

func templateNoticeClass(level wizard.NotifyLevel) string {
	switch level {
	case wizard.NotifySuccess:
		return "status-ok"
	case wizard.NotifyError:
		return "status-error"
	default:
		return "status-info"
	}
}

func templateToJSON(value any) template.JS {
	serialized, err := json.Marshal(value)
	if err != nil {
		return template.JS("null")
	}
	return template.JS(serialized)
}

func templateDict(values ...any) (map[string]any, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("dict requires key-value pairs")
	}
	result := make(map[string]any, len(values)/2)
	for index := 0; index < len(values); index += 2 {
		key, ok := values[index].(string)
		if !ok {
			return nil, fmt.Errorf("dict key at index %d is not a string", index)
		}
		result[key] = values[index+1]
	}
	return result, nil
}
