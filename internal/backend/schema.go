package backend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// submissionSchema is the contract of POST /onboarding/submit. Field level
// rules live in the wizard; this guards the payload shape.
const submissionSchema = `{
  "type": "object",
  "required": ["businessProfile", "voiceAgentConfig", "collectionFields", "emailConfig"],
  "properties": {
    "businessProfile": {
      "type": "object",
      "required": ["businessName", "industry", "phone", "email", "address"],
      "properties": {
        "businessName": {"type": "string", "minLength": 2},
        "industry": {"type": "string", "minLength": 1},
        "website": {"type": "string"},
        "phone": {"type": "string", "minLength": 10},
        "email": {"type": "string", "format": "email"},
        "address": {
          "type": "object",
          "required": ["street", "city", "state", "zip"],
          "properties": {
            "street": {"type": "string", "minLength": 1},
            "city": {"type": "string", "minLength": 1},
            "state": {"type": "string", "minLength": 2, "maxLength": 2},
            "zip": {"type": "string", "minLength": 5}
          }
        },
        "hours": {"type": "object"}
      }
    },
    "voiceAgentConfig": {
      "type": "object",
      "required": ["agentName", "agentPersonality", "greeting", "voice"],
      "properties": {
        "agentName": {"type": "string", "minLength": 2, "maxLength": 20},
        "agentPersonality": {"enum": ["professional", "friendly", "formal"]},
        "greeting": {"type": "string", "minLength": 20, "maxLength": 500},
        "voice": {"type": "string", "minLength": 1}
      }
    },
    "collectionFields": {
      "type": "object",
      "properties": {
        "customFields": {"type": ["array", "null"], "maxItems": 5}
      }
    },
    "emergencyHandling": {"type": ["object", "null"]},
    "emailConfig": {
      "type": "object",
      "required": ["recipientEmail"],
      "properties": {
        "recipientEmail": {"type": "string", "format": "email"}
      }
    }
  }
}`

var compiledSubmissionSchema = mustCompileSchema(submissionSchema)

func mustCompileSchema(source string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("compile submission schema: %v", err))
	}
	return schema
}

// validateSubmissionBody returns the schema violations keyed by field path.
func validateSubmissionBody(body []byte) (map[string]string, error) {
	result, err := compiledSubmissionSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("validate submission payload: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	violations := make(map[string]string, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		field := resultErr.Field()
		if resultErr.Type() == "required" {
			if property, ok := resultErr.Details()["property"].(string); ok {
				field = joinFieldPath(field, property)
			}
		}
		if _, exists := violations[field]; !exists {
			violations[field] = resultErr.Description()
		}
	}
	return violations, nil
}

func joinFieldPath(parent string, child string) string {
	if parent == "" || parent == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return child
	}
	return parent + "." + child
}

func describeViolations(violations map[string]string) string {
	fields := make([]string, 0, len(violations))
	for field := range violations {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "Invalid submission: " + strings.Join(fields, ", ")
}
