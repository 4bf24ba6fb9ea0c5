package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "claim_record.json"

// recordSchema pins the persisted shape and the numeric ranges every
// consumer of the reports relies on.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "run_id", "claim_id", "statement", "pairing_confidence",
               "ground_truth_matches", "comparison_metrics", "narrative",
               "processing_timestamp", "pipeline_version", "status"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "run_id": {"type": "string", "minLength": 1},
    "claim_id": {"type": "string", "minLength": 1},
    "statement": {"$ref": "#/definitions/attachment"},
    "treaty_slip": {"$ref": "#/definitions/attachment"},
    "pairing_confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "statement_compliance": {"$ref": "#/definitions/compliance"},
    "treaty_slip_compliance": {"$ref": "#/definitions/compliance"},
    "ground_truth_matches": {"type": "array", "items": {"$ref": "#/definitions/match"}},
    "comparison_metrics": {
      "type": "object",
      "required": ["trust_score", "date_comparison", "financial_comparison",
                   "ground_truth_comparison", "validation_metrics"],
      "properties": {
        "trust_score": {"$ref": "#/definitions/percent"},
        "date_comparison": {
          "type": "object",
          "properties": {"match_percentage": {"$ref": "#/definitions/percent"}}
        },
        "ground_truth_comparison": {
          "type": "object",
          "properties": {
            "reliability": {"enum": ["HIGH", "MEDIUM", "LOW"]},
            "data_integrity": {
              "type": "object",
              "properties": {
                "completeness_score": {"$ref": "#/definitions/percent"},
                "accuracy_score": {"$ref": "#/definitions/percent"},
                "consistency_score": {"$ref": "#/definitions/percent"}
              }
            }
          }
        }
      }
    },
    "narrative": {
      "type": "object",
      "required": ["available"],
      "properties": {"available": {"type": "boolean"}}
    },
    "processing_timestamp": {"type": "string"},
    "pipeline_version": {"type": "string", "minLength": 1},
    "status": {"enum": ["complete", "degraded", "failed"]}
  },
  "definitions": {
    "percent": {"type": "number", "minimum": 0, "maximum": 100},
    "attachment": {
      "type": "object",
      "required": ["filename", "doc_type", "classification_confidence", "quality_score"],
      "properties": {
        "filename": {"type": "string"},
        "doc_type": {"enum": ["statement", "treaty_slip", "unknown"]},
        "classification_confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "quality_score": {"type": "number", "minimum": 0, "maximum": 1}
      }
    },
    "match": {
      "type": "object",
      "required": ["record", "similarity_score", "distance", "rank"],
      "properties": {
        "similarity_score": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
        "distance": {"type": "number", "minimum": 0},
        "rank": {"type": "integer", "minimum": 1}
      }
    },
    "compliance": {
      "type": "object",
      "required": ["compliance_score", "risk_level", "status"],
      "properties": {
        "compliance_score": {"type": "number", "minimum": 0, "maximum": 1},
        "risk_level": {"enum": ["low", "medium", "high"]},
        "status": {"enum": ["ok", "errored"]},
        "ground_truth_matches": {"type": ["array", "null"], "items": {"$ref": "#/definitions/match"}}
      }
    }
  }
}`

// Validator checks encoded claim records against the record schema
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the record schema
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks one JSON-encoded record
func (v *Validator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
