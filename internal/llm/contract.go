// Package llm - contract.go describes the JSON shape a prompt asks the model
// to return.
package llm

import (
	"fmt"
	"strings"
)

// OutputContract defines the structure of a JSON response requested from
// the model.
type OutputContract struct {
	Name   string          // Contract name (e.g., "JobScore")
	Fields []ContractField // Expected output fields
}

// ContractField defines a single field in the output.
type ContractField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model, e.g. "integer 0-100"
	Description string
	Required    bool
}

// Instructions renders the contract as prompt text to append to a system
// instruction.
func (c OutputContract) Instructions() string {
	var sb strings.Builder

	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range c.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(c.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	sb.WriteString("Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n")

	return sb.String()
}

// JobScoreContract is the response contract of the job-fit judge.
func JobScoreContract() OutputContract {
	return OutputContract{
		Name: "JobScore",
		Fields: []ContractField{
			{Name: "overall_score", Type: "integer 0-100", Description: "weighted overall fit", Required: true},
			{Name: "relevance_score", Type: "integer 0-100", Description: "fit of the role's stack and work", Required: true},
			{Name: "experience_match", Type: "integer 0-100", Description: "fit of required vs actual experience", Required: true},
			{Name: "domain_match", Type: "integer 0-100", Description: "fit of the company's domain", Required: true},
			{Name: "seniority_fit", Type: "integer 0-100", Description: "fit of the role's level", Required: true},
			{Name: "reasoning", Type: "string", Description: "two or three sentences", Required: true},
		},
	}
}
