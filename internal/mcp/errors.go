package mcp

import (
	"errors"
	"fmt"

	"github.com/mfeldt/stencil/internal/domain/checklist"
	"github.com/mfeldt/stencil/internal/domain/template"
	"github.com/mfeldt/stencil/internal/transfer"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unmapped errors pass
// through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, checklist.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Call list_projects to see valid IDs"}
	case errors.Is(err, checklist.ErrItemNotFound):
		return &APIError{Code: "ITEM_NOT_FOUND", Message: "checklist item not found", RecoveryHint: "Call get_project to see valid item IDs"}
	case errors.Is(err, checklist.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "invalid input", RecoveryHint: "Check the tool arguments"}
	case errors.Is(err, template.ErrTemplateNotFound):
		return &APIError{Code: "TEMPLATE_NOT_FOUND", Message: "template not found", RecoveryHint: "Call list_templates to see the catalog"}
	case errors.Is(err, template.ErrCatalogUnavailable):
		return &APIError{Code: "CATALOG_UNAVAILABLE", Message: "template catalog unavailable", RecoveryHint: "Retry once the catalog directory is reachable"}
	case errors.Is(err, transfer.ErrInvalidImport):
		return &APIError{Code: "INVALID_IMPORT", Message: "import document rejected", RecoveryHint: "The document needs a top-level projects array"}
	default:
		return err
	}
}
