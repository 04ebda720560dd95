package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation marks a state file that parses as JSON but does not
// match the expected shape. Callers treat it like corruption.
var ErrSchemaViolation = errors.New("state file schema violation")

// stateSchema is the structural contract for persisted state files. It
// checks the aggregate shape, not every nested field: the goal is to reject
// foreign or truncated JSON before unmarshaling, not to duplicate the model.
const stateSchema = `{
	"type": "object",
	"required": ["repositories", "components", "dependency_records", "base_repos_path", "last_updated"],
	"properties": {
		"repositories": {"type": "object"},
		"components": {"type": "object"},
		"dependency_records": {"type": "array"},
		"base_repos_path": {"type": "string"},
		"last_updated": {"type": "string"},
		"analysis_started": {"type": ["string", "null"]},
		"analysis_completed": {"type": ["string", "null"]},
		"total_repositories": {"type": "integer", "minimum": 0},
		"repositories_with_insights": {"type": "integer", "minimum": 0}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(stateSchema)

// validateStateJSON checks raw state-file bytes against the schema.
func validateStateJSON(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate state file: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, violation.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(violations, "; "))
}
