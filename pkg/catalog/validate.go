package catalog

import (
	"regexp"
	"strings"

	"mercator-hq/tabular/pkg/tabular"

	"github.com/robfig/cron/v3"
)

// namePattern keeps names usable as URL path segments and file names.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func validateDefinition(i int, def *Definition) error {
	if def == nil {
		return &DefinitionError{Index: i, Field: "name", Message: "empty definition"}
	}

	fail := func(field, msg string, cause error) error {
		return &DefinitionError{Index: i, Name: def.Name, Field: field, Message: msg, Cause: cause}
	}

	if !namePattern.MatchString(def.Name) {
		return fail("name", "must start with a letter or digit and contain only letters, digits, '_', '.' or '-'", nil)
	}
	if strings.TrimSpace(def.Query) == "" {
		return fail("query", "query is required", nil)
	}

	m, err := tabular.NewMapping(def.Columns...)
	if err != nil {
		return fail("columns", "invalid column mapping", err)
	}
	def.mapping = m

	if _, err := tabular.LookupEncoding(def.Encoding); err != nil {
		return fail("encoding", "unsupported encoding", err)
	}
	if _, err := tabular.ParseLineEnding(def.LineEnding); err != nil {
		return fail("line_ending", "unsupported line ending", err)
	}

	if def.Schedule != "" {
		if _, err := cron.ParseStandard(def.Schedule); err != nil {
			return fail("schedule", "invalid cron expression", err)
		}
		if def.Output == "" {
			return fail("output", "output is required for scheduled exports", nil)
		}
	}

	return nil
}
