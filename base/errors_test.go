package base

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	table := TableIdentity{Namespace: "audit", Name: "logs"}
	cause := errors.New("connection refused")

	schemaErr := &SchemaError{Table: table, Cause: cause}
	assert.EqualError(t, schemaErr, "failed to ensure table audit.logs: connection refused")
	assert.True(t, IsSchemaError(errors.Wrap(schemaErr, "open")))
	assert.False(t, IsWriteError(schemaErr))
	assert.ErrorIs(t, schemaErr, cause)

	mappingErr := &MappingError{Index: 2, LoggerName: "app.db", Cause: fmt.Errorf("not enough arguments")}
	assert.EqualError(t, mappingErr, "failed to map record #2 from logger 'app.db': not enough arguments")
	assert.True(t, IsMappingError(fmt.Errorf("flush: %w", mappingErr)))
	assert.False(t, IsSchemaError(mappingErr))

	writeErr := &WriteError{Table: table, BatchSize: 5, Cause: cause}
	assert.EqualError(t, writeErr, "failed to insert 5 rows into audit.logs: connection refused")
	assert.True(t, IsWriteError(errors.CombineErrors(writeErr, errors.New("close"))))
	assert.False(t, IsMappingError(writeErr))

	assert.False(t, IsWriteError(nil))
	assert.True(t, errors.Is(errors.Wrap(ErrUseAfterClose, "handle"), ErrUseAfterClose))
}
