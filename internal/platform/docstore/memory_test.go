package docstore_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"didgate/internal/platform/docstore"
	"didgate/internal/platform/docstore/docstoretest"
)

func TestMemoryStoreContract(t *testing.T) {
	suite.Run(t, &docstoretest.ContractSuite{
		New: func() docstore.Store { return docstore.NewMemory() },
	})
}
