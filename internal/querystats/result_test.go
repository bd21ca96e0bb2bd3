// File path: internal/querystats/result_test.go
package querystats

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultSetMarshalsInInsertionOrder(t *testing.T) {
	set := NewResultSet()
	set.Add("c", "third")
	set.Add("a", "first")
	set.Add("b", PlanEntry{Statement: "SELECT 1", QueryPlan: "PLAN"})

	data, err := json.Marshal(set)
	require.NoError(t, err)
	require.Equal(t, `{"c":"third","a":"first","b":{"statement":"SELECT 1","query_plan":"PLAN"}}`, string(data))
}

func TestResultSetDuplicateAddKeepsPosition(t *testing.T) {
	set := NewResultSet()
	set.Add("a", "one")
	set.Add("b", "two")
	set.Add("a", "updated")

	require.Equal(t, []string{"a", "b"}, set.Fingerprints())
	entry, ok := set.Get("a")
	require.True(t, ok)
	require.Equal(t, "updated", entry)
}

func TestEmptyResultSetMarshalsToEmptyObject(t *testing.T) {
	data, err := json.Marshal(NewResultSet())
	require.NoError(t, err)
	require.Equal(t, `{}`, string(data))
}
