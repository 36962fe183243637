package models

import (
	"encoding/json"
	"testing"

	"appchain-calc/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkloadOverride_Apply(t *testing.T) {
	base := model.Workload{DailyTx: 150000, AvgGasPrice: 0.1, DataSizePerTxKB: 0.8, MevRate: 0.0005, AvgTxValue: 500}

	var req CalculateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"preset":"pancake","workload":{"mevRate":0,"dailyTx":10}}`), &req))
	require.NotNil(t, req.Workload)

	got := req.Workload.Apply(base)
	assert.Equal(t, model.Workload{DailyTx: 10, AvgGasPrice: 0.1, DataSizePerTxKB: 0.8, MevRate: 0, AvgTxValue: 500}, got)
}

func TestWorkloadOverride_NilKeepsBase(t *testing.T) {
	base := model.Workload{DailyTx: 1, MevRate: 0.2}

	var o *WorkloadOverride
	assert.Equal(t, base, o.Apply(base))
	assert.Equal(t, base, (&WorkloadOverride{}).Apply(base))
}
