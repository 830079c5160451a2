package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKitCondition_JSON(t *testing.T) {
	loc := KitLocation{ScenarioID: "fog-house", KitNumber: 1, Condition: KitConditionNeedsCheck}

	data, err := json.Marshal(loc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"condition":"needs_check"`)

	var back KitLocation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, KitConditionNeedsCheck, back.Condition)

	assert.Error(t, json.Unmarshal([]byte(`{"condition":"lost"}`), &back))
}

func TestEnums_Scan(t *testing.T) {
	var c KitCondition
	require.NoError(t, c.Scan([]byte("damaged")))
	assert.Equal(t, KitConditionDamaged, c)
	assert.Error(t, c.Scan(42))

	var s TransferStatus
	require.NoError(t, s.Scan("cancelled"))
	assert.Equal(t, TransferCancelled, s)

	v, err := TransferCompleted.Value()
	require.NoError(t, err)
	assert.Equal(t, "completed", v)
}

func TestTransferCompletion_State(t *testing.T) {
	now := time.Now()
	var missing *TransferCompletion

	assert.Equal(t, CompletionUnplanned, missing.State())
	assert.Equal(t, CompletionUnplanned, (&TransferCompletion{}).State())
	assert.Equal(t, CompletionPickedUp, (&TransferCompletion{PickedUpAt: &now}).State())
	assert.Equal(t, CompletionDelivered, (&TransferCompletion{PickedUpAt: &now, DeliveredAt: &now}).State())
}

func TestStateOf_SkipsUnplaced(t *testing.T) {
	a := "store-a"
	empty := ""
	state := StateOf([]KitLocation{
		{ScenarioID: "s", KitNumber: 1, StoreID: &a},
		{ScenarioID: "s", KitNumber: 2},
		{ScenarioID: "s", KitNumber: 3, StoreID: &empty},
	})

	assert.Equal(t, KitState{{ScenarioID: "s", KitNumber: 1}: "store-a"}, state)
}

func TestCompletionState_Text(t *testing.T) {
	var body struct {
		State CompletionState `json:"state"`
	}
	body.State = CompletionPickedUp
	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"picked_up"}`, string(data))

	body.State = CompletionUnplanned
	require.NoError(t, json.Unmarshal([]byte(`{"state":"delivered"}`), &body))
	assert.Equal(t, CompletionDelivered, body.State)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"lost"}`), &body))
	_, err = CompletionState(9).MarshalText()
	assert.Error(t, err)
}
