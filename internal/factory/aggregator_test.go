package factory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factory-status-backend/internal/model"
)

func TestAggregator_StageOutput(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	testCases := []struct {
		name            string
		setup           func(m *memStore)
		stageOrder      int
		expectedUnits   int
		expectedDefects int
		expectedYield   float64
		expectedErr     error
	}{
		{
			name: "Units and defects are summed across devices",
			setup: func(m *memStore) {
				id := m.addStage("Final Assembly", 3, model.Device{Operational: true}, model.Device{Operational: true})
				ids := m.deviceIDsOf(id)
				m.record(ids[0], start, 60, 2)
				m.record(ids[1], start.Add(3*time.Hour), 40, 3)
			},
			stageOrder:      3,
			expectedUnits:   100,
			expectedDefects: 5,
			expectedYield:   95.0,
		},
		{
			name: "Window bounds are inclusive",
			setup: func(m *memStore) {
				id := m.addStage("Paint Shop", 2, model.Device{Operational: true})
				ids := m.deviceIDsOf(id)
				m.record(ids[0], start, 10, 0)
				m.record(ids[0], end, 10, 0)
				m.record(ids[0], end.Add(time.Second), 99, 99)
			},
			stageOrder:    2,
			expectedUnits: 20,
			expectedYield: 100.0,
		},
		{
			name: "No records is an empty aggregate, not an error",
			setup: func(m *memStore) {
				m.addStage("Body Assembly", 1, model.Device{Operational: true})
			},
			stageOrder: 1,
		},
		{
			name:        "Unknown stage order",
			setup:       func(m *memStore) {},
			stageOrder:  9,
			expectedErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := newMemStore()
			tc.setup(m)
			agg := NewAggregator(m, m)

			out, err := agg.StageOutput(context.Background(), tc.stageOrder, start, end)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.stageOrder, out.StageOrder)
			assert.Equal(t, tc.expectedUnits, out.UnitsProduced)
			assert.Equal(t, tc.expectedDefects, out.DefectiveUnits)
			assert.InDelta(t, tc.expectedYield, out.EffectiveYieldPercentage, 1e-9)
			assert.Equal(t, start, out.StartTime)
			assert.Equal(t, end, out.EndTime)
		})
	}
}

func TestAggregator_StageOutput_RejectsInvertedWindow(t *testing.T) {
	m := newMemStore()
	m.addStage("Body Assembly", 1)
	agg := NewAggregator(m, m)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := agg.StageOutput(context.Background(), 1, start, start.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = agg.AllStagesOutput(context.Background(), start, start.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAggregator_AllStagesOutput(t *testing.T) {
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)

	m := newMemStore()
	// Registered out of order on purpose.
	final := m.addStage("Final Assembly", 3, model.Device{Operational: true})
	body := m.addStage("Body Assembly", 1, model.Device{Operational: true})
	m.addStage("Paint Shop", 2, model.Device{Operational: true})
	m.record(m.deviceIDsOf(final)[0], start.Add(time.Hour), 50, 5)
	m.record(m.deviceIDsOf(body)[0], start.Add(time.Hour), 80, 2)

	outputs, err := NewAggregator(m, m).AllStagesOutput(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{outputs[0].StageOrder, outputs[1].StageOrder, outputs[2].StageOrder})
	assert.Equal(t, 80, outputs[0].UnitsProduced)
	assert.Equal(t, 0, outputs[1].UnitsProduced)
	assert.Equal(t, 0.0, outputs[1].EffectiveYieldPercentage)
	assert.Equal(t, 45, outputs[2].NetUnits())
}

func TestAggregator_AllStagesOutput_PropagatesStoreErrors(t *testing.T) {
	m := newMemStore()
	m.addStage("Body Assembly", 1)
	m.failSums = errors.New("db down")

	_, err := NewAggregator(m, m).AllStagesOutput(context.Background(), time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
}

func TestAggregator_ZeroOutputs(t *testing.T) {
	m := newMemStore()
	m.addStage("Paint Shop", 2)
	m.addStage("Body Assembly", 1)
	at := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	outputs, err := NewAggregator(m, m).ZeroOutputs(context.Background(), at, at)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, "Body Assembly", outputs[0].StageName)
	for _, o := range outputs {
		assert.Zero(t, o.UnitsProduced)
		assert.Zero(t, o.DefectiveUnits)
		assert.Zero(t, o.EffectiveYieldPercentage)
	}
}

func TestYield(t *testing.T) {
	testCases := []struct {
		units, defects int
		expected       float64
	}{
		{100, 5, 95.0},
		{0, 0, 0.0},
		{10, 10, 0.0},
		{3, 1, 200.0 / 3.0},
	}

	for _, tc := range testCases {
		assert.InDelta(t, tc.expected, Yield(tc.units, tc.defects), 1e-9)
	}
}
