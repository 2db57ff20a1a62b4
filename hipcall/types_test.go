package hipcall

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskCreateOmitsUnsetFields(t *testing.T) {
	payload, err := json.Marshal(TaskCreate{Name: "Call back"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Call back"}`, string(payload))
}

func TestTaskCreateSetFields(t *testing.T) {
	due := Timestamp{Time: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	payload, err := json.Marshal(TaskCreate{
		Name:             "Call back",
		AutoAssignToUser: Ptr(false),
		DueDate:          &due,
		TaskListID:       Ptr(2),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Call back","auto_assign_to_user":false,"due_date":"2024-06-01T09:00:00Z","task_list_id":2}`, string(payload))
}

func TestTaskCreateValidate(t *testing.T) {
	assert.NoError(t, (&TaskCreate{Name: "x"}).Validate())
	assert.ErrorIs(t, (&TaskCreate{Name: "  "}).Validate(), ErrInvalidInput)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{input: "2024-05-01T10:00:00Z", want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{input: "2024-05-01T10:00:00.5+02:00", want: time.Date(2024, 5, 1, 8, 0, 0, 500000000, time.UTC)},
		{input: "2024-05-01T10:00:00", want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{input: "2024-05-01T10:00:00.000123", want: time.Date(2024, 5, 1, 10, 0, 0, 123000, time.UTC)},
		{input: "2024-05-01 10:00:00", want: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{input: "yesterday", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.Time), "got %s", got.Time)
		})
	}
}

func TestTimestampRejectsNonString(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`12345`), &ts))
}

func TestTaskDetailEmbedsTask(t *testing.T) {
	var detail TaskDetail
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"name":"n","done":true,"priority":"low"}`), &detail))
	assert.Equal(t, 4, detail.ID)
	assert.True(t, detail.IsDone())
	require.NotNil(t, detail.Priority)
	assert.Equal(t, "low", *detail.Priority)
}

func TestShapeCheck(t *testing.T) {
	s := envelope(taskShape, true)

	assert.NoError(t, s.check([]byte(`{"data":[{"id":1,"name":"","done":true}],"meta":{"count":1,"limit":10,"offset":0}}`)))
	assert.NoError(t, s.check([]byte(`{"data":[],"meta":{"count":0,"limit":10,"offset":0},"extra":1}`)))

	err := s.check([]byte(`{"data":[{"id":1,"name":"a","done":true},{"name":"b","done":true}],"meta":{"count":2,"limit":10,"offset":0}}`))
	assert.EqualError(t, err, `data[1]: missing required field "id"`)

	err = s.check([]byte(`{"data":[],"meta":{"count":0,"limit":null,"offset":0}}`))
	assert.EqualError(t, err, `meta: missing required field "limit"`)

	assert.Error(t, s.check([]byte(`null`)))
}

func TestMetaHasMore(t *testing.T) {
	assert.True(t, Meta{Count: 42, Limit: 5, Offset: 0}.HasMore())
	assert.False(t, Meta{Count: 42, Limit: 5, Offset: 40}.HasMore())
}

func TestCallParseUUID(t *testing.T) {
	c := Call{UUID: "not-a-uuid"}
	_, err := c.ParseUUID()
	assert.Error(t, err)
}
