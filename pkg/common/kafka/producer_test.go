package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/diseaseforecast/platform/pkg/common/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEventEncodesEnvelope(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w, topic: "forecast-events"}

	err := p.PublishEvent(context.Background(), models.EventPredictionCompleted, "serving", map[string]interface{}{
		"patient_id": 7,
		"risk_level": "HIGH",
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "patient-7", string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, models.EventPredictionCompleted, string(msg.Headers[0].Value))

	var event models.Event
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "serving", event.Source)
	assert.Equal(t, "HIGH", event.Data["risk_level"])
}

func TestPublishEventKeysByEventIDWithoutPatient(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.PublishEvent(context.Background(), "custom", "test", map[string]interface{}{}))

	var event models.Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, event.ID, string(w.messages[0].Key))
}

func TestPublishEventReturnsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &recordingWriter{err: boom}}

	err := p.PublishEvent(context.Background(), models.EventPatientCreated, "clinical", nil)
	assert.ErrorIs(t, err, boom)
}
