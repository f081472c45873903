package consumer

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/solaris-erp/backoffice/internal/domain/task"
)

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessTask(ctx context.Context, t *task.Task) (task.Result, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(task.Result), args.Error(1)
}

type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validTaskMessage(t *testing.T) (*task.Task, []byte) {
	t.Helper()
	tk := &task.Task{
		TaskID:        uuid.New(),
		Name:          task.NameSendToOmie,
		Payload:       json.RawMessage(`{"record_id":"` + uuid.NewString() + `"}`),
		CorrelationID: "20240603143000",
		EnqueuedAt:    time.Now().UTC().Truncate(time.Second),
	}
	value, err := json.Marshal(tk)
	require.NoError(t, err)
	return tk, value
}

func TestHandleMessage_CommitsOnSuccess(t *testing.T) {
	processing := new(MockProcessingService)
	dlq := new(MockDeadLetterPublisher)
	handler := NewTaskEventHandler(testLogger(), processing, dlq)

	tk, value := validTaskMessage(t)
	processing.On("ProcessTask", mock.Anything, mock.MatchedBy(func(got *task.Task) bool {
		return got.TaskID == tk.TaskID && got.Name == tk.Name
	})).Return(task.Result{Status: task.StatusSuccess}, nil)

	err := handler.HandleMessage(context.Background(), []byte(tk.TaskID.String()), value)

	assert.NoError(t, err)
	processing.AssertExpectations(t)
	dlq.AssertNotCalled(t, "PublishToDLQ", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_ErrorResultStillCommits(t *testing.T) {
	processing := new(MockProcessingService)
	handler := NewTaskEventHandler(testLogger(), processing, nil)

	tk, value := validTaskMessage(t)
	processing.On("ProcessTask", mock.Anything, mock.Anything).
		Return(task.Result{Status: task.StatusError, Message: "supplier incomplete"}, nil)

	err := handler.HandleMessage(context.Background(), []byte(tk.TaskID.String()), value)

	assert.NoError(t, err)
}

func TestHandleMessage_TransientFailureLeavesOffsetUncommitted(t *testing.T) {
	processing := new(MockProcessingService)
	handler := NewTaskEventHandler(testLogger(), processing, nil)

	tk, value := validTaskMessage(t)
	processing.On("ProcessTask", mock.Anything, mock.Anything).
		Return(task.Result{}, assert.AnError)

	err := handler.HandleMessage(context.Background(), []byte(tk.TaskID.String()), value)

	assert.Error(t, err)
}

func TestHandleMessage_UnparsableMessageGoesToDLQ(t *testing.T) {
	processing := new(MockProcessingService)
	dlq := new(MockDeadLetterPublisher)
	handler := NewTaskEventHandler(testLogger(), processing, dlq)

	value := []byte("not json")
	dlq.On("PublishToDLQ", mock.Anything, "key-1", value, mock.Anything).Return(nil)

	err := handler.HandleMessage(context.Background(), []byte("key-1"), value)

	assert.NoError(t, err)
	processing.AssertNotCalled(t, "ProcessTask", mock.Anything, mock.Anything)
	dlq.AssertExpectations(t)
}

func TestHandleMessage_DLQFailureRetriesTheMessage(t *testing.T) {
	processing := new(MockProcessingService)
	dlq := new(MockDeadLetterPublisher)
	handler := NewTaskEventHandler(testLogger(), processing, dlq)

	value := []byte("not json")
	dlq.On("PublishToDLQ", mock.Anything, "key-1", value, mock.Anything).Return(assert.AnError)

	err := handler.HandleMessage(context.Background(), []byte("key-1"), value)

	assert.Error(t, err)
}
