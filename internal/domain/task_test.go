package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskProgress(t *testing.T) {
	tests := []struct {
		name   string
		status TaskStatus
		step   TaskStep
		want   int
	}{
		{name: "pending", status: TaskStatusPending, want: 0},
		{name: "processing before first step", status: TaskStatusProcessing, want: 5},
		{name: "processing fetch", status: TaskStatusProcessing, step: StepFetch, want: 10},
		{name: "processing analyze", status: TaskStatusProcessing, step: StepAnalyze, want: 25},
		{name: "processing text", status: TaskStatusProcessing, step: StepGenerateText, want: 45},
		{name: "processing image", status: TaskStatusProcessing, step: StepGenerateImage, want: 70},
		{name: "processing persist", status: TaskStatusProcessing, step: StepPersist, want: 90},
		{name: "completed", status: TaskStatusCompleted, step: StepPersist, want: 100},
		{name: "failed keeps step progress", status: TaskStatusFailed, step: StepGenerateText, want: 45},
		{name: "failed before claim", status: TaskStatusFailed, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := &GenerationTask{Status: tc.status, CurrentStep: tc.step}
			assert.Equal(t, tc.want, task.Progress())
		})
	}
}

func TestTaskIsTerminal(t *testing.T) {
	assert.False(t, (&GenerationTask{Status: TaskStatusPending}).IsTerminal())
	assert.False(t, (&GenerationTask{Status: TaskStatusProcessing}).IsTerminal())
	assert.True(t, (&GenerationTask{Status: TaskStatusCompleted}).IsTerminal())
	assert.True(t, (&GenerationTask{Status: TaskStatusFailed}).IsTerminal())
}

func TestTaskCloneIsDeep(t *testing.T) {
	task := &GenerationTask{
		ID:       "tsk_1",
		Status:   TaskStatusProcessing,
		Attempts: map[TaskStep]int{StepGenerateText: 2},
	}

	clone := task.Clone()
	clone.Attempts[StepGenerateText] = 9
	clone.Status = TaskStatusFailed

	assert.Equal(t, 2, task.Attempts[StepGenerateText])
	assert.Equal(t, TaskStatusProcessing, task.Status)
}

func TestPipelineStepsOrder(t *testing.T) {
	assert.Equal(t, []TaskStep{
		StepFetch,
		StepAnalyze,
		StepGenerateText,
		StepGenerateImage,
		StepPersist,
	}, PipelineSteps())
}
