package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSideEffectReplay = "side_effect:replay"

type SideEffectReplayPayload struct {
	OutboxID string `json:"outboxId"`
}

func NewSideEffectReplayTask(payload SideEffectReplayPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSideEffectReplay, data), nil
}

func ParseSideEffectReplayPayload(task *asynq.Task) (SideEffectReplayPayload, error) {
	var payload SideEffectReplayPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SideEffectReplayPayload{}, err
	}
	return payload, nil
}
