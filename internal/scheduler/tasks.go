package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadDelivery = "lead.delivery"

type LeadDeliveryPayload struct {
	DeliveryID string `json:"deliveryId"`
}

func NewLeadDeliveryTask(payload LeadDeliveryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadDelivery, data), nil
}

func ParseLeadDeliveryPayload(task *asynq.Task) (LeadDeliveryPayload, error) {
	var payload LeadDeliveryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadDeliveryPayload{}, err
	}
	return payload, nil
}
