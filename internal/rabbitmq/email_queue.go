package rabbitmq

import (
	"github.com/streadway/amqp"

	"github.com/remedyhub/remedy-api/internal/models"
)

// EmailQueue публикует задания на отправку писем в exchange писем.
type EmailQueue struct {
	ch *amqp.Channel
}

// NewEmailQueue создает публикатор поверх открытого канала.
func NewEmailQueue(ch *amqp.Channel) *EmailQueue {
	return &EmailQueue{ch: ch}
}

// Publish отправляет задание в очередь исходящих писем.
func (q *EmailQueue) Publish(job models.EmailJob) error {
	return PublishMessage(q.ch, ExchangeEmails, "outgoing", job)
}
