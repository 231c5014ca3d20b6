package imessagerepo

import (
	"context"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
)

type IMessageRepository interface {
	Insert(ctx context.Context, m message.Message) (message.Message, error)
	ListByUserID(ctx context.Context, userID int64) ([]message.Message, error)
}
