package contract

import (
	"context"

	"bank-chatbot-be/internal/entity"
)

type CustomerRepository interface {
	FindByRef(ctx context.Context, customerRef string) (*entity.Customer, error)
	Upsert(ctx context.Context, customer *entity.Customer) error
}
