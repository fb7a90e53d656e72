package mapper

import (
	"bank-chatbot-be/internal/entity"
	"bank-chatbot-be/internal/model"
)

type CustomerMapper struct{}

func NewCustomerMapper() *CustomerMapper {
	return &CustomerMapper{}
}

func (m *CustomerMapper) ToEntity(c *model.Customer) *entity.Customer {
	if c == nil {
		return nil
	}

	return &entity.Customer{
		CustomerRef: c.CustomerRef,
		FullName:    c.FullName,
		Status:      entity.CustomerStatus(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (m *CustomerMapper) ToModel(c *entity.Customer) *model.Customer {
	if c == nil {
		return nil
	}

	return &model.Customer{
		CustomerRef: c.CustomerRef,
		FullName:    c.FullName,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
