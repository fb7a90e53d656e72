package implementation

import (
	"context"
	"errors"

	"bank-chatbot-be/internal/entity"
	"bank-chatbot-be/internal/mapper"
	"bank-chatbot-be/internal/model"
	"bank-chatbot-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CustomerMapper
}

func NewCustomerRepository(db *gorm.DB) contract.CustomerRepository {
	return &CustomerRepositoryImpl{
		db:     db,
		mapper: mapper.NewCustomerMapper(),
	}
}

func (r *CustomerRepositoryImpl) FindByRef(ctx context.Context, customerRef string) (*entity.Customer, error) {
	var m model.Customer
	err := r.db.WithContext(ctx).Where("customer_ref = ?", customerRef).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CustomerRepositoryImpl) Upsert(ctx context.Context, customer *entity.Customer) error {
	m := r.mapper.ToModel(customer)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_ref"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_name", "status", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*customer = *r.mapper.ToEntity(m)
	return nil
}
