package api

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/warimas/backoffice/internal/audit"
	"github.com/warimas/backoffice/internal/category"
	"github.com/warimas/backoffice/internal/customer"
	"github.com/warimas/backoffice/internal/order"
	"github.com/warimas/backoffice/internal/product"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, teamID int64, in order.Input) (*order.Order, error) {
	args := m.Called(ctx, teamID, in)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) UpdateOrder(ctx context.Context, teamID, orderID int64, in order.Input) (*order.Order, error) {
	args := m.Called(ctx, teamID, orderID, in)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, teamID, orderID int64) (bool, error) {
	args := m.Called(ctx, teamID, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, teamID, orderID int64) (*order.Order, error) {
	args := m.Called(ctx, teamID, orderID)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, teamID int64, filter order.ListFilter) (*order.ListResult, error) {
	args := m.Called(ctx, teamID, filter)
	res, _ := args.Get(0).(*order.ListResult)
	return res, args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, teamID, orderID int64) ([]audit.Entry, error) {
	args := m.Called(ctx, teamID, orderID)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries, args.Error(1)
}

func (m *MockOrderService) Statuses(ctx context.Context) ([]order.Status, error) {
	args := m.Called(ctx)
	st, _ := args.Get(0).([]order.Status)
	return st, args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Create(ctx context.Context, teamID int64, in product.Input) (*product.Product, error) {
	args := m.Called(ctx, teamID, in)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, teamID, id int64, in product.Input) (*product.Product, error) {
	args := m.Called(ctx, teamID, id, in)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, teamID, id int64) error {
	return m.Called(ctx, teamID, id).Error(0)
}

func (m *MockProductService) AdjustStock(ctx context.Context, teamID, id int64, adj product.StockAdjustment) (*product.Product, error) {
	args := m.Called(ctx, teamID, id, adj)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, teamID, id int64) (*product.Product, error) {
	args := m.Called(ctx, teamID, id)
	p, _ := args.Get(0).(*product.Product)
	return p, args.Error(1)
}

func (m *MockProductService) List(ctx context.Context, teamID int64, filter product.ListFilter) (*product.ListResult, error) {
	args := m.Called(ctx, teamID, filter)
	res, _ := args.Get(0).(*product.ListResult)
	return res, args.Error(1)
}

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) List(ctx context.Context, teamID int64, filter category.ListFilter) (*category.ListResult, error) {
	args := m.Called(ctx, teamID, filter)
	res, _ := args.Get(0).(*category.ListResult)
	return res, args.Error(1)
}

func (m *MockCategoryService) Create(ctx context.Context, teamID int64, name string) (*category.Category, error) {
	args := m.Called(ctx, teamID, name)
	c, _ := args.Get(0).(*category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Rename(ctx context.Context, teamID, id int64, name string) (*category.Category, error) {
	args := m.Called(ctx, teamID, id, name)
	c, _ := args.Get(0).(*category.Category)
	return c, args.Error(1)
}

func (m *MockCategoryService) Delete(ctx context.Context, teamID, id int64) error {
	return m.Called(ctx, teamID, id).Error(0)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Create(ctx context.Context, teamID int64, in customer.Input) (*customer.Customer, error) {
	args := m.Called(ctx, teamID, in)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) Update(ctx context.Context, teamID, id int64, in customer.Input) (*customer.Customer, error) {
	args := m.Called(ctx, teamID, id, in)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) Delete(ctx context.Context, teamID, id int64) error {
	return m.Called(ctx, teamID, id).Error(0)
}

func (m *MockCustomerService) Get(ctx context.Context, teamID, id int64) (*customer.Customer, error) {
	args := m.Called(ctx, teamID, id)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context, teamID int64, filter customer.ListFilter) (*customer.ListResult, error) {
	args := m.Called(ctx, teamID, filter)
	res, _ := args.Get(0).(*customer.ListResult)
	return res, args.Error(1)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, teamID int64, subject audit.Subject, event audit.Event, before, after any) error {
	return m.Called(ctx, teamID, subject, event, before, after).Error(0)
}

func (m *MockAudit) History(ctx context.Context, teamID int64, subject audit.Subject) ([]audit.Entry, error) {
	args := m.Called(ctx, teamID, subject)
	entries, _ := args.Get(0).([]audit.Entry)
	return entries, args.Error(1)
}

type MockIdempotency struct {
	mock.Mock
}

func (m *MockIdempotency) Begin(ctx context.Context, teamID int64, key string) (int64, bool, error) {
	args := m.Called(ctx, teamID, key)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockIdempotency) Complete(ctx context.Context, teamID int64, key string, orderID int64) error {
	return m.Called(ctx, teamID, key, orderID).Error(0)
}

func (m *MockIdempotency) Release(ctx context.Context, teamID int64, key string) error {
	return m.Called(ctx, teamID, key).Error(0)
}
