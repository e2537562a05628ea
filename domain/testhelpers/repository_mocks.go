package testhelpers

import (
	"context"
	"time"

	"pennybid/domain/entities"
	"pennybid/domain/events"
	"pennybid/domain/interfaces"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, email, name, passwordHash string) (*entities.User, error) {
	args := m.Called(ctx, email, name, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, userID int64) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Load(ctx context.Context, userID int64) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

// MockAuctionRepository is a mock implementation of AuctionRepository
type MockAuctionRepository struct {
	mock.Mock
}

func (m *MockAuctionRepository) Create(ctx context.Context, auction *entities.Auction) error {
	args := m.Called(ctx, auction)
	return args.Error(0)
}

func (m *MockAuctionRepository) Load(ctx context.Context, auctionID int64) (*entities.Auction, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Auction), args.Error(1)
}

func (m *MockAuctionRepository) Save(ctx context.Context, auction *entities.Auction) error {
	args := m.Called(ctx, auction)
	return args.Error(0)
}

func (m *MockAuctionRepository) ListOpen(ctx context.Context, category string) ([]*entities.Auction, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Auction), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BalanceHistory), args.Error(1)
}

// MockBidRepository is a mock implementation of BidRepository
type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) Record(ctx context.Context, bid *entities.Bid) error {
	args := m.Called(ctx, bid)
	return args.Error(0)
}

func (m *MockBidRepository) GetByAuction(ctx context.Context, auctionID int64, limit int) ([]*entities.Bid, error) {
	args := m.Called(ctx, auctionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Bid), args.Error(1)
}

// MockRefundRepository is a mock implementation of RefundRepository
type MockRefundRepository struct {
	mock.Mock
}

func (m *MockRefundRepository) Enqueue(ctx context.Context, refunds []*entities.Refund) error {
	args := m.Called(ctx, refunds)
	return args.Error(0)
}

func (m *MockRefundRepository) GetPending(ctx context.Context, limit int) ([]*entities.Refund, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Refund), args.Error(1)
}

func (m *MockRefundRepository) GetPendingByAuction(ctx context.Context, auctionID int64) ([]*entities.Refund, error) {
	args := m.Called(ctx, auctionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Refund), args.Error(1)
}

func (m *MockRefundRepository) GetForUpdate(ctx context.Context, refundID int64) (*entities.Refund, error) {
	args := m.Called(ctx, refundID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Refund), args.Error(1)
}

func (m *MockRefundRepository) MarkIssued(ctx context.Context, refundID int64, issuedAt time.Time) error {
	args := m.Called(ctx, refundID, issuedAt)
	return args.Error(0)
}

func (m *MockRefundRepository) RecordFailure(ctx context.Context, refundID int64, errMsg string) error {
	args := m.Called(ctx, refundID, errMsg)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return the embedded mocks so tests set expectations on them directly.
type MockUnitOfWork struct {
	mock.Mock

	Users     *MockUserRepository
	Wallets   *MockWalletRepository
	Auctions  *MockAuctionRepository
	History   *MockBalanceHistoryRepository
	Bids      *MockBidRepository
	Refunds   *MockRefundRepository
	Publisher *MockEventPublisher
}

// NewMockUnitOfWork creates a unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Users:     new(MockUserRepository),
		Wallets:   new(MockWalletRepository),
		Auctions:  new(MockAuctionRepository),
		History:   new(MockBalanceHistoryRepository),
		Bids:      new(MockBidRepository),
		Refunds:   new(MockRefundRepository),
		Publisher: new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() interfaces.UserRepository       { return m.Users }
func (m *MockUnitOfWork) WalletRepository() interfaces.WalletRepository   { return m.Wallets }
func (m *MockUnitOfWork) AuctionRepository() interfaces.AuctionRepository { return m.Auctions }
func (m *MockUnitOfWork) BidRepository() interfaces.BidRepository         { return m.Bids }
func (m *MockUnitOfWork) RefundRepository() interfaces.RefundRepository   { return m.Refunds }
func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher             { return m.Publisher }
func (m *MockUnitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	return m.History
}

// AssertAll asserts expectations on the unit of work and every repository mock
func (m *MockUnitOfWork) AssertAll(t mock.TestingT) {
	m.AssertExpectations(t)
	m.Users.AssertExpectations(t)
	m.Wallets.AssertExpectations(t)
	m.Auctions.AssertExpectations(t)
	m.History.AssertExpectations(t)
	m.Bids.AssertExpectations(t)
	m.Refunds.AssertExpectations(t)
	m.Publisher.AssertExpectations(t)
}

// MockUnitOfWorkFactory hands out a fixed sequence of units of work
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() interfaces.UnitOfWork {
	args := m.Called()
	return args.Get(0).(interfaces.UnitOfWork)
}
