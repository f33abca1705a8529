package service

import (
	"errors"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/logger"
	"ride-lifecycle/internal/general/rabbitmq"
	"ride-lifecycle/internal/ports"
)

// ErrDriverRequired is returned when a driver assignment transition arrives
// without a driver identity.
var ErrDriverRequired = errors.New("driver id required for assignment")

// messagePublisher is the slice of the RabbitMQ publisher the service needs.
type messagePublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// lifecycleService encapsulates the ride lifecycle logic and dependencies.
type lifecycleService struct {
	logger       *logger.Logger
	uow          ports.UnitOfWork
	rideRepo     ports.RideRepository
	eventRepo    ports.RideEventRepository
	receipts     ports.TransitionReceiptRepository
	validator    *ride.Validator
	availability ports.AvailabilityStore
	payments     ports.PaymentService
	notifier     ports.Notifier
	pub          messagePublisher
	rabbitmq     *rabbitmq.Client
}

// NewLifecycleService creates a new instance of the LifecycleService with the provided dependencies.
func NewLifecycleService(
	logger *logger.Logger,
	uow ports.UnitOfWork,
	rideRepo ports.RideRepository,
	eventRepo ports.RideEventRepository,
	receipts ports.TransitionReceiptRepository,
	validator *ride.Validator,
	availability ports.AvailabilityStore,
	payments ports.PaymentService,
	notifier ports.Notifier,
	pub *rabbitmq.MQPublisher,
	client *rabbitmq.Client,
) ports.LifecycleService {
	return &lifecycleService{
		logger:       logger,
		uow:          uow,
		rideRepo:     rideRepo,
		eventRepo:    eventRepo,
		receipts:     receipts,
		validator:    validator,
		availability: availability,
		payments:     payments,
		notifier:     notifier,
		pub:          pub,
		rabbitmq:     client,
	}
}
