package notify_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
)

type BusTestSuite struct {
	suite.Suite

	ctx context.Context
	bus *notify.Bus
}

func (s *BusTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.bus = notify.NewBus()
}

func (s *BusTestSuite) TestPublishReachesAllSubscribers() {
	var first, second []notify.Message

	cancel1, err := s.bus.Subscribe(s.ctx, func(m notify.Message) { first = append(first, m) })
	s.Require().NoError(err)
	defer cancel1()
	cancel2, err := s.bus.Subscribe(s.ctx, func(m notify.Message) { second = append(second, m) })
	s.Require().NoError(err)
	defer cancel2()

	msg := notify.Message{
		Action: notify.ActionUpdate,
		Key:    "sheet",
		Value:  json.RawMessage(`{"version":1}`),
		Source: "tab-a",
	}
	s.Require().NoError(s.bus.Publish(s.ctx, msg))

	s.Equal([]notify.Message{msg}, first)
	s.Equal([]notify.Message{msg}, second)
}

func (s *BusTestSuite) TestCancelStopsDelivery() {
	count := 0
	cancel, err := s.bus.Subscribe(s.ctx, func(notify.Message) { count++ })
	s.Require().NoError(err)

	msg := notify.Message{Action: notify.ActionRemove, Key: "sheet", Source: "tab-a"}
	s.Require().NoError(s.bus.Publish(s.ctx, msg))
	cancel()
	cancel()
	s.Require().NoError(s.bus.Publish(s.ctx, msg))

	s.Equal(1, count)
}

func (s *BusTestSuite) TestPublishRejectsInvalidMessage() {
	err := s.bus.Publish(s.ctx, notify.Message{Action: "merge"})

	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
	fields := errors.FieldErrors(err)
	s.Contains(fields, "action")
	s.Contains(fields, "key")
	s.Contains(fields, "source")
}

func (s *BusTestSuite) TestSubscribeRequiresHandler() {
	_, err := s.bus.Subscribe(s.ctx, nil)
	s.True(errors.IsInvalidArgument(err))
}

func TestBusTestSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}
