package snapshot_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-sheet/internal/errors"
	"github.com/KirkDiggler/rpg-sheet/internal/notify"
	notifymock "github.com/KirkDiggler/rpg-sheet/internal/notify/mock"
	"github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot"
	snapshotmock "github.com/KirkDiggler/rpg-sheet/internal/repositories/snapshot/mock"
)

type AdapterTestSuite struct {
	suite.Suite

	ctx   context.Context
	bus   *notify.Bus
	store snapshot.Store
	tabA  *snapshot.Adapter
	tabB  *snapshot.Adapter
}

func (s *AdapterTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.bus = notify.NewBus()
	s.store = snapshot.NewMemory()

	var err error
	s.tabA, err = snapshot.NewAdapter(&snapshot.AdapterConfig{Store: s.store, Broadcaster: s.bus, Source: "tab-a"})
	s.Require().NoError(err)
	s.tabB, err = snapshot.NewAdapter(&snapshot.AdapterConfig{Store: s.store, Broadcaster: s.bus, Source: "tab-b"})
	s.Require().NoError(err)
}

func (s *AdapterTestSuite) TearDownTest() {
	s.tabA.Close()
	s.tabB.Close()
}

func (s *AdapterTestSuite) snap(version int64) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Data:        json.RawMessage(`{"characters":{},"activeCharacterId":null}`),
		Version:     version,
		LastUpdated: "2025-03-01T12:00:00Z",
	}
}

func (s *AdapterTestSuite) TestRemoteUpdateRaisesChangeEvent() {
	var seenByA, seenByB []snapshot.ChangeEvent
	_, err := s.tabA.Listen(s.ctx, func(e snapshot.ChangeEvent) { seenByA = append(seenByA, e) })
	s.Require().NoError(err)
	_, err = s.tabB.Listen(s.ctx, func(e snapshot.ChangeEvent) { seenByB = append(seenByB, e) })
	s.Require().NoError(err)

	s.Require().NoError(s.tabA.Set(s.ctx, "sheet", s.snap(500)))

	s.Empty(seenByA, "own writes are not echoed back")
	s.Require().Len(seenByB, 1)
	s.Equal("sheet", seenByB[0].Key)
	s.Equal(notify.ActionUpdate, seenByB[0].Action)
	s.Equal("tab-a", seenByB[0].Source)
	s.Require().NotNil(seenByB[0].Snapshot)
	s.Equal(int64(500), seenByB[0].Snapshot.Version)
}

func (s *AdapterTestSuite) TestRemoteRemoveRaisesChangeEvent() {
	var seen []snapshot.ChangeEvent
	_, err := s.tabB.Listen(s.ctx, func(e snapshot.ChangeEvent) { seen = append(seen, e) })
	s.Require().NoError(err)

	s.Require().NoError(s.tabA.Set(s.ctx, "sheet", s.snap(1)))
	s.Require().NoError(s.tabA.Remove(s.ctx, "sheet"))

	s.Require().Len(seen, 2)
	s.Equal(notify.ActionRemove, seen[1].Action)
	s.Nil(seen[1].Snapshot)

	got, err := s.tabB.Get(s.ctx, "sheet")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *AdapterTestSuite) TestMessageWithoutValueReadsStore() {
	var seen []snapshot.ChangeEvent
	_, err := s.tabB.Listen(s.ctx, func(e snapshot.ChangeEvent) { seen = append(seen, e) })
	s.Require().NoError(err)

	_, err = s.store.Set(s.ctx, snapshot.SetInput{Key: "sheet", Snapshot: s.snap(42)})
	s.Require().NoError(err)
	s.Require().NoError(s.bus.Publish(s.ctx, notify.Message{Action: notify.ActionUpdate, Key: "sheet", Source: "cli"}))

	s.Require().Len(seen, 1)
	s.Equal(int64(42), seen[0].Snapshot.Version)
}

func (s *AdapterTestSuite) TestMalformedValueIsDropped() {
	var seen []snapshot.ChangeEvent
	_, err := s.tabB.Listen(s.ctx, func(e snapshot.ChangeEvent) { seen = append(seen, e) })
	s.Require().NoError(err)

	s.Require().NoError(s.bus.Publish(s.ctx, notify.Message{
		Action: notify.ActionUpdate,
		Key:    "sheet",
		Value:  json.RawMessage(`"not an envelope"`),
		Source: "tab-a",
	}))

	s.Empty(seen)
}

func (s *AdapterTestSuite) TestCancelledListenerStopsReceiving() {
	count := 0
	cancel, err := s.tabB.Listen(s.ctx, func(snapshot.ChangeEvent) { count++ })
	s.Require().NoError(err)

	s.Require().NoError(s.tabA.Set(s.ctx, "sheet", s.snap(1)))
	cancel()
	s.Require().NoError(s.tabA.Set(s.ctx, "sheet", s.snap(2)))

	s.Equal(1, count)
}

func (s *AdapterTestSuite) TestStoreFailureIsReturnedWithoutBroadcast() {
	ctrl := gomock.NewController(s.T())
	mockStore := snapshotmock.NewMockStore(ctrl)

	adapter, err := snapshot.NewAdapter(&snapshot.AdapterConfig{Store: mockStore, Broadcaster: s.bus, Source: "tab-c"})
	s.Require().NoError(err)
	defer adapter.Close()

	var seen []snapshot.ChangeEvent
	_, err = s.tabB.Listen(s.ctx, func(e snapshot.ChangeEvent) { seen = append(seen, e) })
	s.Require().NoError(err)

	mockStore.EXPECT().
		Set(s.ctx, gomock.Any()).
		Return(nil, errors.Unavailable("disk full"))

	err = adapter.Set(s.ctx, "sheet", s.snap(9))
	s.Require().Error(err)
	s.True(errors.IsUnavailable(err))
	s.Empty(seen)
}

func (s *AdapterTestSuite) TestBroadcastFailureAfterCommit() {
	ctrl := gomock.NewController(s.T())
	broadcaster := notifymock.NewMockBroadcaster(ctrl)

	adapter, err := snapshot.NewAdapter(&snapshot.AdapterConfig{Store: s.store, Broadcaster: broadcaster, Source: "tab-c"})
	s.Require().NoError(err)
	defer adapter.Close()

	broadcaster.EXPECT().
		Publish(s.ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notify.Message) error {
			s.Equal(notify.ActionUpdate, msg.Action)
			s.Equal("tab-c", msg.Source)
			return errors.Unavailable("redis down")
		})

	err = adapter.Set(s.ctx, "sheet", s.snap(4))
	s.True(errors.IsUnavailable(err))

	got, err := s.tabA.Get(s.ctx, "sheet")
	s.Require().NoError(err)
	s.Equal(int64(4), got.Version)
}

func (s *AdapterTestSuite) TestWithoutBroadcaster() {
	adapter, err := snapshot.NewAdapter(&snapshot.AdapterConfig{Store: s.store, Source: "solo"})
	s.Require().NoError(err)

	cancel, err := adapter.Listen(s.ctx, func(snapshot.ChangeEvent) {})
	s.Require().NoError(err)
	defer cancel()

	s.Require().NoError(adapter.Set(s.ctx, "sheet", s.snap(3)))
	got, err := adapter.Get(s.ctx, "sheet")
	s.Require().NoError(err)
	s.Equal(int64(3), got.Version)
}

func (s *AdapterTestSuite) TestConfigValidation() {
	_, err := snapshot.NewAdapter(&snapshot.AdapterConfig{})
	s.Require().Error(err)
	fields := errors.FieldErrors(err)
	s.Contains(fields, "store")
	s.Contains(fields, "source")
}

func TestAdapterTestSuite(t *testing.T) {
	suite.Run(t, new(AdapterTestSuite))
}
