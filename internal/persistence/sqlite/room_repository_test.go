package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/roomreserve/internal/persistence"
	"github.com/example/roomreserve/internal/testfixtures"
)

func TestRoomRepository_CreateAndGet(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewRoomFixture(
		testfixtures.WithRoomFeatures("projector", "video"),
		testfixtures.WithRoomPhotoURL("https://example.com/sakura.jpg"),
	)
	if err := harness.Rooms.CreateRoom(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	got, err := harness.Rooms.GetRoom(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("failed to get room: %v", err)
	}
	if got.Name != fixture.Name || got.Capacity != fixture.Capacity {
		t.Fatalf("unexpected room: %+v", got)
	}
	if len(got.Features) != 2 || got.Features[0] != "projector" {
		t.Fatalf("features did not round trip: %v", got.Features)
	}
	if got.PhotoURL == nil || *got.PhotoURL != "https://example.com/sakura.jpg" {
		t.Fatalf("photo URL did not round trip: %v", got.PhotoURL)
	}
	if !got.Active {
		t.Fatal("expected active room")
	}
}

func TestRoomRepository_List_OrdersByName(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	for _, fixture := range []testfixtures.RoomFixture{
		testfixtures.NewRoomFixture(testfixtures.WithRoomID("room-b"), testfixtures.WithRoomName("Ume")),
		testfixtures.NewRoomFixture(testfixtures.WithRoomID("room-a"), testfixtures.WithRoomName("Kiku")),
	} {
		if err := harness.Rooms.CreateRoom(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("failed to create %s: %v", fixture.ID, err)
		}
	}

	rooms, err := harness.Rooms.ListRooms(ctx)
	if err != nil {
		t.Fatalf("failed to list rooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "Kiku" || rooms[1].Name != "Ume" {
		t.Fatalf("expected name order Kiku, Ume; got %v", rooms)
	}
}

func TestRoomRepository_Update_PersistsWithdrawal(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewRoomFixture()
	if err := harness.Rooms.CreateRoom(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}

	withdrawn := fixture.Persistence()
	withdrawn.Active = false
	if err := harness.Rooms.UpdateRoom(ctx, withdrawn); err != nil {
		t.Fatalf("failed to update room: %v", err)
	}

	got, err := harness.Rooms.GetRoom(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("failed to get room: %v", err)
	}
	if got.Active {
		t.Fatal("expected withdrawn room to be inactive")
	}
}

func TestRoomRepository_Delete_RemovesReservations(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	seedRoomAndUser(t, harness)
	ctx := context.Background()

	reservation := testfixtures.NewReservationFixture()
	if err := harness.Reservations.CreateReservation(ctx, reservation.Persistence()); err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	if err := harness.Rooms.DeleteRoom(ctx, reservation.RoomID); err != nil {
		t.Fatalf("failed to delete room: %v", err)
	}

	if _, err := harness.Rooms.GetRoom(ctx, reservation.RoomID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for deleted room, got %v", err)
	}
	if _, err := harness.Reservations.GetReservation(ctx, reservation.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected reservations to go with the room, got %v", err)
	}
}

func TestRoomRepository_Delete_MissingRoom(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	if err := harness.Rooms.DeleteRoom(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
