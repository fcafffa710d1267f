package peerstore_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/peerstore"
)

func setupTestStore(t *testing.T) *peerstore.Store {
	t.Helper()
	s, err := peerstore.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordDial(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec, err := s.RecordDial(ctx, peerstore.Record{
		PeerID:          "QmPeer",
		Address:         "/ip4/127.0.0.1/tcp/9000/http/p2p-webrtc-direct/p2p/QmPeer",
		RemotePublicKey: []byte{0x08, 0x01},
		Succeeded:       true,
	})
	if err != nil {
		t.Fatalf("RecordDial failed: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected an id to be assigned")
	}
	if rec.DialledAt.IsZero() {
		t.Error("expected DialledAt to be set")
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].PeerID != "QmPeer" || !records[0].Succeeded {
		t.Errorf("unexpected record: %+v", records[0])
	}
	if !bytes.Equal(records[0].RemotePublicKey, []byte{0x08, 0x01}) {
		t.Errorf("unexpected public key: %x", records[0].RemotePublicKey)
	}
}

func TestStore_ListOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, peer := range []string{"QmA", "QmB", "QmA"} {
		_, err := s.RecordDial(ctx, peerstore.Record{
			PeerID:    peer,
			Address:   "/dns/example.org/tcp/80/http/p2p-webrtc-direct/p2p/" + peer,
			DialledAt: base.Add(time.Duration(i) * time.Minute),
			Error:     "timeout",
		})
		if err != nil {
			t.Fatalf("RecordDial failed: %v", err)
		}
	}

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if !records[0].DialledAt.After(records[1].DialledAt) {
		t.Error("expected newest record first")
	}

	peerA, err := s.ListPeer(ctx, "QmA")
	if err != nil {
		t.Fatalf("ListPeer failed: %v", err)
	}
	if len(peerA) != 2 {
		t.Errorf("expected 2 records for QmA, got %d", len(peerA))
	}
	if peerA[0].Error != "timeout" {
		t.Errorf("expected error to be stored, got %q", peerA[0].Error)
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peers.sqlite3")
	ctx := context.Background()

	s, err := peerstore.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := s.RecordDial(ctx, peerstore.Record{PeerID: "QmPeer", Address: "/ip4/1.1.1.1/tcp/1/http/p2p-webrtc-direct/p2p/QmPeer"}); err != nil {
		t.Fatalf("RecordDial failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = peerstore.Open(path)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s.Close()

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected record to survive reopen, got %d", len(records))
	}
}
