package senderchain_test

import (
	"errors"
	"testing"

	"groupkeys/internal/crypto"
	"groupkeys/internal/domain"
	"groupkeys/internal/protocol/senderchain"
)

// newPair returns a sender key and an independent receiver copy.
func newPair(t *testing.T) (sender, receiver domain.SenderKey) {
	t.Helper()
	k, err := crypto.NewProvider().GenerateSenderKey()
	if err != nil {
		t.Fatalf("GenerateSenderKey: %v", err)
	}
	return k, k.Clone()
}

func TestSenderChain_RoundTrip(t *testing.T) {
	sender, receiver := newPair(t)
	ad := []byte("header")

	idx, ct, err := senderchain.Seal(&sender, ad, []byte("hi"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if idx != 0 || sender.ChainIndex != 1 {
		t.Fatalf("index %d, chain index %d", idx, sender.ChainIndex)
	}
	pt, err := senderchain.Open(&receiver, idx, ad, ct)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(pt) != "hi" {
		t.Fatalf("got %q, want %q", pt, "hi")
	}
	if !receiver.Equal(sender) {
		t.Fatal("receiver chain did not follow sender")
	}
}

func TestSenderChain_SkipAhead(t *testing.T) {
	sender, receiver := newPair(t)

	var cts [][]byte
	for i := 0; i < 5; i++ {
		_, ct, err := senderchain.Seal(&sender, nil, []byte{byte(i)})
		if err != nil {
			t.Fatalf("Seal %d: %v", i, err)
		}
		cts = append(cts, ct)
	}

	pt, err := senderchain.Open(&receiver, 3, nil, cts[3])
	if err != nil {
		t.Fatalf("Open 3: %v", err)
	}
	if pt[0] != 3 {
		t.Fatalf("got %d, want 3", pt[0])
	}
	if receiver.ChainIndex != 4 {
		t.Fatalf("chain index %d, want 4", receiver.ChainIndex)
	}

	if _, err := senderchain.Open(&receiver, 1, nil, cts[1]); !errors.Is(err, senderchain.ErrMessageKeyConsumed) {
		t.Fatalf("want ErrMessageKeyConsumed, got %v", err)
	}
	if _, err := senderchain.Open(&receiver, 4, nil, cts[4]); err != nil {
		t.Fatalf("Open 4: %v", err)
	}
}

func TestSenderChain_TooFarAhead(t *testing.T) {
	_, receiver := newPair(t)

	_, err := senderchain.Open(&receiver, senderchain.MaxSkip+1, nil, []byte("x"))
	if !errors.Is(err, senderchain.ErrTooFarAhead) {
		t.Fatalf("want ErrTooFarAhead, got %v", err)
	}
}

func TestSenderChain_TamperLeavesStateUntouched(t *testing.T) {
	sender, receiver := newPair(t)
	before := receiver.Clone()

	_, ct, err := senderchain.Seal(&sender, []byte("ad"), []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	ct[0] ^= 0x01
	if _, err := senderchain.Open(&receiver, 0, []byte("ad"), ct); err == nil {
		t.Fatal("expected tampered ciphertext to fail")
	}
	if !receiver.Equal(before) {
		t.Fatal("failed open mutated receiver state")
	}
}

func TestSenderChain_WrongAssociatedData(t *testing.T) {
	sender, receiver := newPair(t)

	_, ct, err := senderchain.Seal(&sender, []byte("channel-a"), []byte("payload"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := senderchain.Open(&receiver, 0, []byte("channel-b"), ct); err == nil {
		t.Fatal("expected mismatched associated data to fail")
	}
}
