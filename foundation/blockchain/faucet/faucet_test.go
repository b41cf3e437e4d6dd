package faucet_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/blocksim/foundation/blockchain/database"
	"github.com/ardanlabs/blocksim/foundation/blockchain/faucet"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type pool struct {
	txs []database.Tx
}

func (p *pool) AddTransaction(tx database.Tx) bool {
	if tx.Validate() != nil {
		return false
	}
	p.txs = append(p.txs, tx)
	return true
}

func Test_Request(t *testing.T) {
	t.Log("Given the need to hand out demo coins.")
	{
		clock := time.UnixMilli(1_700_000_000_000)
		now := func() time.Time { return clock }

		var p pool
		f := faucet.New(&p, faucet.Config{Now: now})

		testID := 0
		t.Logf("\tTest %d:\tWhen an address asks for the first time.", testID)
		{
			tx, err := f.Request("alice")
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get coins: %v", failed, testID, err)
			}
			if tx.From != database.SystemAddress || tx.To != "alice" || tx.Amount != faucet.DefaultAmount || tx.Fee != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould mint the faucet amount: %+v", failed, testID, tx)
			}
			if len(p.txs) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould submit the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mint and submit the faucet amount.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the address asks again too soon.", testID)
		{
			clock = clock.Add(10 * time.Second)

			_, err := f.Request("alice")
			var ce *faucet.CooldownError
			if !errors.As(err, &ce) {
				t.Fatalf("\t%s\tTest %d:\tShould get a cooldown error: %v", failed, testID, err)
			}
			if ce.Remaining != 20*time.Second {
				t.Fatalf("\t%s\tTest %d:\tShould report the remaining time: %v", failed, testID, ce.Remaining)
			}
			t.Logf("\t%s\tTest %d:\tShould get a cooldown error.", success, testID)

			if _, err := f.Request("bob"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould not block other addresses: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not block other addresses.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the cooldown has passed.", testID)
		{
			clock = clock.Add(21 * time.Second)

			if _, err := f.Request("alice"); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get coins again: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to get coins again.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the address is blank.", testID)
		{
			if _, err := f.Request("   "); !errors.Is(err, faucet.ErrEmptyAddress) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a blank address: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a blank address.", success, testID)
		}
	}
}
