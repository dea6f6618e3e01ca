package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/db"
)

type storeFactory struct {
	name string
	new  func(t *testing.T) Store
}

var stores = []storeFactory{
	{"json", func(t *testing.T) Store {
		return NewJSONStore(filepath.Join(t.TempDir(), "sales-data.json"), nil)
	}},
	{"sqlite", func(t *testing.T) Store {
		d, err := db.OpenMemory()
		if err != nil {
			t.Fatalf("OpenMemory: %v", err)
		}
		return NewSQLiteStore(d)
	}},
}

func eachStore(t *testing.T, fn func(t *testing.T, l *Ledger)) {
	for _, f := range stores {
		t.Run(f.name, func(t *testing.T) {
			s := f.new(t)
			defer s.Close()
			fn(t, New(s, nil))
		})
	}
}

func snapshot(t *testing.T, l *Ledger) Snapshot {
	t.Helper()
	snap, err := l.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func TestCreateThenVerify(t *testing.T) {
	eachStore(t, func(t *testing.T, l *Ledger) {
		ctx := context.Background()
		if err := l.RecordCreation(ctx, "2024-05-01", "カレー", 2, false); err != nil {
			t.Fatal(err)
		}
		got := snapshot(t, l)["2024-05-01"]
		if got.Reservations != 2 || got.People != 0 || len(got.MenuSales) != 0 {
			t.Fatalf("after creation: %+v", got)
		}

		if err := l.RecordVerification(ctx, "2024-05-01", "カレー", 2); err != nil {
			t.Fatal(err)
		}
		want := Entry{Reservations: 2, People: 2, MenuSales: map[string]int{"カレー": 2}}
		if got := snapshot(t, l)["2024-05-01"]; !reflect.DeepEqual(got, want) {
			t.Errorf("after verification: got %+v, want %+v", got, want)
		}
	})
}

func TestCreateVerified(t *testing.T) {
	eachStore(t, func(t *testing.T, l *Ledger) {
		if err := l.RecordCreation(context.Background(), "2024-05-02", "うどん", 3, true); err != nil {
			t.Fatal(err)
		}
		want := Entry{Reservations: 3, People: 3, MenuSales: map[string]int{"うどん": 3}}
		if got := snapshot(t, l)["2024-05-02"]; !reflect.DeepEqual(got, want) {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})
}

func TestVerificationWithoutFoodOrEntry(t *testing.T) {
	eachStore(t, func(t *testing.T, l *Ledger) {
		if err := l.RecordVerification(context.Background(), "2024-05-03", "", 1); err != nil {
			t.Fatal(err)
		}
		got := snapshot(t, l)["2024-05-03"]
		if got.People != 1 || len(got.MenuSales) != 0 {
			t.Errorf("got %+v", got)
		}
	})
}

func TestRejectsInvalidInput(t *testing.T) {
	eachStore(t, func(t *testing.T, l *Ledger) {
		ctx := context.Background()
		if err := l.RecordCreation(ctx, "2024-05-01", "カレー", 0, false); !errors.Is(err, ErrInvalidPeople) {
			t.Errorf("people 0: got %v", err)
		}
		if err := l.RecordVerification(ctx, "05/01/2024", "カレー", 1); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("bad date: got %v", err)
		}
		if len(snapshot(t, l)) != 0 {
			t.Error("invalid events must not touch the ledger")
		}
	})
}

func TestConcurrentEventsKeepInvariant(t *testing.T) {
	eachStore(t, func(t *testing.T, l *Ledger) {
		ctx := context.Background()
		const n = 40

		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				people := i%3 + 1
				if err := l.RecordCreation(ctx, "2024-05-01", "カレー", people, false); err != nil {
					t.Error(err)
					return
				}
				if i%2 == 0 {
					if err := l.RecordVerification(ctx, "2024-05-01", "カレー", people); err != nil {
						t.Error(err)
					}
				}
			}()
		}
		wg.Wait()

		wantReservations, wantPeople := 0, 0
		for i := range n {
			people := i%3 + 1
			wantReservations += people
			if i%2 == 0 {
				wantPeople += people
			}
		}

		got := snapshot(t, l)["2024-05-01"]
		if got.Reservations != wantReservations || got.People != wantPeople || got.MenuSales["カレー"] != wantPeople {
			t.Errorf("got %+v, want reservations=%d people=%d", got, wantReservations, wantPeople)
		}
		if got.Reservations < got.People {
			t.Errorf("reservations %d < people %d", got.Reservations, got.People)
		}
	})
}

func TestJSONStoreCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales-data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(NewJSONStore(path, nil), nil)

	if snap := snapshot(t, l); len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}
	if err := l.RecordCreation(context.Background(), "2024-05-01", "カレー", 1, false); err != nil {
		t.Fatalf("write after corrupt read: %v", err)
	}
	if got := snapshot(t, l)["2024-05-01"].Reservations; got != 1 {
		t.Errorf("reservations: got %d", got)
	}
}

func TestJSONStoreFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales-data.json")
	l := New(NewJSONStore(path, nil), nil)
	if err := l.RecordCreation(context.Background(), "2024-05-01", "カレー", 2, true); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"2024-05-01": {`) || !strings.Contains(string(data), `"menuSales"`) {
		t.Errorf("unexpected document layout:\n%s", data)
	}
	reread := New(NewJSONStore(path, nil), nil)
	want := Snapshot{"2024-05-01": {Reservations: 2, People: 2, MenuSales: map[string]int{"カレー": 2}}}
	if got := snapshot(t, reread); !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v from %s", got, data)
	}
}

func TestJSONStoreWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	l := New(NewJSONStore(filepath.Join(blocker, "sales-data.json"), nil), nil)
	if err := l.RecordCreation(context.Background(), "2024-05-01", "カレー", 1, false); err == nil {
		t.Error("expected write failure to be reported")
	}
}

func TestOpenBackends(t *testing.T) {
	for _, backend := range []config.LedgerBackend{config.LedgerJSON, config.LedgerSQLite} {
		t.Run(string(backend), func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.DataDir = t.TempDir()
			cfg.Ledger.Backend = backend

			l, err := Open(cfg, nil)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer l.Close()

			if err := l.RecordCreation(context.Background(), "2024-05-01", "カレー", 1, false); err != nil {
				t.Fatal(err)
			}
			if _, err := os.Stat(cfg.LedgerPath()); err != nil {
				t.Errorf("ledger file not created: %v", err)
			}
		})
	}

	cfg := config.DefaultConfig()
	cfg.Ledger.Backend = "postgres"
	if _, err := Open(cfg, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func ExampleLedger_RecordVerification() {
	d, _ := db.OpenMemory()
	l := New(NewSQLiteStore(d), nil)
	defer l.Close()

	ctx := context.Background()
	l.RecordCreation(ctx, "2024-05-01", "カレー", 2, false)
	l.RecordVerification(ctx, "2024-05-01", "カレー", 2)

	snap, _ := l.Snapshot(ctx)
	e := snap["2024-05-01"]
	fmt.Println(e.Reservations, e.People, e.MenuSales["カレー"])
	// Output: 2 2 2
}
