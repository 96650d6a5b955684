package store

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"

	lgerrors "github.com/matzehuels/linkgrid/pkg/errors"
	"github.com/matzehuels/linkgrid/pkg/widget"
)

// runStoreContract exercises the behaviour every backend shares.
func runStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	stale := json.RawMessage(`"{\"x\":20,\"y\":20}"`)
	records := []widget.Record{
		{ID: "a", Type: "link", Size: "thin", WebPosition: json.RawMessage(`{"x":20,"y":20}`), MobilePosition: stale},
		{ID: "b", Type: "image", Size: "wide", Position: json.RawMessage(`{"x":0,"y":100}`)},
		{ID: "c", Type: "text", Size: "tall", MobilePosition: stale},
	}
	for _, r := range records {
		if err := s.CreateWidget(ctx, "home", r); err != nil {
			t.Fatalf("CreateWidget(%s): %v", r.ID, err)
		}
	}
	if err := s.CreateWidget(ctx, "other", widget.Record{ID: "z", Type: "link", Size: "thin"}); err != nil {
		t.Fatal(err)
	}

	t.Run("list preserves order and raw positions", func(t *testing.T) {
		got, err := s.ListWidgets(ctx, "home")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Fatalf("ListWidgets() returned %d records", len(got))
		}
		for i, want := range []string{"a", "b", "c"} {
			if got[i].ID != want {
				t.Errorf("record %d = %s, want %s", i, got[i].ID, want)
			}
		}
		p, err := widget.ParsePoint(got[0].MobilePosition)
		if err != nil || p != (widget.Point{X: 20, Y: 20}) {
			t.Errorf("string-encoded mobile position = %v, %v", p, err)
		}
		if len(got[1].WebPosition) != 0 {
			t.Errorf("absent web position came back as %s", got[1].WebPosition)
		}
		if p, err := widget.ParsePoint(got[1].Position); err != nil || p != (widget.Point{X: 0, Y: 100}) {
			t.Errorf("legacy position = %v, %v", p, err)
		}
	})

	t.Run("duplicate create", func(t *testing.T) {
		err := s.CreateWidget(ctx, "home", widget.Record{ID: "a", Type: "link", Size: "thin"})
		if !lgerrors.Is(err, lgerrors.ErrCodeDuplicateWidget) {
			t.Errorf("err = %v, want DUPLICATE_WIDGET", err)
		}
	})

	t.Run("invalid ids", func(t *testing.T) {
		if err := s.CreateWidget(ctx, "home", widget.Record{ID: "../x"}); !lgerrors.Is(err, lgerrors.ErrCodeInvalidID) {
			t.Errorf("bad widget id err = %v", err)
		}
		if err := s.CreateWidget(ctx, "", widget.Record{ID: "ok"}); !lgerrors.Is(err, lgerrors.ErrCodeInvalidID) {
			t.Errorf("bad page id err = %v", err)
		}
	})

	t.Run("update position per view", func(t *testing.T) {
		if err := s.UpdatePosition(ctx, "a", widget.Mobile, widget.Point{X: 164, Y: 20}); err != nil {
			t.Fatal(err)
		}
		got, _ := s.ListWidgets(ctx, "home")
		mobile, _ := widget.ParsePoint(got[0].MobilePosition)
		desktop, _ := widget.ParsePoint(got[0].WebPosition)
		if mobile != (widget.Point{X: 164, Y: 20}) || desktop != (widget.Point{X: 20, Y: 20}) {
			t.Errorf("positions = %v / %v", desktop, mobile)
		}
		err := s.UpdatePosition(ctx, "missing", widget.Desktop, widget.Point{})
		if !lgerrors.Is(err, lgerrors.ErrCodeWidgetNotFound) {
			t.Errorf("missing widget err = %v", err)
		}
		if err := s.UpdatePosition(ctx, "a", widget.ViewMode("tv"), widget.Point{}); !lgerrors.Is(err, lgerrors.ErrCodeInvalidView) {
			t.Errorf("bad view err = %v", err)
		}
		if err := s.UpdatePosition(ctx, "a", widget.Desktop, widget.Point{X: math.NaN()}); !lgerrors.Is(err, lgerrors.ErrCodeInvalidInput) {
			t.Errorf("NaN position err = %v", err)
		}
		got, _ = s.ListWidgets(ctx, "home")
		if p, err := widget.ParsePoint(got[0].WebPosition); err != nil || p != (widget.Point{X: 20, Y: 20}) {
			t.Errorf("desktop after rejected update = %v, %v", p, err)
		}
	})

	t.Run("update size", func(t *testing.T) {
		if err := s.UpdateSize(ctx, "b", widget.SizeLargeSquare); err != nil {
			t.Fatal(err)
		}
		got, _ := s.ListWidgets(ctx, "home")
		if got[1].Size != "large-square" {
			t.Errorf("size = %s", got[1].Size)
		}
		if err := s.UpdateSize(ctx, "missing", widget.SizeThin); !lgerrors.Is(err, lgerrors.ErrCodeWidgetNotFound) {
			t.Errorf("missing widget err = %v", err)
		}
	})

	t.Run("save upserts in place", func(t *testing.T) {
		r := widget.Record{ID: "a", Type: "social", Size: "small-square", WebPosition: json.RawMessage(`{"x":40,"y":40}`)}
		if err := s.SaveWidget(ctx, "home", r); err != nil {
			t.Fatal(err)
		}
		if err := s.SaveWidget(ctx, "home", widget.Record{ID: "d", Type: "app", Size: "thin"}); err != nil {
			t.Fatal(err)
		}
		got, _ := s.ListWidgets(ctx, "home")
		if len(got) != 4 || got[0].ID != "a" || got[3].ID != "d" {
			t.Fatalf("order after save = %v", ids(got))
		}
		if got[0].Type != "social" || len(got[0].MobilePosition) != 0 {
			t.Errorf("saved record = %+v", got[0])
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := s.DeleteWidget(ctx, "b"); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteWidget(ctx, "b"); !lgerrors.Is(err, lgerrors.ErrCodeWidgetNotFound) {
			t.Errorf("second delete err = %v", err)
		}
		got, _ := s.ListWidgets(ctx, "home")
		if len(got) != 3 {
			t.Errorf("after delete: %v", ids(got))
		}
		other, _ := s.ListWidgets(ctx, "other")
		if len(other) != 1 {
			t.Errorf("other page affected: %v", ids(other))
		}
	})

	t.Run("empty page", func(t *testing.T) {
		got, err := s.ListWidgets(ctx, "nobody")
		if err != nil || len(got) != 0 {
			t.Errorf("ListWidgets(nobody) = %v, %v", got, err)
		}
	})
}

func ids(rs []widget.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "linkgrid.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	runStoreContract(t, s)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "linkgrid.db")

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateWidget(ctx, "home", widget.Record{ID: "a", Type: "link", Size: "thin"}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.ListWidgets(ctx, "home")
	if err != nil || len(got) != 1 {
		t.Errorf("after reopen: %v, %v", got, err)
	}
}

func TestSQLiteNonJSONColumn(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "linkgrid.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.CreateWidget(ctx, "home", widget.Record{ID: "a", Type: "link", Size: "thin"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE widgets SET mobile_position = '{x:20}' WHERE id = 'a'`); err != nil {
		t.Fatal(err)
	}
	got, err := s.ListWidgets(ctx, "home")
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(got[0].MobilePosition) {
		t.Fatalf("column not representable as JSON: %s", got[0].MobilePosition)
	}
	if _, err := widget.ParsePoint(got[0].MobilePosition); err == nil {
		t.Error("garbage position parsed successfully")
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{dialect: DialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &SQLStore{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "cassandra"})
	if !lgerrors.Is(err, lgerrors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
	s, err := Open(context.Background(), Config{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("default backend = %T, want *MemoryStore", s)
	}
}
